package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NewsRelay/internal/cleaner"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/retry"
)

var errEmptyResponse = errors.New("generative service returned empty text")

// ProcessorDeps wires the enrichment pipeline's collaborators. Content
// operations and the cheap title/description translations carry independent
// retry budgets.
type ProcessorDeps struct {
	Store         ports.ArticleStore
	Generator     ports.TextGenerator
	ContentPolicy *retry.Policy
	ShortPolicy   *retry.Policy
	Logger        *slog.Logger
}

// Processor runs stored articles through clean, rewrite, and translate
// stages.
type Processor struct {
	store         ports.ArticleStore
	generator     ports.TextGenerator
	contentPolicy *retry.Policy
	shortPolicy   *retry.Policy
	logger        *slog.Logger

	Delay  time.Duration
	DryRun bool

	sleep func(time.Duration)
}

// NewProcessor constructs the pipeline component.
func NewProcessor(deps ProcessorDeps) *Processor {
	return &Processor{
		store:         deps.Store,
		generator:     deps.Generator,
		contentPolicy: deps.ContentPolicy,
		shortPolicy:   deps.ShortPolicy,
		logger:        deps.Logger,
		sleep:         time.Sleep,
	}
}

// ProcessStats summarizes one enrichment run.
type ProcessStats struct {
	Processed int
	Succeeded int
	Failed    int
}

// Run pulls untranslated articles with content created within maxAge and
// enriches them one at a time. Partial results are persisted even when the
// pipeline failed partway. One article's failure never aborts the run.
func (p *Processor) Run(ctx context.Context, limit int, maxAge time.Duration) (ProcessStats, error) {
	var stats ProcessStats

	since := time.Now().UTC().Add(-maxAge)
	articles, err := p.store.Untranslated(ctx, limit, since)
	if err != nil {
		return stats, fmt.Errorf("load untranslated articles: %w", err)
	}

	if len(articles) == 0 {
		p.logger.Info("no articles to process")
		return stats, nil
	}

	p.logger.Info("processing articles", "count", len(articles))

	for i, article := range articles {
		stats.Processed++
		result := p.ProcessArticle(ctx, article)

		if result.Success {
			stats.Succeeded++
		} else {
			stats.Failed++
			p.logger.Error("article processing failed",
				"article", article.ID, "url", article.URL, "error", result.ErrorMessage)
		}

		if p.DryRun {
			p.logger.Info("dry run: skipping persistence", "article", article.ID)
		} else if result.CleanContent != "" {
			if err := p.store.UpdateProcessed(ctx, article.ID, result); err != nil {
				p.logger.Error("persist result failed", "article", article.ID, "error", err)
			}
		}

		if i < len(articles)-1 {
			p.sleep(p.Delay)
		}
	}

	p.logger.Info("processing finished",
		"processed", stats.Processed, "succeeded", stats.Succeeded, "failed", stats.Failed)
	return stats, nil
}

// ProcessArticle walks one article through the stage machine:
// clean, rewrite, best-effort title/description translation, content
// translation. Every value produced before a failure stays in the result.
func (p *Processor) ProcessArticle(ctx context.Context, article domain.Article) domain.ProcessingResult {
	var result domain.ProcessingResult

	if article.Content == "" {
		return failed(result, domain.StageClean, errors.New("article has no content"))
	}

	p.logger.Info("cleaning content", "article", article.ID)
	result.CleanContent = cleaner.CleanHTML(article.Content)
	if result.CleanContent == "" {
		return failed(result, domain.StageClean, errors.New("cleaned content is empty"))
	}

	p.logger.Info("rewriting content", "article", article.ID)
	rewritten, err := p.generate(ctx, p.contentPolicy, rewritePrompt(result.CleanContent))
	if err != nil {
		return failed(result, domain.StageRewrite, err)
	}
	result.RewrittenContent = rewritten

	// Title and description translations are independent sub-steps: a failure
	// downgrades that field to "not translated" without failing the pipeline.
	if translated, err := p.generate(ctx, p.shortPolicy, translateTitlePrompt(article.Title)); err != nil {
		p.logger.Warn("title translation failed", "article", article.ID, "error", err)
	} else {
		result.TranslatedTitle = translated
	}

	if article.Description != "" {
		if translated, err := p.generate(ctx, p.shortPolicy, translateDescriptionPrompt(article.Description)); err != nil {
			p.logger.Warn("description translation failed", "article", article.ID, "error", err)
		} else {
			result.TranslatedDescription = translated
		}
	}

	p.logger.Info("translating content", "article", article.ID)
	translated, err := p.generate(ctx, p.contentPolicy, translateContentPrompt(rewritten))
	if err != nil {
		return failed(result, domain.StageTranslateContent, err)
	}

	result.TranslatedContent = translated
	result.Success = translated != ""
	return result
}

// generate runs one prompt behind the given backoff policy. An empty response
// counts as a failure so no stage silently proceeds on missing text.
func (p *Processor) generate(ctx context.Context, policy *retry.Policy, prompt string) (string, error) {
	var out string

	err := policy.Do(ctx, func() error {
		text, err := p.generator.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", errEmptyResponse
	}

	return out, nil
}

func failed(result domain.ProcessingResult, stage domain.Stage, err error) domain.ProcessingResult {
	result.Success = false
	result.ErrorMessage = (&domain.StageError{Stage: stage, Err: err}).Error()
	return result
}
