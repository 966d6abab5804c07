package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/infrastructure/parser"
	"NewsRelay/internal/ports"
)

// IngestorDeps wires the ingestion run's collaborators.
type IngestorDeps struct {
	Sources   ports.SourceStore
	Articles  ports.ArticleStore
	Registry  *parser.Registry
	Extractor ports.ContentExtractor
	Logger    *slog.Logger
}

// Ingestor iterates active sources, runs the matching parser, and persists
// the deduplicated results. Sources and articles are processed strictly one
// at a time; sleeps between outbound requests are the only throttling.
type Ingestor struct {
	sources   ports.SourceStore
	articles  ports.ArticleStore
	registry  *parser.Registry
	extractor ports.ContentExtractor
	cfg       config.IngestConfig
	logger    *slog.Logger

	sleep func(time.Duration)
	now   func() time.Time
}

// NewIngestor constructs the orchestrator.
func NewIngestor(deps IngestorDeps, cfg config.IngestConfig) *Ingestor {
	return &Ingestor{
		sources:   deps.Sources,
		articles:  deps.Articles,
		registry:  deps.Registry,
		extractor: deps.Extractor,
		cfg:       cfg,
		logger:    deps.Logger,
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	Sources   int
	Processed int
	Found     int
	Added     int
	Skipped   int
	Errors    int
}

// Run processes every active source in list order. A source failure is
// counted and logged, never propagated; only the initial source lookup can
// fail the run.
func (ing *Ingestor) Run(ctx context.Context) (IngestStats, error) {
	var stats IngestStats

	sources, err := ing.sources.Active(ctx)
	if err != nil {
		return stats, fmt.Errorf("load active sources: %w", err)
	}
	stats.Sources = len(sources)

	if len(sources) == 0 {
		ing.logger.Warn("no active sources")
		return stats, nil
	}

	for i, src := range sources {
		if err := ing.ingestSource(ctx, src, &stats); err != nil {
			stats.Errors++
			ing.logger.Error("source failed", "source", src.Name, "error", err)
		} else {
			stats.Processed++
		}

		if i < len(sources)-1 {
			ing.sleep(ing.cfg.SourceDelay())
		}
	}

	ing.logger.Info("ingestion finished",
		"sources", stats.Processed,
		"found", stats.Found,
		"added", stats.Added,
		"skipped", stats.Skipped,
		"errors", stats.Errors)
	return stats, nil
}

func (ing *Ingestor) ingestSource(ctx context.Context, src domain.Source, stats *IngestStats) error {
	ing.logger.Info("processing source", "source", src.Name, "type", src.ParserType)

	p, err := ing.registry.Resolve(src)
	if err != nil {
		return err
	}

	articles, err := p.FetchArticles(ctx)
	if err != nil {
		return fmt.Errorf("fetch articles: %w", err)
	}

	articles = ing.filterByAge(src.Name, articles)
	if limit := ing.cfg.PerSourceLimit; limit > 0 && len(articles) > limit {
		ing.logger.Info("applying limit", "source", src.Name, "limit", limit, "found", len(articles))
		articles = articles[:limit]
	}
	stats.Found += len(articles)

	for i, article := range articles {
		if !article.Valid() {
			ing.logger.Warn("dropping invalid record", "source", src.Name, "url", article.URL)
			continue
		}

		if ing.extractor != nil && len(article.Content) < ing.cfg.MinContentLength {
			ing.logger.Info("backfilling short content",
				"source", src.Name, "url", article.URL, "length", len(article.Content))
			if full := ing.extractor.FetchFullContent(ctx, article.URL); full != "" {
				article.Content = full
			}
			if i < len(articles)-1 {
				ing.sleep(ing.cfg.ArticleDelay())
			}
		}

		added, err := ing.saveArticle(ctx, article)
		switch {
		case err != nil:
			stats.Skipped++
			ing.logger.Error("save failed", "source", src.Name, "url", article.URL, "error", err)
		case added:
			stats.Added++
		default:
			stats.Skipped++
			ing.logger.Debug("duplicate url skipped", "source", src.Name, "url", article.URL)
		}
	}

	if err := ing.sources.TouchLastFetch(ctx, src.ID); err != nil {
		ing.logger.Warn("update last fetch failed", "source", src.Name, "error", err)
	}

	return nil
}

// filterByAge drops articles older than the configured cutoff. The filter
// only applies when a parseable publication date exists, and both sides are
// compared in UTC.
func (ing *Ingestor) filterByAge(sourceName string, articles []domain.Article) []domain.Article {
	if ing.cfg.MaxAgeDays <= 0 {
		return articles
	}

	cutoff := ing.now().UTC().AddDate(0, 0, -ing.cfg.MaxAgeDays)

	kept := articles[:0]
	for _, article := range articles {
		if article.PublishedAt != nil && article.PublishedAt.UTC().Before(cutoff) {
			continue
		}
		kept = append(kept, article)
	}

	if dropped := len(articles) - len(kept); dropped > 0 {
		ing.logger.Info("filtered stale articles", "source", sourceName, "dropped", dropped)
	}

	return kept
}

// saveArticle performs the URL-deduplicating insert. The exists check and the
// insert are not transactional; a unique-violation from a concurrent run is
// classified as a skip, not an error.
func (ing *Ingestor) saveArticle(ctx context.Context, article domain.Article) (bool, error) {
	exists, err := ing.articles.Exists(ctx, article.URL)
	if err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		return false, nil
	}

	if err := ing.articles.Insert(ctx, article); err != nil {
		if errors.Is(err, domain.ErrDuplicateURL) {
			return false, nil
		}
		return false, fmt.Errorf("insert article: %w", err)
	}

	return true, nil
}
