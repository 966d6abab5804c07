package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/retry"
)

type stubGenerator struct {
	fn    func(prompt string) (string, error)
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls++
	return g.fn(prompt)
}

type stubStore struct {
	articles []domain.Article
	updates  map[uuid.UUID]domain.ProcessingResult
}

func newStubStore(articles ...domain.Article) *stubStore {
	return &stubStore{articles: articles, updates: map[uuid.UUID]domain.ProcessingResult{}}
}

func (s *stubStore) Exists(ctx context.Context, url string) (bool, error) { return false, nil }

func (s *stubStore) Insert(ctx context.Context, article domain.Article) error { return nil }

func (s *stubStore) Untranslated(ctx context.Context, limit int, since time.Time) ([]domain.Article, error) {
	if limit < len(s.articles) {
		return s.articles[:limit], nil
	}
	return s.articles, nil
}

func (s *stubStore) UpdateProcessed(ctx context.Context, id uuid.UUID, result domain.ProcessingResult) error {
	s.updates[id] = result
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func instantPolicy(t *testing.T) *retry.Policy {
	t.Helper()
	cfg := config.RetryConfig{MaxRetries: 0}
	return retry.New(cfg, func(error) bool { return false }, discardLogger())
}

func newTestProcessor(t *testing.T, store *stubStore, gen *stubGenerator) *Processor {
	t.Helper()
	p := NewProcessor(ProcessorDeps{
		Store:         store,
		Generator:     gen,
		ContentPolicy: instantPolicy(t),
		ShortPolicy:   instantPolicy(t),
		Logger:        discardLogger(),
	})
	p.sleep = func(time.Duration) {}
	return p
}

// answerByPrompt maps each pipeline stage to a canned response using the
// prompt's fixed lead-in.
func answerByPrompt(prompt string) (string, error) {
	switch {
	case strings.HasPrefix(prompt, "Rewrite"):
		return "rewritten body", nil
	case strings.Contains(prompt, "English title:"):
		return "заголовок", nil
	case strings.Contains(prompt, "English description:"):
		return "описание", nil
	case strings.Contains(prompt, "English article:"):
		return "переведённый текст", nil
	}
	return "", errors.New("unexpected prompt")
}

func testArticle() domain.Article {
	return domain.Article{
		ID:          uuid.New(),
		Title:       "A title",
		URL:         "https://example.com/a",
		Description: "A description",
		Content:     "<p>A</p><script>bad()</script>",
	}
}

func TestProcessArticleFullPipeline(t *testing.T) {
	gen := &stubGenerator{fn: answerByPrompt}
	p := newTestProcessor(t, newStubStore(), gen)

	result := p.ProcessArticle(context.Background(), testArticle())

	assert.True(t, result.Success)
	assert.Empty(t, result.ErrorMessage)
	assert.Equal(t, "A", result.CleanContent, "script tags are stripped before rewriting")
	assert.Equal(t, "rewritten body", result.RewrittenContent)
	assert.Equal(t, "заголовок", result.TranslatedTitle)
	assert.Equal(t, "описание", result.TranslatedDescription)
	assert.Equal(t, "переведённый текст", result.TranslatedContent)
	assert.Equal(t, 4, gen.calls)
}

func TestProcessArticleWithoutContentFails(t *testing.T) {
	gen := &stubGenerator{fn: answerByPrompt}
	p := newTestProcessor(t, newStubStore(), gen)

	article := testArticle()
	article.Content = ""
	result := p.ProcessArticle(context.Background(), article)

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "clean")
	assert.Zero(t, gen.calls, "no generation happens without content")
}

func TestProcessArticleRewriteFailureKeepsCleanContent(t *testing.T) {
	gen := &stubGenerator{fn: func(prompt string) (string, error) {
		return "", errors.New("model unavailable")
	}}
	p := newTestProcessor(t, newStubStore(), gen)

	result := p.ProcessArticle(context.Background(), testArticle())

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "rewrite")
	assert.Equal(t, "A", result.CleanContent)
	assert.Empty(t, result.RewrittenContent)
	assert.Empty(t, result.TranslatedContent)
}

func TestProcessArticleContentTranslationFailureKeepsPartials(t *testing.T) {
	gen := &stubGenerator{fn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "English article:") {
			return "", errors.New("quota exceeded")
		}
		return answerByPrompt(prompt)
	}}
	p := newTestProcessor(t, newStubStore(), gen)

	result := p.ProcessArticle(context.Background(), testArticle())

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "translate_content")
	assert.Equal(t, "A", result.CleanContent)
	assert.Equal(t, "rewritten body", result.RewrittenContent)
	assert.Equal(t, "заголовок", result.TranslatedTitle)
	assert.Equal(t, "описание", result.TranslatedDescription)
}

func TestProcessArticleTitleTranslationIsBestEffort(t *testing.T) {
	gen := &stubGenerator{fn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "English title:") {
			return "", errors.New("transient glitch")
		}
		return answerByPrompt(prompt)
	}}
	p := newTestProcessor(t, newStubStore(), gen)

	result := p.ProcessArticle(context.Background(), testArticle())

	assert.True(t, result.Success, "a title failure does not fail the pipeline")
	assert.Empty(t, result.TranslatedTitle)
	assert.Equal(t, "переведённый текст", result.TranslatedContent)
}

func TestRunPersistsPartialResults(t *testing.T) {
	article := testArticle()
	store := newStubStore(article)
	gen := &stubGenerator{fn: func(prompt string) (string, error) {
		return "", errors.New("model down")
	}}
	p := newTestProcessor(t, store, gen)

	stats, err := p.Run(context.Background(), 10, 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, ProcessStats{Processed: 1, Succeeded: 0, Failed: 1}, stats)
	saved, ok := store.updates[article.ID]
	require.True(t, ok, "partial result is persisted despite the failure")
	assert.Equal(t, "A", saved.CleanContent)
	assert.False(t, saved.Success)
}

func TestRunDryRunSkipsPersistence(t *testing.T) {
	article := testArticle()
	store := newStubStore(article)
	p := newTestProcessor(t, store, &stubGenerator{fn: answerByPrompt})
	p.DryRun = true

	stats, err := p.Run(context.Background(), 10, 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Succeeded)
	assert.Empty(t, store.updates)
}

func TestRunHonorsLimit(t *testing.T) {
	store := newStubStore(testArticle(), testArticle(), testArticle())
	p := newTestProcessor(t, store, &stubGenerator{fn: answerByPrompt})

	stats, err := p.Run(context.Background(), 2, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
}
