package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"NewsRelay/internal/domain"
)

// ArticleParser converts one source's raw content into canonical records.
// Implementations skip malformed items instead of failing the batch.
type ArticleParser interface {
	FetchArticles(ctx context.Context) ([]domain.Article, error)
}

// ArticleStore persists canonical records, deduplicated by URL.
type ArticleStore interface {
	Exists(ctx context.Context, url string) (bool, error)
	Insert(ctx context.Context, article domain.Article) error
	Untranslated(ctx context.Context, limit int, since time.Time) ([]domain.Article, error)
	UpdateProcessed(ctx context.Context, id uuid.UUID, result domain.ProcessingResult) error
}

// SourceStore exposes the source registry the ingestion run iterates.
type SourceStore interface {
	Active(ctx context.Context) ([]domain.Source, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Source, error)
	Insert(ctx context.Context, source domain.Source) error
	TouchLastFetch(ctx context.Context, id uuid.UUID) error
}

// TextGenerator is the single synchronous call the pipeline needs from the
// generative service.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ContentExtractor backfills a too-short article body from its own page.
// Failures are soft: implementations return "" and never an error the caller
// must handle.
type ContentExtractor interface {
	FetchFullContent(ctx context.Context, url string) string
}
