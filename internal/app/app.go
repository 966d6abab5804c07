package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/infrastructure/extract"
	"NewsRelay/internal/infrastructure/llm"
	"NewsRelay/internal/infrastructure/parser"
	"NewsRelay/internal/infrastructure/storage"
	"NewsRelay/internal/logging"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/retry"
	"NewsRelay/internal/usecase"
)

// Application wires configs to the ingestion and enrichment use cases.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	db        *sql.DB
	gemini    *llm.GeminiClient
	ingestor  *usecase.Ingestor
	processor *usecase.Processor
}

// New builds a runnable application instance. Callers own Close.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect storage: %w", err)
	}

	sources := storage.NewSources(db)
	articles := storage.NewArticles(db)

	extractor := extract.NewReadabilityExtractor(
		&http.Client{Timeout: 30 * time.Second},
		baseLogger.With("component", "extractor"),
	)

	registry := parser.NewRegistry()
	registry.Register(domain.ParserRSS, func(src domain.Source) (ports.ArticleParser, error) {
		return parser.NewFeedParser(src, extractor, !cfg.Ingest.SkipFullContent,
			baseLogger.With("component", "parser.rss", "source", src.Name))
	})
	registry.Register(domain.ParserHTML, func(src domain.Source) (ports.ArticleParser, error) {
		return parser.NewSelectorParser(src, nil,
			baseLogger.With("component", "parser.html", "source", src.Name))
	})

	gemini, err := llm.NewGeminiClient(ctx, cfg.Gemini)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init generative client: %w", err)
	}

	retryLogger := baseLogger.With("component", "retry")
	processor := usecase.NewProcessor(usecase.ProcessorDeps{
		Store:         articles,
		Generator:     gemini,
		ContentPolicy: retry.New(cfg.Process.ContentRetry, llm.IsRateLimit, retryLogger),
		ShortPolicy:   retry.New(cfg.Process.ShortRetry, llm.IsRateLimit, retryLogger),
		Logger:        baseLogger.With("component", "processor"),
	})
	processor.Delay = cfg.Process.ArticleDelay()

	ingestor := usecase.NewIngestor(usecase.IngestorDeps{
		Sources:   sources,
		Articles:  articles,
		Registry:  registry,
		Extractor: extractor,
		Logger:    baseLogger.With("component", "ingestor"),
	}, cfg.Ingest)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		db:        db,
		gemini:    gemini,
		ingestor:  ingestor,
		processor: processor,
	}, nil
}

// InitSchema creates missing tables so a fresh database is usable.
func (a *Application) InitSchema(ctx context.Context) error {
	return storage.EnsureSchema(ctx, a.db)
}

// RunIngest executes one ingestion pass over all active sources.
func (a *Application) RunIngest(ctx context.Context) error {
	stats, err := a.ingestor.Run(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("ingestion finished",
		"sources", stats.Sources,
		"processed", stats.Processed,
		"found", stats.Found,
		"added", stats.Added,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
	)
	return nil
}

// RunProcess enriches recently ingested articles.
func (a *Application) RunProcess(ctx context.Context, limit int, dryRun bool) error {
	if limit <= 0 {
		limit = a.cfg.Process.Limit
	}
	a.processor.DryRun = dryRun

	maxAge := time.Duration(a.cfg.Process.MaxAgeHours) * time.Hour
	stats, err := a.processor.Run(ctx, limit, maxAge)
	if err != nil {
		return err
	}
	a.logger.Info("processing finished",
		"processed", stats.Processed,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	return nil
}

// RunDaily chains ingestion and processing the way the scheduled job does.
func (a *Application) RunDaily(ctx context.Context) error {
	if err := a.RunIngest(ctx); err != nil {
		return err
	}
	return a.RunProcess(ctx, 0, false)
}

// Close releases the database and generative-service connections.
func (a *Application) Close() error {
	var firstErr error
	if a.gemini != nil {
		if err := a.gemini.Close(); err != nil {
			firstErr = err
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
