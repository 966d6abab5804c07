package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

const uniqueViolation = "23505"

// descriptionLimit caps the clean-content snippet stored as the description.
const descriptionLimit = 500

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Articles persists canonical records in the content_items table, which
// carries a unique index on url.
type Articles struct {
	db *sql.DB
}

var _ ports.ArticleStore = (*Articles)(nil)

func NewArticles(db *sql.DB) *Articles {
	return &Articles{db: db}
}

// Exists reports whether an article with the given URL is already stored.
func (a *Articles) Exists(ctx context.Context, url string) (bool, error) {
	query, args, err := builder.Select("1").
		From("content_items").
		Where(sq.Eq{"url": url}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = a.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query article by url: %w", err)
	}
	return true, nil
}

// Insert stores a new article. A unique violation on url maps to
// domain.ErrDuplicateURL so concurrent runs racing the exists check count the
// row as skipped.
func (a *Articles) Insert(ctx context.Context, article domain.Article) error {
	query, args, err := builder.Insert("content_items").
		Columns("title", "url", "published_at", "source", "author", "description",
			"content", "language", "is_translated", "is_published", "is_cleaned", "created_at").
		Values(article.Title, article.URL, article.PublishedAt, article.Source,
			article.Author, article.Description, article.Content, article.Language,
			article.Translated, article.Published, article.Cleaned, article.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicateURL
		}
		return fmt.Errorf("insert article: %w", err)
	}

	return nil
}

// Untranslated returns recent articles with content that still await
// translation, newest first.
func (a *Articles) Untranslated(ctx context.Context, limit int, since time.Time) ([]domain.Article, error) {
	query, args, err := builder.Select("id", "title", "url", "published_at", "source", "author",
		"description", "content", "language", "is_translated", "is_published", "is_cleaned", "created_at").
		From("content_items").
		Where(sq.Eq{"is_translated": false}).
		Where(sq.NotEq{"content": ""}).
		Where(sq.GtOrEq{"created_at": since}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build untranslated query: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query untranslated: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

// UpdateProcessed writes the enrichment result back as a partial update.
// Only fields a stage actually produced are touched, so failed runs persist
// whatever was salvaged; is_translated follows the pipeline's success flag.
func (a *Articles) UpdateProcessed(ctx context.Context, id uuid.UUID, result domain.ProcessingResult) error {
	update := builder.Update("content_items").
		Set("updated_at", time.Now().UTC()).
		Set("is_translated", result.Success).
		Where(sq.Eq{"id": id})

	if result.CleanContent != "" {
		update = update.
			Set("description", truncate(result.CleanContent, descriptionLimit)).
			Set("is_cleaned", true)
	}
	if result.TranslatedTitle != "" {
		update = update.Set("title_ru", result.TranslatedTitle)
	}
	if result.TranslatedDescription != "" {
		update = update.Set("description_ru", result.TranslatedDescription)
	}
	if result.TranslatedContent != "" {
		update = update.Set("content_ru", result.TranslatedContent)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update article %s: %w", id, err)
	}

	return nil
}

// Sources exposes the source registry stored in the sources table.
type Sources struct {
	db *sql.DB
}

var _ ports.SourceStore = (*Sources)(nil)

func NewSources(db *sql.DB) *Sources {
	return &Sources{db: db}
}

// Active returns every enabled source.
func (s *Sources) Active(ctx context.Context) ([]domain.Source, error) {
	query, args, err := builder.Select("id", "name", "url", "rss_url", "parser_type", "selectors", "active", "last_fetch_at").
		From("sources").
		Where(sq.Eq{"active": true}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sources query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return sources, nil
}

// Get fetches one source by id; a missing row yields (nil, nil).
func (s *Sources) Get(ctx context.Context, id uuid.UUID) (*domain.Source, error) {
	query, args, err := builder.Select("id", "name", "url", "rss_url", "parser_type", "selectors", "active", "last_fetch_at").
		From("sources").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build source query: %w", err)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	source, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &source, nil
}

// Insert registers a new source.
func (s *Sources) Insert(ctx context.Context, source domain.Source) error {
	selectors, err := json.Marshal(source.Selectors)
	if err != nil {
		return fmt.Errorf("marshal selectors: %w", err)
	}

	query, args, err := builder.Insert("sources").
		Columns("name", "url", "rss_url", "parser_type", "selectors", "active").
		Values(source.Name, source.URL, nullable(source.RSSURL), string(source.ParserType), selectors, source.Active).
		ToSql()
	if err != nil {
		return fmt.Errorf("build source insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert source %s: %w", source.Name, err)
	}

	return nil
}

// TouchLastFetch stamps the source after a successful batch.
func (s *Sources) TouchLastFetch(ctx context.Context, id uuid.UUID) error {
	query, args, err := builder.Update("sources").
		Set("last_fetch_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build last fetch update: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update last_fetch_at for source %s: %w", id, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		article     domain.Article
		publishedAt sql.NullTime
		author      sql.NullString
		description sql.NullString
	)

	err := row.Scan(&article.ID, &article.Title, &article.URL, &publishedAt,
		&article.Source, &author, &description, &article.Content, &article.Language,
		&article.Translated, &article.Published, &article.Cleaned, &article.CreatedAt)
	if err != nil {
		return domain.Article{}, fmt.Errorf("scan article: %w", err)
	}

	if publishedAt.Valid {
		t := publishedAt.Time
		article.PublishedAt = &t
	}
	article.Author = author.String
	article.Description = description.String

	return article, nil
}

func scanSource(row rowScanner) (domain.Source, error) {
	var (
		source      domain.Source
		rssURL      sql.NullString
		parserType  string
		selectors   []byte
		lastFetchAt sql.NullTime
	)

	err := row.Scan(&source.ID, &source.Name, &source.URL, &rssURL,
		&parserType, &selectors, &source.Active, &lastFetchAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Source{}, err
		}
		return domain.Source{}, fmt.Errorf("scan source: %w", err)
	}

	source.RSSURL = rssURL.String
	source.ParserType = domain.ParserType(parserType)
	if lastFetchAt.Valid {
		t := lastFetchAt.Time
		source.LastFetchAt = &t
	}

	if len(selectors) > 0 {
		if err := json.Unmarshal(selectors, &source.Selectors); err != nil {
			return domain.Source{}, fmt.Errorf("decode selectors for source %s: %w", source.Name, err)
		}
	}

	return source, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
