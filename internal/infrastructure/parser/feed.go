package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// interArticleDelay bounds the outbound request rate during full-content
// backfill.
const interArticleDelay = 500 * time.Millisecond

// FeedParser reads a source's RSS or Atom feed. gofeed normalizes both
// formats into one item shape.
type FeedParser struct {
	src       domain.Source
	fp        *gofeed.Parser
	extractor ports.ContentExtractor
	fetchFull bool
	logger    *slog.Logger
	sleep     func(time.Duration)
}

var _ ports.ArticleParser = (*FeedParser)(nil)

// NewFeedParser builds a parser for an RSS source. A missing feed URL is a
// configuration error. When fetchFull is set (the default ingestion mode) the
// parser replaces each entry's content with the extracted full article body.
func NewFeedParser(src domain.Source, extractor ports.ContentExtractor, fetchFull bool, logger *slog.Logger) (*FeedParser, error) {
	if src.RSSURL == "" {
		return nil, fmt.Errorf("source %s has no RSS URL", src.Name)
	}

	return &FeedParser{
		src:       src,
		fp:        gofeed.NewParser(),
		extractor: extractor,
		fetchFull: fetchFull && extractor != nil,
		logger:    logger,
		sleep:     time.Sleep,
	}, nil
}

// FetchArticles parses the feed and converts every usable entry. Entries
// missing a link or a title are skipped with a warning; a single bad entry
// never aborts the batch.
func (p *FeedParser) FetchArticles(ctx context.Context) ([]domain.Article, error) {
	p.logger.Info("fetching feed", "source", p.src.Name, "url", p.src.RSSURL)

	feed, err := p.fp.ParseURLWithContext(p.src.RSSURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", p.src.RSSURL, err)
	}

	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		article, ok := p.parseItem(item)
		if !ok {
			continue
		}

		if p.fetchFull {
			if full := p.extractor.FetchFullContent(ctx, article.URL); full != "" {
				article.Content = full
			}
			p.sleep(interArticleDelay)
		}

		articles = append(articles, article)
	}

	p.logger.Info("feed parsed", "source", p.src.Name, "articles", len(articles))
	return articles, nil
}

func (p *FeedParser) parseItem(item *gofeed.Item) (domain.Article, bool) {
	if item.Link == "" {
		p.logger.Warn("skipping entry without link", "source", p.src.Name)
		return domain.Article{}, false
	}
	if item.Title == "" {
		p.logger.Warn("skipping entry without title", "source", p.src.Name, "url", item.Link)
		return domain.Article{}, false
	}

	var publishedAt *time.Time
	if item.PublishedParsed != nil {
		t := *item.PublishedParsed
		publishedAt = &t
	} else if item.UpdatedParsed != nil {
		t := *item.UpdatedParsed
		publishedAt = &t
	}

	var author string
	if item.Author != nil && item.Author.Name != "" {
		author = item.Author.Name
	} else if len(item.Authors) > 0 && item.Authors[0] != nil {
		author = item.Authors[0].Name
	}

	// Some feeds embed the full body; the rest only carry a summary.
	content := item.Content
	if content == "" {
		content = item.Description
	}

	return domain.Article{
		Title:       collapseWhitespace(item.Title),
		URL:         item.Link,
		PublishedAt: publishedAt,
		Source:      p.src.Name,
		Author:      author,
		Description: collapseWhitespace(item.Description),
		Content:     content,
		Language:    domain.DefaultLanguage,
		CreatedAt:   time.Now(),
	}, true
}
