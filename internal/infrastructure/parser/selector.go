package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

const userAgent = "NewsRelay/1.0"

// SelectorParser scrapes a source's listing page with configured CSS
// selectors.
type SelectorParser struct {
	src    domain.Source
	client *http.Client
	logger *slog.Logger
}

var _ ports.ArticleParser = (*SelectorParser)(nil)

// NewSelectorParser validates the selector map and wires an HTTP client.
// Missing required selectors are a configuration error.
func NewSelectorParser(src domain.Source, client *http.Client, logger *slog.Logger) (*SelectorParser, error) {
	if len(src.Selectors) == 0 {
		return nil, fmt.Errorf("source %s has no selectors", src.Name)
	}

	for _, key := range []string{domain.SelectorListItem, domain.SelectorURL, domain.SelectorTitle} {
		if src.Selectors[key] == "" {
			return nil, fmt.Errorf("source %s is missing required selector %q", src.Name, key)
		}
	}

	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	return &SelectorParser{src: src, client: client, logger: logger}, nil
}

// FetchArticles loads the listing page and extracts one record per list_item
// node. Nodes without a resolvable URL or a title are skipped with a warning.
func (p *SelectorParser) FetchArticles(ctx context.Context) ([]domain.Article, error) {
	p.logger.Info("fetching page", "source", p.src.Name, "url", p.src.URL)

	doc, err := p.fetchDocument(ctx, p.src.URL)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", p.src.Name, err)
	}

	items := doc.Find(p.src.Selectors[domain.SelectorListItem])
	p.logger.Info("list items found", "source", p.src.Name, "count", items.Length())

	var articles []domain.Article
	items.Each(func(_ int, item *goquery.Selection) {
		article, ok := p.parseItem(item)
		if !ok {
			return
		}

		if p.src.Selectors["content"] != "" {
			p.fetchArticleContent(ctx, &article)
		}

		articles = append(articles, article)
	})

	p.logger.Info("page parsed", "source", p.src.Name, "articles", len(articles))
	return articles, nil
}

func (p *SelectorParser) parseItem(item *goquery.Selection) (domain.Article, bool) {
	link := p.resolveURL(item.Find(p.src.Selectors[domain.SelectorURL]).First())
	if link == "" {
		p.logger.Warn("skipping item without url", "source", p.src.Name)
		return domain.Article{}, false
	}

	title := collapseWhitespace(item.Find(p.src.Selectors[domain.SelectorTitle]).First().Text())
	if title == "" {
		p.logger.Warn("skipping item without title", "source", p.src.Name, "url", link)
		return domain.Article{}, false
	}

	var description string
	if sel := p.src.Selectors["description"]; sel != "" {
		description = collapseWhitespace(item.Find(sel).First().Text())
	}

	var publishedAt *time.Time
	if sel := p.src.Selectors["date"]; sel != "" {
		raw := item.Find(sel).First().Text()
		if publishedAt = normalizeDate(raw); publishedAt == nil && raw != "" {
			p.logger.Warn("unparseable date", "source", p.src.Name, "url", link, "date", raw)
		}
	}

	var author string
	if sel := p.src.Selectors["author"]; sel != "" {
		author = collapseWhitespace(item.Find(sel).First().Text())
	}

	return domain.Article{
		Title:       title,
		URL:         link,
		PublishedAt: publishedAt,
		Source:      p.src.Name,
		Author:      author,
		Description: description,
		Language:    domain.DefaultLanguage,
		CreatedAt:   time.Now(),
	}, true
}

// fetchArticleContent loads the article's own page and keeps the content
// node's HTML. Any failure leaves the content empty; the error never reaches
// the caller.
func (p *SelectorParser) fetchArticleContent(ctx context.Context, article *domain.Article) {
	doc, err := p.fetchDocument(ctx, article.URL)
	if err != nil {
		p.logger.Warn("content fetch failed", "source", p.src.Name, "url", article.URL, "error", err)
		return
	}

	node := doc.Find(p.src.Selectors["content"]).First()
	if node.Length() == 0 {
		return
	}

	if rendered, err := goquery.OuterHtml(node); err == nil {
		article.Content = rendered
	}

	if sel := p.src.Selectors["meta_description"]; sel != "" && article.Description == "" {
		article.Description = collapseWhitespace(doc.Find(sel).First().Text())
	}
}

// resolveURL reads the href and resolves it against the source's base URL.
func (p *SelectorParser) resolveURL(link *goquery.Selection) string {
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if parsed.IsAbs() {
		return href
	}

	base, err := url.Parse(p.src.URL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(parsed).String()
}

func (p *SelectorParser) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}
