package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	readability "github.com/go-shiori/go-readability"

	"NewsRelay/internal/ports"
)

// ReadabilityExtractor pulls the main article body out of an arbitrary page
// using generic boilerplate-removal heuristics, without source-specific
// selectors.
type ReadabilityExtractor struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.ContentExtractor = (*ReadabilityExtractor)(nil)

// NewReadabilityExtractor wires an HTTP client; a nil client gets a sane
// timeout.
func NewReadabilityExtractor(client *http.Client, logger *slog.Logger) *ReadabilityExtractor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ReadabilityExtractor{client: client, logger: logger}
}

// FetchFullContent downloads the page and extracts its readable text. Every
// failure is soft: the empty string tells the caller "no improvement
// available" and prior content is kept.
func (e *ReadabilityExtractor) FetchFullContent(ctx context.Context, pageURL string) string {
	text, err := e.extract(ctx, pageURL)
	if err != nil {
		e.logger.Warn("full content extraction failed", "url", pageURL, "error", err)
		return ""
	}

	if text == "" {
		e.logger.Warn("no text extracted", "url", pageURL)
	} else {
		e.logger.Debug("full content extracted", "url", pageURL, "chars", len(text))
	}
	return text
}

func (e *ReadabilityExtractor) extract(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsRelay/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}

	return article.TextContent, nil
}
