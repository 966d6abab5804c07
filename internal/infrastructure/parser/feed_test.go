package parser

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRelay/internal/domain"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example</title>
  <item>
    <title>First   article</title>
    <link>https://example.com/a/1</link>
    <description>Summary one</description>
    <pubDate>Mon, 02 Jun 2025 10:00:00 GMT</pubDate>
    <author>alice@example.com (Alice)</author>
  </item>
  <item>
    <title>No link here</title>
    <description>Orphaned entry</description>
  </item>
  <item>
    <title>Second article</title>
    <link>https://example.com/a/2</link>
    <description>Summary two</description>
  </item>
</channel>
</rss>`

type staticExtractor struct {
	content string
	calls   int
}

func (s *staticExtractor) FetchFullContent(ctx context.Context, url string) string {
	s.calls++
	return s.content
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewFeedParserRequiresRSSURL(t *testing.T) {
	_, err := NewFeedParser(domain.Source{Name: "empty"}, nil, false, discardLogger())
	require.Error(t, err)
}

func TestFeedParserSkipsEntriesWithoutLink(t *testing.T) {
	srv := feedServer(t, testFeed)

	src := domain.Source{Name: "example", RSSURL: srv.URL, ParserType: domain.ParserRSS}
	p, err := NewFeedParser(src, nil, false, discardLogger())
	require.NoError(t, err)

	articles, err := p.FetchArticles(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 2)

	first := articles[0]
	assert.Equal(t, "First article", first.Title)
	assert.Equal(t, "https://example.com/a/1", first.URL)
	assert.Equal(t, "example", first.Source)
	assert.Equal(t, "Summary one", first.Description)
	assert.Equal(t, domain.DefaultLanguage, first.Language)
	require.NotNil(t, first.PublishedAt)
	assert.Equal(t, time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC), first.PublishedAt.UTC())

	second := articles[1]
	assert.Equal(t, "Second article", second.Title)
	assert.Nil(t, second.PublishedAt)
	assert.Equal(t, "Summary two", second.Content, "content falls back to the description")
}

func TestFeedParserBackfillsFullContent(t *testing.T) {
	srv := feedServer(t, testFeed)

	src := domain.Source{Name: "example", RSSURL: srv.URL, ParserType: domain.ParserRSS}
	extractor := &staticExtractor{content: "full body text"}
	p, err := NewFeedParser(src, extractor, true, discardLogger())
	require.NoError(t, err)
	p.sleep = func(time.Duration) {}

	articles, err := p.FetchArticles(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, 2, extractor.calls)
	for _, article := range articles {
		assert.Equal(t, "full body text", article.Content)
	}
}

func TestFeedParserKeepsFeedContentWhenExtractionEmpty(t *testing.T) {
	srv := feedServer(t, testFeed)

	src := domain.Source{Name: "example", RSSURL: srv.URL}
	p, err := NewFeedParser(src, &staticExtractor{}, true, discardLogger())
	require.NoError(t, err)
	p.sleep = func(time.Duration) {}

	articles, err := p.FetchArticles(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "Summary one", articles[0].Content)
}

func TestFeedParserPropagatesFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	p, err := NewFeedParser(domain.Source{Name: "broken", RSSURL: srv.URL}, nil, false, discardLogger())
	require.NoError(t, err)

	_, err = p.FetchArticles(context.Background())
	require.Error(t, err)
}
