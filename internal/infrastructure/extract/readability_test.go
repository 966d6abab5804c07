package extract

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Quantum breakthrough announced</title></head>
<body>
  <nav>Home | About | Contact</nav>
  <article>
    <h1>Quantum breakthrough announced</h1>
    <p>Researchers described a new error-correction scheme on Thursday,
    calling it a significant step toward fault-tolerant machines. The team
    spent three years refining the approach and published the full dataset
    alongside the paper.</p>
    <p>Independent reviewers said the results appear reproducible and that
    the hardware requirements are within reach of existing labs.</p>
  </article>
  <footer>Copyright notice</footer>
</body>
</html>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchFullContentExtractsArticleText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage))
	}))
	t.Cleanup(srv.Close)

	e := NewReadabilityExtractor(srv.Client(), discardLogger())
	text := e.FetchFullContent(context.Background(), srv.URL+"/article")

	assert.Contains(t, text, "error-correction scheme")
	assert.Contains(t, text, "reproducible")
}

func TestFetchFullContentReturnsEmptyOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	e := NewReadabilityExtractor(srv.Client(), discardLogger())
	assert.Empty(t, e.FetchFullContent(context.Background(), srv.URL))
}

func TestFetchFullContentReturnsEmptyOnUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	e := NewReadabilityExtractor(nil, discardLogger())
	assert.Empty(t, e.FetchFullContent(context.Background(), srv.URL))
}

func TestFetchFullContentReturnsEmptyOnInvalidURL(t *testing.T) {
	e := NewReadabilityExtractor(nil, discardLogger())
	assert.Empty(t, e.FetchFullContent(context.Background(), "://not-a-url"))
}
