package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicateURL is returned by stores when an insert hits the unique index
// on url. Callers classify it as a skip, not a failure.
var ErrDuplicateURL = errors.New("article url already exists")

// Article is the canonical record every parser produces and storage persists.
// URL is the deduplication key.
type Article struct {
	ID          uuid.UUID
	Title       string
	URL         string
	PublishedAt *time.Time
	Source      string
	Author      string
	Description string
	Content     string
	Language    string
	Translated  bool
	Published   bool
	Cleaned     bool
	CreatedAt   time.Time
}

// Valid reports whether the record carries the required fields. Invalid
// records are dropped before they reach storage.
func (a Article) Valid() bool {
	return a.URL != "" && a.Title != ""
}

// DefaultLanguage is assumed for every ingested article until translation.
const DefaultLanguage = "en"

// ParserType selects the concrete parser strategy for a source.
type ParserType string

const (
	ParserRSS  ParserType = "rss"
	ParserHTML ParserType = "html"
)

// Selector keys an HTML source config must always define.
const (
	SelectorListItem = "list_item"
	SelectorURL      = "url"
	SelectorTitle    = "title"
)

// Source describes one configured article origin. The ingestion core reads
// these and only ever writes back LastFetchAt.
type Source struct {
	ID          uuid.UUID
	Name        string
	URL         string
	RSSURL      string
	ParserType  ParserType
	Selectors   map[string]string
	Active      bool
	LastFetchAt *time.Time
}
