package parser

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// normalizeDate parses a date string in whatever format the source uses.
// Unparseable dates yield nil, never a failure.
func normalizeDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parsed, err := dateparse.ParseAny(raw)
	if err != nil {
		return nil
	}
	return &parsed
}

// collapseWhitespace folds runs of whitespace into single spaces and trims
// the ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
