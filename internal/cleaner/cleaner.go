package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// CleanHTML strips markup down to plain text: script and style subtrees and
// comment nodes are removed, remaining text nodes are joined with newlines,
// and blank lines are dropped. Empty input yields an empty string, and
// already-clean text passes through unchanged. HTML entities are decoded, so
// text that spelled out markup as entities comes back as literal markup; a
// second pass would then strip it. Plain prose without entities is a fixed
// point.
func CleanHTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}

	doc.Find("script, style").Remove()

	var lines []string
	for _, root := range doc.Nodes {
		collectText(root, &lines)
	}

	var kept []string
	for _, line := range lines {
		for _, part := range strings.Split(line, "\n") {
			part = strings.TrimSpace(part)
			if part != "" {
				kept = append(kept, part)
			}
		}
	}

	return strings.Join(kept, "\n")
}

func collectText(n *html.Node, lines *[]string) {
	switch n.Type {
	case html.CommentNode:
		return
	case html.TextNode:
		*lines = append(*lines, n.Data)
		return
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, lines)
	}
}
