package ingest

import (
	"regexp"
	"strings"
)

var (
	urlPattern         = regexp.MustCompile(`http[s]?://\S+`)
	htmlTagPattern     = regexp.MustCompile(`<[^>]+>`)
	specialCharPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// Clean normalizes raw document text for indexing: lowercase, URLs and HTML
// tags removed, special characters stripped except sentence punctuation, and
// whitespace collapsed.
func Clean(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = specialCharPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
