package markdown

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// PlainText strips tags from rendered HTML and collapses whitespace. The
// result is the text the search stages match against.
func PlainText(rendered []byte) string {
	stripped := tagPattern.ReplaceAllString(string(rendered), "")
	stripped = html.UnescapeString(stripped)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(stripped, " "))
}
