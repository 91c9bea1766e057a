package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer = bluemonday.UGCPolicy()
	stripper  = bluemonday.StrictPolicy()
)

// Sanitize cleans rich text HTML to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// StripTags removes all markup, for single line fields like titles and names.
// The result is plain text, so entities bluemonday escapes are decoded again.
func StripTags(input string) string {
	return strings.TrimSpace(html.UnescapeString(stripper.Sanitize(input)))
}
