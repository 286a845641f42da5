package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText strips every HTML tag from user supplied plain text such as
// habit titles and usernames, then trims and truncates it to maxRunes.
func SanitizeText(input string, maxRunes int) string {
	s := strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(input)))
	if maxRunes > 0 {
		if rs := []rune(s); len(rs) > maxRunes {
			s = strings.TrimSpace(string(rs[:maxRunes]))
		}
	}
	return s
}
