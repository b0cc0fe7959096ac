package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.StrictPolicy()

const maxAnswerLength = 500

// SanitizeAnswer normalizes a free-form answer before it is shown back or
// sent to the judge: trims whitespace, drops null bytes and HTML, and caps
// the length.
func SanitizeAnswer(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	input = htmlPolicy.Sanitize(input)

	if len(input) > maxAnswerLength {
		input = input[:maxAnswerLength]
	}

	return strings.TrimSpace(input)
}

// SanitizeDisplayName strips HTML from a user-supplied name so it is safe to
// interpolate into HTML-formatted announcements.
func SanitizeDisplayName(input string) string {
	name := htmlPolicy.Sanitize(strings.TrimSpace(input))
	if name == "" {
		return "player"
	}
	return name
}
