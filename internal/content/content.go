package content

import (
	"bytes"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	policy      = bluemonday.UGCPolicy()
	stripPolicy = bluemonday.StrictPolicy()
)

// Sanitize removes unsafe HTML from the input string using the user generated
// content policy, which keeps safe formatting markup.
// It is applied to message text and names received from the backend before they are cached.
func Sanitize(input string) string {
	return policy.Sanitize(input)
}

// Summary renders markdown text to plain text and truncates it to maxRunes,
// for use as a dialog list preview.
func Summary(text string, maxRunes int) string {
	var buf bytes.Buffer
	plain := text
	if err := goldmark.Convert([]byte(text), &buf); err == nil {
		plain = html.UnescapeString(stripPolicy.Sanitize(buf.String()))
	}
	plain = strings.Join(strings.Fields(plain), " ")

	if maxRunes <= 0 || utf8.RuneCountInString(plain) <= maxRunes {
		return plain
	}
	runes := []rune(plain)
	return strings.TrimSpace(string(runes[:maxRunes])) + "…"
}
