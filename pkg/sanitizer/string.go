// Package sanitizer normalizes free-text fields before they are persisted.
// Snapshot names and labels arrive from client payloads and may carry control
// characters or stray whitespace.
package sanitizer

import (
	"strings"
	"unicode"
)

const maxFieldLength = 200

// CleanText strips control characters, collapses runs of whitespace and trims
// the result. Overly long values are cut at maxFieldLength.
func CleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := false
	for _, r := range s {
		// Tabs and newlines are control characters too; treat them as
		// whitespace before dropping controls.
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}

	out := strings.TrimSpace(b.String())
	if len(out) > maxFieldLength {
		out = out[:maxFieldLength]
	}
	return out
}

// CleanEmail lowercases and trims an email address. Validity is the
// validator's job, not ours.
func CleanEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
