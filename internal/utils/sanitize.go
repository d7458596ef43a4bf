package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sanitize trims s, drops control and format characters, collapses runs of
// whitespace and caps the result at maxRunes.
func Sanitize(s string, maxRunes int) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == utf8.RuneError:
			continue
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}

	out := b.String()
	if maxRunes > 0 && utf8.RuneCountInString(out) > maxRunes {
		out = string([]rune(out)[:maxRunes])
	}
	return out
}

// SanitizeOrNil sanitizes s and returns nil if nothing is left.
func SanitizeOrNil(s string, maxRunes int) *string {
	return StringOrNil(Sanitize(s, maxRunes))
}
