package domain

import (
	"strings"
	"unicode"
)

// NormalizeID strips every whitespace rune and uppercases the rest.
// An empty result is never a valid identifier.
func NormalizeID(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}
