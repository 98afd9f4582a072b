package archive

import (
	"strings"
)

// maxKeywordLen bounds the keyword-derived path segment.
const maxKeywordLen = 50

// unsafeRunes are characters stripped from keyword-derived path segments.
const unsafeRunes = `/\:*?"<>|`

// SanitizeKeyword strips filesystem-unsafe characters from a keyword and
// bounds its length. Two keywords sanitizing to the same string may collide;
// the session timestamp disambiguates the resulting directories.
func SanitizeKeyword(keyword string) string {
	var b strings.Builder
	for _, r := range keyword {
		switch {
		case strings.ContainsRune(unsafeRunes, r):
			// dropped
		case r == ' ' || r == '\t':
			b.WriteRune('_')
		case r < 0x20:
			// control characters dropped
		default:
			b.WriteRune(r)
		}
	}

	out := b.String()
	if out == "" {
		out = "unnamed"
	}

	runes := []rune(out)
	if len(runes) > maxKeywordLen {
		out = string(runes[:maxKeywordLen])
	}

	return out
}
