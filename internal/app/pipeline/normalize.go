package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ł has no decomposition, NFD leaves it alone.
var strokeReplacer = strings.NewReplacer("ł", "l", "Ł", "L")

// normalizeDiacritics removes combining marks: Kędzierzyn-Koźle → Kedzierzyn-Kozle
func normalizeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, strokeReplacer.Replace(s))
	return result
}

// Slugify builds the URL slug stored next to every name.
func Slugify(name string) string {
	s := strings.ToLower(normalizeDiacritics(name))

	var b strings.Builder
	b.Grow(len(s))
	dash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
