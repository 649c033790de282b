package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold strips combining diacritics and lower-cases the input, so that
// "Vývojář" and "vyvojar" compare equal.
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// Sanitize keeps letters, digits, spaces and hyphens and collapses runs of
// whitespace. Everything else in a raw query is noise for substring search.
func Sanitize(s string) string {
	b := strings.Builder{}
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsSpace(r) {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens splits a query into folded whitespace-separated tokens.
func Tokens(s string) []string {
	return strings.Fields(Fold(Sanitize(s)))
}

// ContainsWholeToken reports whether token occurs in haystack bounded by
// non-letter/digit runes on both sides. Plain substring containment lets a
// two-letter query match inside unrelated longer words; this does not.
func ContainsWholeToken(haystack, token string) bool {
	h := Fold(haystack)
	t := Fold(strings.TrimSpace(token))
	if t == "" {
		return false
	}

	hr := []rune(h)
	tr := []rune(t)
	for i := 0; i+len(tr) <= len(hr); i++ {
		if string(hr[i:i+len(tr)]) != t {
			continue
		}
		if i > 0 && isWordRune(hr[i-1]) {
			continue
		}
		end := i + len(tr)
		if end < len(hr) && isWordRune(hr[end]) {
			continue
		}
		return true
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
