// Package names provides the canonical form used to compare substance names
// across the catalog, the collaborators and user input.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks builds a fresh diacritic-stripping chain. Transformers keep
// state between calls, so a chain must not be shared across goroutines.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Canonical trims, lower-cases and strips diacritics ("Kétamine " -> "ketamine").
// Inner whitespace runs collapse to a single space.
func Canonical(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if lowered == "" {
		return ""
	}

	folded, _, err := transform.String(stripMarks(), lowered)
	if err != nil {
		folded = lowered
	}

	return strings.Join(strings.Fields(folded), " ")
}

// Equal reports whether two names share the same canonical form.
func Equal(a, b string) bool {
	return Canonical(a) == Canonical(b)
}

// Overlaps reports whether either canonical name contains the other.
// Empty names never overlap.
func Overlaps(stored, query string) bool {
	s, q := Canonical(stored), Canonical(query)
	if s == "" || q == "" {
		return false
	}
	return strings.Contains(s, q) || strings.Contains(q, s)
}
