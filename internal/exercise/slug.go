package exercise

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTerm lowercases a Spanish term and strips accents, producing the
// canonical form used for lookup tables and option ids. A fresh
// transformer chain per call; the chain is stateful and callers run
// concurrently across learners.
func foldTerm(term string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(chain, term)
	if err != nil {
		folded = term
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// slugTerm turns a term into an option id: folded, spaces to hyphens.
func slugTerm(term string) string {
	return strings.ReplaceAll(foldTerm(term), " ", "-")
}
