// Package textnorm canonicalizes Spanish chat text before pattern matching.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var numberWordRE = regexp.MustCompile(`\b(una|uno|un|dos|tres|cuatro|cinco|seis|siete|ocho|nueve|diez)\b`)

var numberWords = map[string]string{
	"un":     "1",
	"una":    "1",
	"uno":    "1",
	"dos":    "2",
	"tres":   "3",
	"cuatro": "4",
	"cinco":  "5",
	"seis":   "6",
	"siete":  "7",
	"ocho":   "8",
	"nueve":  "9",
	"diez":   "10",
}

// synonyms are applied in order. Replacements never match an earlier or
// later pattern, which keeps Normalize idempotent.
var synonyms = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`\bhabitacion(?:es)?\b`), "hab"},
	{regexp.MustCompile(`\bpiezas?\b`), "hab"},
	{regexp.MustCompile(`\bmatrimonial(?:es)?\b`), "doble"},
	{regexp.MustCompile(`\b(?:simples?|sencillas?)\b`), "single"},
	{regexp.MustCompile(`\bestandar(?:es)?\b`), "standard"},
}

// Fold lowercases s and strips diacritics ("Habitación" -> "habitacion").
func Fold(s string) string {
	lower := strings.ToLower(s)
	// Chained transformers keep state, so each call builds its own.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, lower)
	if err != nil {
		return lower
	}
	return folded
}

// Normalize folds s, spells out number words as digits and maps room
// vocabulary onto the canonical keywords used by the extractors.
func Normalize(s string) string {
	text := Fold(s)
	text = numberWordRE.ReplaceAllStringFunc(text, func(word string) string {
		return numberWords[word]
	})
	for _, syn := range synonyms {
		text = syn.re.ReplaceAllString(text, syn.replacement)
	}
	return text
}
