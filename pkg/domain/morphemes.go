package domain

import "strings"

// RareDelimiter is U+2980 (TRIPLE VERTICAL BAR DELIMITER), used to
// separate morpheme form from gloss in lexica.
const RareDelimiter = "⦀"

// UnknownCategory tags an unanalyzed morpheme when a Morphology's
// IncludeUnknowns flag is set.
const UnknownCategory = "?"

// DefaultMorphemeDelimiters is the global delimiter set used to split
// MorphemeBreak/MorphemeGloss/BreakGlossCategory strings into
// per-morpheme segments.
var DefaultMorphemeDelimiters = []string{"-", "="}

// SplitMorphemes splits s on any of the given delimiters and returns the
// segments only; the delimiters themselves are dropped.
func SplitMorphemes(s string, delimiters []string) []string {
	if len(delimiters) == 0 {
		delimiters = DefaultMorphemeDelimiters
	}
	return strings.FieldsFunc(s, func(r rune) bool {
		for _, d := range delimiters {
			if len(d) == 1 && rune(d[0]) == r {
				return true
			}
		}
		return false
	})
}

// CategorySequence extracts the category-sequence tuple from a
// break_gloss_category string, e.g. "chien|chien|N-s|PL|Num" split on
// the glossing delimiter "|" then the morpheme delimiter yields
// ["N","Num"].
func CategorySequence(breakGlossCategory string, delimiters []string) []string {
	morphemes := SplitMorphemes(breakGlossCategory, delimiters)
	categories := make([]string, 0, len(morphemes))
	for _, m := range morphemes {
		parts := strings.Split(m, "|")
		if len(parts) == 3 {
			categories = append(categories, parts[2])
		} else {
			categories = append(categories, m)
		}
	}
	return categories
}
