package lm

import (
	"sort"
	"strings"

	"github.com/dativebase/old/pkg/domain"
)

// StartSymbol and EndSymbol bracket every training/scoring sequence,
// matching the sentinels MITLM's estimate-ngram expects.
const (
	StartSymbol = "<s>"
	EndSymbol   = "</s>"
)

// tokenize renders one form's morpheme sequence as LM tokens: category
// labels when categorial is true, else rare-delimited form⦀gloss pairs
// (the same convention pkg/morphology uses for its upper/analysis
// side), so an LM trained non-categorially scores the same strings a
// Parser Orchestrator's apply-up candidates use.
func tokenize(f *domain.Form, categorial bool, delimiters []string) []string {
	if categorial {
		return domain.CategorySequence(f.BreakGlossCategory, delimiters)
	}
	breakParts := domain.SplitMorphemes(f.MorphemeBreak, delimiters)
	glossParts := domain.SplitMorphemes(f.MorphemeGloss, delimiters)
	n := len(breakParts)
	if len(glossParts) < n {
		n = len(glossParts)
	}
	tokens := make([]string, n)
	for i := 0; i < n; i++ {
		tokens[i] = breakParts[i] + domain.RareDelimiter + glossParts[i]
	}
	return tokens
}

// restrictToVocabulary maps any token not present in vocabulary to
// domain.UnknownCategory, used when a vocabulary morphology constrains
// the LM's token inventory to morphemes that morphology actually
// recognizes.
func restrictToVocabulary(tokens []string, vocabulary map[string]bool) []string {
	if vocabulary == nil {
		return tokens
	}
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if vocabulary[tok] {
			out[i] = tok
		} else {
			out[i] = domain.UnknownCategory
		}
	}
	return out
}

// buildLines renders one bracketed, space-joined training line per
// form.
func buildLines(forms []*domain.Form, categorial bool, delimiters []string, vocabulary map[string]bool) []string {
	lines := make([]string, 0, len(forms))
	for _, f := range forms {
		tokens := restrictToVocabulary(tokenize(f, categorial, delimiters), vocabulary)
		if len(tokens) == 0 {
			continue
		}
		lines = append(lines, StartSymbol+" "+strings.Join(tokens, " ")+" "+EndSymbol)
	}
	return lines
}

// buildVocabulary returns the sorted, deduplicated token inventory
// across lines, excluding the start/end sentinels (estimate-ngram
// treats those specially and does not expect them in the vocabulary
// file).
func buildVocabulary(lines []string) []string {
	seen := make(map[string]bool)
	for _, line := range lines {
		for _, tok := range strings.Fields(line) {
			if tok == StartSymbol || tok == EndSymbol {
				continue
			}
			seen[tok] = true
		}
	}
	vocab := make([]string, 0, len(seen))
	for tok := range seen {
		vocab = append(vocab, tok)
	}
	sort.Strings(vocab)
	return vocab
}

// vocabularyFromMorphology builds the allowed-token set from a
// vocabulary morphology's lexicon corpus forms, in the same
// categorial/morpheme-pair shape as tokenize above.
func vocabularyFromMorphology(forms []*domain.Form, categorial bool, delimiters []string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range forms {
		for _, tok := range tokenize(f, categorial, delimiters) {
			set[tok] = true
		}
	}
	return set
}
