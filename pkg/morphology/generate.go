package morphology

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dativebase/old/pkg/domain"
)

// lexiconEntry is one morpheme-form/gloss pair belonging to a category,
// rendered into foma lexica keyed by that category.
type lexiconEntry struct {
	Form  string
	Gloss string
}

// buildLexicon groups the morpheme inventory of a lexicon corpus's
// forms by syntactic category, deduplicating (form, gloss) pairs and
// returning each category's entries sorted for deterministic script
// generation.
func buildLexicon(forms []*domain.Form, delimiters []string) map[string][]lexiconEntry {
	seen := make(map[string]map[lexiconEntry]bool)
	for _, f := range forms {
		breakParts := domain.SplitMorphemes(f.MorphemeBreak, delimiters)
		glossParts := domain.SplitMorphemes(f.MorphemeGloss, delimiters)
		catParts := domain.CategorySequence(f.BreakGlossCategory, delimiters)
		for i, cat := range catParts {
			if i >= len(breakParts) || i >= len(glossParts) || cat == "" {
				continue
			}
			entry := lexiconEntry{Form: breakParts[i], Gloss: glossParts[i]}
			if seen[cat] == nil {
				seen[cat] = make(map[lexiconEntry]bool)
			}
			seen[cat][entry] = true
		}
	}

	lexicon := make(map[string][]lexiconEntry, len(seen))
	for cat, entries := range seen {
		list := make([]lexiconEntry, 0, len(entries))
		for e := range entries {
			list = append(list, e)
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Form != list[j].Form {
				return list[i].Form < list[j].Form
			}
			return list[i].Gloss < list[j].Gloss
		})
		lexicon[cat] = list
	}
	return lexicon
}

// extractRules returns the morphology's category-sequence rules: either
// the explicit, whitespace-normalized `Rules` field split on
// whitespace, or, when RulesCorpusID is set, the set of
// category-sequences observed across rulesCorpusForms. Always returns a
// sorted, deduplicated slice of dash-joined sequences (e.g. "V-Agr").
func extractRules(m *domain.Morphology, rulesCorpusForms []*domain.Form, delimiters []string) []string {
	seen := make(map[string]bool)
	if strings.TrimSpace(m.Rules) != "" {
		for _, r := range strings.Fields(m.Rules) {
			seen[r] = true
		}
	} else {
		for _, f := range rulesCorpusForms {
			seq := domain.CategorySequence(f.BreakGlossCategory, delimiters)
			if len(seq) == 0 {
				continue
			}
			seen[strings.Join(seq, "-")] = true
		}
	}

	rules := make([]string, 0, len(seen))
	for r := range seen {
		rules = append(rules, r)
	}
	sort.Strings(rules)
	return rules
}

// sanitizeIdentifier makes s safe for use as a foma define/LEXICON name.
func sanitizeIdentifier(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// GenerateScript derives a foma script (regex or lexc style, per
// m.ScriptType) from the morphology's rules and lexicon corpus forms.
func GenerateScript(m *domain.Morphology, lexiconForms, rulesCorpusForms []*domain.Form, delimiters []string) (string, error) {
	lexicon := buildLexicon(lexiconForms, delimiters)
	rules := extractRules(m, rulesCorpusForms, delimiters)
	if len(rules) == 0 {
		return "", domain.NewValidationError("rules", "no category-sequence rules could be derived")
	}

	switch m.ScriptType {
	case domain.ScriptTypeLexc:
		return buildLexcScript(m, rules, lexicon), nil
	default:
		return buildRegexScript(m, rules, lexicon), nil
	}
}

// upperLowerTokens renders one lexicon entry's upper (analysis) and
// lower (surface) sides, per the rare-delimiter convention of §4.5:
// the upper side pairs the morpheme form with its gloss via
// domain.RareDelimiter; the lower side is the bare surface form.
// RichUpper/RichLower append a "+category" tag to the respective side.
func upperLowerTokens(m *domain.Morphology, cat string, e lexiconEntry) (upper, lower string) {
	upper = e.Form + domain.RareDelimiter + e.Gloss
	lower = e.Form
	if m.RichUpper {
		upper += "+" + cat
	}
	if m.RichLower {
		lower += "+" + cat
	}
	return upper, lower
}

func buildRegexScript(m *domain.Morphology, rules []string, lexicon map[string][]lexiconEntry) string {
	var b strings.Builder
	b.WriteString("! Generated morphology script (regex style)\n\n")

	categories := make(map[string]bool)
	for _, rule := range rules {
		for _, cat := range strings.Split(rule, "-") {
			categories[cat] = true
		}
	}

	sortedCats := sortedKeys(categories)
	for _, cat := range sortedCats {
		entries := lexicon[cat]
		var alts []string
		for _, e := range entries {
			upper, lower := upperLowerTokens(m, cat, e)
			alts = append(alts, "{"+upper+"}:{"+lower+"}")
		}
		if m.IncludeUnknowns {
			alts = append(alts, "{"+domain.UnknownCategory+"}:{"+domain.UnknownCategory+"}")
		}
		writeDefine(&b, "Cat_"+sanitizeIdentifier(cat), alts)
	}

	var ruleDefs []string
	for _, rule := range rules {
		cats := strings.Split(rule, "-")
		defName := "Rule_" + sanitizeIdentifier(rule)
		var refs []string
		for _, cat := range cats {
			refs = append(refs, "Cat_"+sanitizeIdentifier(cat))
		}
		b.WriteString("define " + defName + " " + strings.Join(refs, " ") + ";\n")
		ruleDefs = append(ruleDefs, defName)
	}

	b.WriteString("\ndefine Morphology " + strings.Join(ruleDefs, " | ") + ";\n")
	return b.String()
}

func writeDefine(b *strings.Builder, name string, alts []string) {
	if len(alts) == 0 {
		alts = []string{"{}:{}"}
	}
	b.WriteString("define " + name + " " + strings.Join(alts, " | ") + ";\n")
}

func buildLexcScript(m *domain.Morphology, rules []string, lexicon map[string][]lexiconEntry) string {
	var b strings.Builder
	b.WriteString("! Generated morphology script (lexc style)\n\n")
	b.WriteString("LEXICON Root\n")

	for k, rule := range rules {
		cats := strings.Split(rule, "-")
		if len(cats) == 0 {
			continue
		}
		b.WriteString("0\tR" + strconv.Itoa(k) + "_" + sanitizeIdentifier(cats[0]) + ";\n")
	}
	b.WriteString("\n")

	for k, rule := range rules {
		cats := strings.Split(rule, "-")
		for i, cat := range cats {
			lexName := "R" + strconv.Itoa(k) + "_" + sanitizeIdentifier(cat)
			continuation := "#"
			if i+1 < len(cats) {
				continuation = "R" + strconv.Itoa(k) + "_" + sanitizeIdentifier(cats[i+1])
			}
			b.WriteString("LEXICON " + lexName + "\n")
			entries := lexicon[cat]
			if m.IncludeUnknowns {
				entries = append(entries, lexiconEntry{Form: domain.UnknownCategory, Gloss: domain.UnknownCategory})
			}
			for _, e := range entries {
				upper, lower := upperLowerTokens(m, cat, e)
				b.WriteString(upper + ":" + lower + "\t" + continuation + ";\n")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

