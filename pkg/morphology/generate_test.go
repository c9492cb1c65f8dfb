package morphology

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dativebase/old/pkg/domain"
)

func form(morphemeBreak, morphemeGloss, breakGlossCategory string) *domain.Form {
	return &domain.Form{
		MorphemeBreak:      morphemeBreak,
		MorphemeGloss:      morphemeGloss,
		BreakGlossCategory: breakGlossCategory,
	}
}

func TestBuildLexiconDeduplicatesAndSortsByCategory(t *testing.T) {
	forms := []*domain.Form{
		form("chien-s", "dog-PL", "N-Num"),
		form("chat-s", "cat-PL", "N-Num"),
		form("chien-s", "dog-PL", "N-Num"), // duplicate
	}
	lexicon := buildLexicon(forms, domain.DefaultMorphemeDelimiters)
	require.Contains(t, lexicon, "N")
	require.Contains(t, lexicon, "Num")
	assert.Equal(t, []lexiconEntry{{Form: "chat", Gloss: "cat"}, {Form: "chien", Gloss: "dog"}}, lexicon["N"])
	assert.Equal(t, []lexiconEntry{{Form: "s", Gloss: "PL"}}, lexicon["Num"])
}

func TestExtractRulesFromExplicitRulesField(t *testing.T) {
	m := &domain.Morphology{Rules: "N-Num  V-Agr"}
	rules := extractRules(m, nil, domain.DefaultMorphemeDelimiters)
	assert.Equal(t, []string{"N-Num", "V-Agr"}, rules)
}

func TestExtractRulesFromRulesCorpus(t *testing.T) {
	m := &domain.Morphology{}
	rulesCorpus := []*domain.Form{
		form("chien-s", "dog-PL", "N-Num"),
		form("mange-ait", "eat-PAST", "V-Agr"),
		form("chat-s", "cat-PL", "N-Num"), // duplicate rule
	}
	rules := extractRules(m, rulesCorpus, domain.DefaultMorphemeDelimiters)
	assert.Equal(t, []string{"N-Num", "V-Agr"}, rules)
}

func TestGenerateScriptReturnsValidationErrorWhenNoRules(t *testing.T) {
	m := &domain.Morphology{ScriptType: domain.ScriptTypeRegex}
	_, err := GenerateScript(m, nil, nil, domain.DefaultMorphemeDelimiters)
	require.Error(t, err)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestGenerateScriptRegexStyle(t *testing.T) {
	m := &domain.Morphology{ScriptType: domain.ScriptTypeRegex, Rules: "N-Num"}
	lexiconForms := []*domain.Form{
		form("chien-s", "dog-PL", "N-Num"),
	}
	script, err := GenerateScript(m, lexiconForms, nil, domain.DefaultMorphemeDelimiters)
	require.NoError(t, err)
	assert.Contains(t, script, "define Cat_N")
	assert.Contains(t, script, "define Cat_Num")
	assert.Contains(t, script, "define Rule_N_Num Cat_N Cat_Num;")
	assert.Contains(t, script, "define Morphology Rule_N_Num;")
	assert.Contains(t, script, "{chien"+domain.RareDelimiter+"dog}:{chien}")
}

func TestGenerateScriptRegexStyleRichUpperAndLower(t *testing.T) {
	m := &domain.Morphology{ScriptType: domain.ScriptTypeRegex, Rules: "N", RichUpper: true, RichLower: true}
	lexiconForms := []*domain.Form{form("chien", "dog", "N")}
	script, err := GenerateScript(m, lexiconForms, nil, domain.DefaultMorphemeDelimiters)
	require.NoError(t, err)
	assert.Contains(t, script, "{chien"+domain.RareDelimiter+"dog+N}:{chien+N}")
}

func TestGenerateScriptRegexStyleIncludeUnknowns(t *testing.T) {
	m := &domain.Morphology{ScriptType: domain.ScriptTypeRegex, Rules: "N", IncludeUnknowns: true}
	lexiconForms := []*domain.Form{form("chien", "dog", "N")}
	script, err := GenerateScript(m, lexiconForms, nil, domain.DefaultMorphemeDelimiters)
	require.NoError(t, err)
	assert.Contains(t, script, "{"+domain.UnknownCategory+"}:{"+domain.UnknownCategory+"}")
}

func TestGenerateScriptLexcStyle(t *testing.T) {
	m := &domain.Morphology{ScriptType: domain.ScriptTypeLexc, Rules: "N-Num"}
	lexiconForms := []*domain.Form{form("chien-s", "dog-PL", "N-Num")}
	script, err := GenerateScript(m, lexiconForms, nil, domain.DefaultMorphemeDelimiters)
	require.NoError(t, err)
	assert.Contains(t, script, "LEXICON Root")
	assert.Contains(t, script, "0\tR0_N;")
	assert.Contains(t, script, "LEXICON R0_N")
	assert.Contains(t, script, "chien"+domain.RareDelimiter+"dog:chien\tR0_Num;")
	assert.Contains(t, script, "LEXICON R0_Num")
	assert.Contains(t, script, "s"+domain.RareDelimiter+"PL:s\t#;")
}

func TestSanitizeIdentifierReplacesNonWordRunes(t *testing.T) {
	assert.Equal(t, "N_Num", sanitizeIdentifier("N Num"))
	assert.Equal(t, "N_1", sanitizeIdentifier("N.1"))
}

func TestGenerateScriptRulesTakePrecedenceOverRulesCorpusWhenBothSet(t *testing.T) {
	m := &domain.Morphology{ScriptType: domain.ScriptTypeRegex, Rules: "N"}
	rulesCorpus := []*domain.Form{form("mange-ait", "eat-PAST", "V-Agr")}
	lexiconForms := []*domain.Form{form("chien", "dog", "N")}
	script, err := GenerateScript(m, lexiconForms, rulesCorpus, domain.DefaultMorphemeDelimiters)
	require.NoError(t, err)
	assert.True(t, strings.Contains(script, "define Rule_N Cat_N;"))
	assert.False(t, strings.Contains(script, "Rule_V_Agr"))
}
