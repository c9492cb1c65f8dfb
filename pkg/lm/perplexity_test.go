package lm

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dativebase/old/pkg/domain"
)

func TestSplitTrainTestRespectsFractionAndNonEmptySplits(t *testing.T) {
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = "<s> N </s>"
	}
	train, test := splitTrainTest(lines, 0)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)
}

func TestSplitTrainTestNeverEmptiesEitherSideForTinyCorpora(t *testing.T) {
	train, test := splitTrainTest([]string{"a", "b"}, 0)
	assert.NotEmpty(t, train)
	assert.NotEmpty(t, test)
}

func TestScorePerplexityStripsSentinelsBeforeScoring(t *testing.T) {
	trie, err := ParseARPA([]byte(sampleARPA))
	require.NoError(t, err)
	pp := scorePerplexity(trie, []string{"<s> N Num </s>"})
	assert.Greater(t, pp, 0.0)
}

func TestComputePerplexityAveragesAcrossIterations(t *testing.T) {
	dir := t.TempDir()
	b, mock, _, closeDB := newTestBuilder(t, fakeEstimateNgram(t, dir))
	defer closeDB()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	formRows := sqlmock.NewRows([]string{
		"id", "uuid", "transcription", "phonetic_transcription",
		"narrow_phonetic_transcription", "morpheme_break", "morpheme_gloss",
		"break_gloss_category", "grammaticality", "syntactic_category_id",
		"translations", "tag_ids", "file_ids", "elicitor_id", "enterer_id",
		"verifier_id", "modifier_id", "date_elicited", "datetime_entered",
		"datetime_modified", "morpheme_break_ids", "morpheme_gloss_ids",
	})
	for i := int64(1); i <= 6; i++ {
		formRows.AddRow(i, "f", "chien", "", "", "chien", "dog", "N", "", nil,
			[]byte("[]"), []byte("[]"), []byte("[]"), nil, nil, nil, nil, nil,
			now, now, []byte("[]"), []byte("[]"))
	}
	mock.ExpectQuery("SELECT (.+) FROM corpora WHERE id").WillReturnRows(corpusRow(1, "c-1", "[1,2,3,4,5,6]", now))
	mock.ExpectQuery("SELECT (.+) FROM forms WHERE id IN").WillReturnRows(formRows)

	m := &domain.MorphemeLanguageModel{ID: 1, CorpusID: 1, Order: 3, Smoothing: "ModKN", Categorial: true}
	perplexity, err := b.ComputePerplexity(context.Background(), m, 3)
	require.NoError(t, err)
	assert.Greater(t, perplexity, 0.0)
}
