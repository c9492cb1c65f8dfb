package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/query"
)

func lmRow(id int64, uuid string, order int, modified time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "uuid", "name", "description", "corpus_id", "vocabulary_morphology_id",
		"toolkit", "order", "smoothing", "categorial", "rare_delimiter",
		"generate_succeeded", "generate_message", "generate_attempt",
		"perplexity", "perplexity_computed", "perplexity_attempt", "datetime_modified",
	}).AddRow(id, uuid, "lm", "", int64(1), nil, "mitlm", order, "", false, "@",
		false, "", "", float64(0), false, "", modified)
}

func TestMorphemeLanguageModelStoreUpdateRejectsVacuousSubmission(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(db, query.PostgresDialect{}, fixedClock(now))
	ls := NewMorphemeLanguageModelStore(s)

	mock.ExpectQuery("SELECT (.+) FROM morpheme_language_models WHERE id").
		WillReturnRows(lmRow(1, "abc-123", 3, now))

	next := &domain.MorphemeLanguageModel{
		ID: 1, UUID: "abc-123", Name: "lm", CorpusID: 1, Toolkit: "mitlm",
		Order: 3, RareDelimiter: "@",
	}
	err = ls.Update(context.Background(), next)
	require.Error(t, err)
	var notNew *domain.NotNewError
	assert.ErrorAs(t, err, &notNew)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMorphemeLanguageModelStoreUpdateWritesBackupOnRealChange(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	s := New(db, query.PostgresDialect{}, fixedClock(later))
	ls := NewMorphemeLanguageModelStore(s)

	mock.ExpectQuery("SELECT (.+) FROM morpheme_language_models WHERE id").
		WillReturnRows(lmRow(1, "abc-123", 3, now))
	mock.ExpectExec("INSERT INTO morpheme_language_models_backups").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE morpheme_language_models SET").WillReturnResult(sqlmock.NewResult(0, 1))

	next := &domain.MorphemeLanguageModel{ID: 1, UUID: "abc-123", Name: "lm", CorpusID: 1, Toolkit: "mitlm", Order: 5}
	err = ls.Update(context.Background(), next)
	require.NoError(t, err)
	assert.Equal(t, later, next.DatetimeModified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMorphemeLanguageModelStoreBumpPerplexityAttempt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := New(db, query.PostgresDialect{}, nil)
	ls := NewMorphemeLanguageModelStore(s)

	mock.ExpectExec("UPDATE morpheme_language_models SET perplexity_attempt").WillReturnResult(sqlmock.NewResult(0, 1))

	nonce, err := ls.BumpPerplexityAttempt(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEmpty(t, nonce)
	assert.NoError(t, mock.ExpectationsWereMet())
}
