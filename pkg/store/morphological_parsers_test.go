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

func parserRow(id int64, uuid string, modified time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "uuid", "name", "description", "phonology_id", "morphology_id",
		"language_model_id", "generate_attempt", "generate_message",
		"compile_succeeded", "compile_message", "compile_attempt",
		"datetime_compiled", "datetime_modified",
	}).AddRow(id, uuid, "parser", "", int64(1), int64(2), int64(3), "", "", false, "", "", nil, modified)
}

func TestMorphologicalParserStoreUpdateRejectsVacuousSubmission(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(db, query.PostgresDialect{}, fixedClock(now))
	ps := NewMorphologicalParserStore(s)

	mock.ExpectQuery("SELECT (.+) FROM morphological_parsers WHERE id").
		WillReturnRows(parserRow(1, "abc-123", now))

	next := &domain.MorphologicalParser{
		ID: 1, UUID: "abc-123", Name: "parser", PhonologyID: 1, MorphologyID: 2, LanguageModelID: 3,
	}
	err = ps.Update(context.Background(), next)
	require.Error(t, err)
	var notNew *domain.NotNewError
	assert.ErrorAs(t, err, &notNew)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMorphologicalParserStoreUpdateWritesBackupOnRealChange(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	s := New(db, query.PostgresDialect{}, fixedClock(later))
	ps := NewMorphologicalParserStore(s)

	mock.ExpectQuery("SELECT (.+) FROM morphological_parsers WHERE id").
		WillReturnRows(parserRow(1, "abc-123", now))
	mock.ExpectExec("INSERT INTO morphological_parsers_backups").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE morphological_parsers SET").WillReturnResult(sqlmock.NewResult(0, 1))

	next := &domain.MorphologicalParser{ID: 1, UUID: "abc-123", Name: "parser v2", PhonologyID: 1, MorphologyID: 2, LanguageModelID: 3}
	err = ps.Update(context.Background(), next)
	require.NoError(t, err)
	assert.Equal(t, later, next.DatetimeModified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMorphologicalParserStoreBumpCompileAttempt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := New(db, query.PostgresDialect{}, nil)
	ps := NewMorphologicalParserStore(s)

	mock.ExpectExec("UPDATE morphological_parsers SET compile_attempt").WillReturnResult(sqlmock.NewResult(0, 1))

	nonce, err := ps.BumpCompileAttempt(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEmpty(t, nonce)
	assert.NoError(t, mock.ExpectationsWereMet())
}
