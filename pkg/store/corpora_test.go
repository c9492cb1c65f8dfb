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

func corpusRow(id int64, uuid, content string, modified time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "uuid", "name", "description", "form_search_id", "content",
		"forms", "tag_ids", "enterer_id", "datetime_entered", "datetime_modified",
	}).AddRow(id, uuid, "corpus", "", nil, content, []byte("[]"), []byte("[]"), nil, modified, modified)
}

func TestCorpusStoreUpdateRejectsVacuousSubmission(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(db, query.PostgresDialect{}, fixedClock(now))
	cs := NewCorpusStore(s)

	mock.ExpectQuery("SELECT (.+) FROM corpora WHERE id").
		WillReturnRows(corpusRow(1, "abc-123", "1,2,3", now))

	next := &domain.Corpus{
		ID: 1, UUID: "abc-123", Name: "corpus", Content: "1,2,3",
		FormIDs: []int64{}, TagIDs: []int64{}, DatetimeEntered: now,
	}
	err = cs.Update(context.Background(), next)
	require.Error(t, err)
	var notNew *domain.NotNewError
	assert.ErrorAs(t, err, &notNew)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCorpusStoreUpdateWritesBackupOnRealChange(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	s := New(db, query.PostgresDialect{}, fixedClock(later))
	cs := NewCorpusStore(s)

	mock.ExpectQuery("SELECT (.+) FROM corpora WHERE id").
		WillReturnRows(corpusRow(1, "abc-123", "1,2,3", now))
	mock.ExpectExec("INSERT INTO corpora_backups").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE corpora SET").WillReturnResult(sqlmock.NewResult(0, 1))

	next := &domain.Corpus{ID: 1, UUID: "abc-123", Name: "corpus", Content: "1,2,3,4", FormIDs: []int64{}, TagIDs: []int64{}}
	err = cs.Update(context.Background(), next)
	require.NoError(t, err)
	assert.Equal(t, later, next.DatetimeModified)
	assert.NoError(t, mock.ExpectationsWereMet())
}
