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

func TestFormSearchStoreCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(db, query.PostgresDialect{}, fixedClock(now))
	fss := NewFormSearchStore(s)

	mock.ExpectQuery("INSERT INTO form_searches").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	fsch := &domain.FormSearch{UUID: "abc-123", Name: "S-searches", SearchJSON: `["and", []]`}
	require.NoError(t, fss.Create(context.Background(), fsch))
	assert.Equal(t, int64(1), fsch.ID)
	assert.Equal(t, now, fsch.DatetimeModified)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFormSearchStoreGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(db, query.PostgresDialect{}, fixedClock(now))
	fss := NewFormSearchStore(s)

	mock.ExpectQuery("SELECT (.+) FROM form_searches WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "uuid", "name", "description", "search", "enterer_id", "datetime_modified",
		}).AddRow(1, "abc-123", "S-searches", "", `["and", []]`, nil, now))

	got, err := fss.Get(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "S-searches", got.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
