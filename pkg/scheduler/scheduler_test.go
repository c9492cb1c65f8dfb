package scheduler

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dativebase/old/pkg/observability"
	"github.com/dativebase/old/pkg/query"
	"github.com/dativebase/old/pkg/store"
)

func newTestScheduler(t *testing.T) (*Scheduler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dialect := query.PostgresDialect{}
	clock := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	baseStore := store.New(db, dialect, clock)
	forms := store.NewFormStore(baseStore)

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	s, err := New(forms, baseStore, "0 3 * * *", "30 3 * * 0", 24*time.Hour, nil, logger)
	require.NoError(t, err)

	return s, mock
}

func TestNewRegistersBothJobs(t *testing.T) {
	s, _ := newTestScheduler(t)
	assert.Len(t, s.cron.Entries(), 2)
}

// Running each registered entry's job directly exercises the same
// closure a real firing would without waiting on the cron schedule.
// cron.Entries() sorts by next-run time, which is unset (and therefore
// tied) until Start is called, so the two jobs aren't run in a
// guaranteed order here — expectations are allowed to match out of
// order accordingly.
func TestScheduledJobsRunRebuildAndSweep(t *testing.T) {
	s, mock := newTestScheduler(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery("SELECT (.+) FROM forms").
		WillReturnRows(sqlmock.NewRows([]string{"id", "morpheme_break", "morpheme_gloss", "break_gloss_category"}))
	for range backupTableCountForTest {
		mock.ExpectExec("DELETE FROM .*_backups").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	entries := s.cron.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		e.Job.Run()
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

// backupTableCountForTest mirrors the number of backup tables the
// retention sweep prunes (store.backupTables is unexported and
// package-private to pkg/store).
const backupTableCountForTest = 7

func TestStartAndStop(t *testing.T) {
	s, _ := newTestScheduler(t)
	s.Start()
	require.NoError(t, s.Stop(context.Background()))
}
