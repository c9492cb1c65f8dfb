package corpus

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/config"
	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/observability"
	"github.com/dativebase/old/pkg/query"
	"github.com/dativebase/old/pkg/restrict"
	"github.com/dativebase/old/pkg/store"
	"github.com/dativebase/old/pkg/toolkit"
)

var formColumns = []string{
	"id", "uuid", "transcription", "phonetic_transcription",
	"narrow_phonetic_transcription", "morpheme_break", "morpheme_gloss",
	"break_gloss_category", "grammaticality", "syntactic_category_id",
	"translations", "tag_ids", "file_ids", "elicitor_id", "enterer_id",
	"verifier_id", "modifier_id", "date_elicited", "datetime_entered",
	"datetime_modified", "morpheme_break_ids", "morpheme_gloss_ids",
}

type formEntry struct {
	id                 int64
	uuid, transcription string
}

func formRows(entries ...formEntry) *sqlmock.Rows {
	rows := sqlmock.NewRows(formColumns)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, e := range entries {
		rows.AddRow(e.id, e.uuid, e.transcription, "", "", "", "", "", "",
			nil, []byte("[]"), []byte("[]"), []byte("[]"), nil, nil, nil, nil, nil,
			now, now, []byte("[]"), []byte("[]"))
	}
	return rows
}

func newTestEngine(t *testing.T) (*Engine, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	s := store.New(db, query.PostgresDialect{}, nil)
	forms := store.NewFormStore(s)
	formSearches := store.NewFormSearchStore(s)
	corpora := store.NewCorpusStore(s)

	layout, err := artifacts.New(t.TempDir(), "testold")
	require.NoError(t, err)

	logger := observability.NewLogger(observability.DebugLevel, io.Discard)
	tools := toolkit.NewRunner(config.ToolsConfig{Timeout: time.Second}, logger)
	f := restrict.New(99)

	e := NewEngine(forms, formSearches, corpora, query.NewOLDSchema(), query.PostgresDialect{}, layout, tools, f, nil)
	return e, mock, func() { db.Close() }
}

func TestParseContentIDsDedupesAndTrims(t *testing.T) {
	ids, err := parseContentIDs(" 1, 2,2, 3 ,1")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestParseContentIDsRejectsNonNumeric(t *testing.T) {
	_, err := parseContentIDs("1,abc,3")
	require.Error(t, err)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestResolveMembershipFromContent(t *testing.T) {
	e, mock, closeDB := newTestEngine(t)
	defer closeDB()

	mock.ExpectQuery("SELECT (.+) FROM forms WHERE id IN").
		WillReturnRows(formRows(formEntry{1, "a", "chien"}, formEntry{2, "b", "chat"}))

	c := &domain.Corpus{ID: 1, Content: "1,2"}
	err := e.ResolveMembership(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, c.FormIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveMembershipFailsOnMissingID(t *testing.T) {
	e, mock, closeDB := newTestEngine(t)
	defer closeDB()

	mock.ExpectQuery("SELECT (.+) FROM forms WHERE id IN").
		WillReturnRows(formRows(formEntry{1, "a", "chien"}))

	c := &domain.Corpus{ID: 1, Content: "1,999"}
	err := e.ResolveMembership(context.Background(), c)
	require.Error(t, err)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}
