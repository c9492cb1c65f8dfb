package phonology

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
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
	"github.com/dativebase/old/pkg/store"
	"github.com/dativebase/old/pkg/toolkit"
)

func phonologyRow(id int64, uuid, script string, modified time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "uuid", "name", "description", "script", "compile_succeeded",
		"compile_message", "compile_attempt", "datetime_compiled", "datetime_modified",
	}).AddRow(id, uuid, "phon", "", script, false, "", "nonce-1", nil, modified)
}

// fakeFoma writes an executable standing in for the real foma binary.
// When writeBinary is true it creates the target file named by the
// batch script's "save stack <path>" line (the last whitespace-
// separated token of that line) so Compile observes a successful save.
func fakeFoma(t *testing.T, dir string, exitCode int, writeBinary bool) string {
	t.Helper()
	path := filepath.Join(dir, "fake-foma")
	var script string
	if writeBinary {
		script = "#!/bin/sh\nbatch=\"$2\"\nout=$(grep '^save stack' \"$batch\" | awk '{print $3}')\ntouch \"$out\"\nexit 0\n"
	} else {
		script = "#!/bin/sh\necho 'syntax error near line 3' >&2\nexit " + strconv.Itoa(exitCode) + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func newTestCompiler(t *testing.T, fomaPath string) (*Compiler, sqlmock.Sqlmock, *artifacts.Layout, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	s := store.New(db, query.PostgresDialect{}, nil)
	phonologies := store.NewPhonologyStore(s)

	layout, err := artifacts.New(t.TempDir(), "testold")
	require.NoError(t, err)

	logger := observability.NewLogger(observability.DebugLevel, io.Discard)
	tools := toolkit.NewRunner(config.ToolsConfig{FomaPath: fomaPath, Timeout: time.Second}, logger)

	c := NewCompiler(phonologies, layout, tools, logger)
	return c, mock, layout, func() { db.Close() }
}

func TestCompileFailsWhenFomaNotInstalled(t *testing.T) {
	c, _, _, closeDB := newTestCompiler(t, "")
	defer closeDB()

	p := &domain.Phonology{ID: 1, UUID: "abc", Script: "define C [p t];"}
	err := c.Compile(context.Background(), p)
	var notInstalled *domain.ToolNotInstalledError
	require.ErrorAs(t, err, &notInstalled)
	assert.Equal(t, "Foma", notInstalled.Tool)
}

func TestCompileSucceedsAndPersists(t *testing.T) {
	dir := t.TempDir()
	c, mock, layout, closeDB := newTestCompiler(t, fakeFoma(t, dir, 0, true))
	defer closeDB()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM phonologies WHERE id").
		WillReturnRows(phonologyRow(1, "abc-123", "define C [p t k];", now))
	mock.ExpectExec("INSERT INTO phonologies_backups").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE phonologies SET").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, artifacts.WriteFile(layout.PhonologyScriptPath(1), []byte("define C [p t k];")))

	p := &domain.Phonology{ID: 1, UUID: "abc-123", Name: "phon", Script: "define C [p t k];", CompileAttempt: "nonce-1"}
	err := c.Compile(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, p.CompileSucceeded)
	assert.Equal(t, "Compilation process terminated successfully.", p.CompileMessage)
	assert.NotNil(t, p.DatetimeCompiled)
	assert.True(t, artifacts.Exists(layout.PhonologyBinaryPath(1)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompileSurfacesStderrOnNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	c, mock, layout, closeDB := newTestCompiler(t, fakeFoma(t, dir, 1, false))
	defer closeDB()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM phonologies WHERE id").
		WillReturnRows(phonologyRow(2, "def-456", "bad script", now))
	mock.ExpectExec("INSERT INTO phonologies_backups").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE phonologies SET").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, artifacts.WriteFile(layout.PhonologyScriptPath(2), []byte("bad script")))

	p := &domain.Phonology{ID: 2, UUID: "def-456", Name: "phon", Script: "bad script", CompileAttempt: "nonce-1"}
	err := c.Compile(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, p.CompileSucceeded)
	assert.Contains(t, p.CompileMessage, "syntax error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteScriptNormalizesAndWritesFile(t *testing.T) {
	c, _, layout, closeDB := newTestCompiler(t, "")
	defer closeDB()

	normalized, err := c.WriteScript(9, "é") // e + combining acute accent
	require.NoError(t, err)
	assert.Equal(t, "é", normalized)

	data, err := artifacts.ReadFile(layout.PhonologyScriptPath(9))
	require.NoError(t, err)
	assert.Equal(t, normalized, string(data))
}
