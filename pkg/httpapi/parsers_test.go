package httpapi

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parserRow(id int64, uuid string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "uuid", "name", "description", "phonology_id", "morphology_id",
		"language_model_id", "generate_attempt", "generate_message", "compile_succeeded",
		"compile_message", "compile_attempt", "datetime_compiled", "datetime_modified",
	}).AddRow(id, uuid, "parser", "", 1, 1, 1, "nonce-1", "", false, "", "nonce-1", nil, nowFixture())
}

func TestListParsers(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM morphological_parsers ORDER BY id").
		WillReturnRows(parserRow(1, "abc"))

	req := httptest.NewRequest(http.MethodGet, "/morphologicalparsers", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateParser(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("INSERT INTO morphological_parsers").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	body := bytes.NewBufferString(`{"name":"parser","phonology_id":1,"morphology_id":1,"language_model_id":1}`)
	req := httptest.NewRequest(http.MethodPost, "/morphologicalparsers", body)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var p struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, int64(1), p.ID)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestGetParserNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM morphological_parsers WHERE id").
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/morphologicalparsers/1", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

// Both /generate and /generate_and_compile route to the same handler,
// since a parser has no separate generate-only build stage: each bumps
// the single compile-attempt nonce and enqueues on the Foma queue. Each
// case gets its own env because the test pool's Foma queue (capacity 1,
// never drained) would reject a second Enqueue in the same env.
func TestGenerateParserBumpsNonce(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM morphological_parsers WHERE id").
		WillReturnRows(parserRow(1, "abc"))
	env.mock.ExpectExec("UPDATE morphological_parsers SET compile_attempt").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPut, "/morphologicalparsers/1/generate", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestGenerateAndCompileParserUsesSameHandler(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM morphological_parsers WHERE id").
		WillReturnRows(parserRow(1, "abc"))
	env.mock.ExpectExec("UPDATE morphological_parsers SET compile_attempt").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPut, "/morphologicalparsers/1/generate_and_compile", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestDeleteParser(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM morphological_parsers WHERE id").
		WillReturnRows(parserRow(1, "abc"))
	env.mock.ExpectExec("INSERT INTO morphological_parsers_backups").WillReturnResult(sqlmock.NewResult(1, 1))
	env.mock.ExpectExec("DELETE FROM morphological_parsers WHERE id").WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodDelete, "/morphologicalparsers/1", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
