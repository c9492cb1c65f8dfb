package httpapi

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func phonologyRow(id int64, uuid, script string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "uuid", "name", "description", "script", "compile_succeeded",
		"compile_message", "compile_attempt", "datetime_compiled", "datetime_modified",
	}).AddRow(id, uuid, "phon", "", script, false, "", "nonce-1", nil, time.Now())
}

func TestListPhonologies(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM phonologies ORDER BY id").
		WillReturnRows(phonologyRow(1, "abc", "define C [p t k];"))

	req := httptest.NewRequest(http.MethodGet, "/phonologies", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items []map[string]interface{} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "phon", body.Items[0]["name"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestGetPhonologyNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM phonologies WHERE id").
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/phonologies/9", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreatePhonology(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("INSERT INTO phonologies").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	body := bytes.NewBufferString(`{"name":"phon","script":"define C [p t k];"}`)
	req := httptest.NewRequest(http.MethodPost, "/phonologies", body)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var p struct {
		ID     int64  `json:"id"`
		Script string `json:"script"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "define C [p t k];", p.Script) // NFD-normalized write is a no-op for plain ASCII
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestDeletePhonology(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM phonologies WHERE id").
		WillReturnRows(phonologyRow(1, "abc", "define C [p t k];"))
	env.mock.ExpectExec("INSERT INTO phonologies_backups").WillReturnResult(sqlmock.NewResult(1, 1))
	env.mock.ExpectExec("DELETE FROM phonologies WHERE id").WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodDelete, "/phonologies/1", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCompilePhonologyBumpsNonceAndEnqueues(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM phonologies WHERE id").
		WillReturnRows(phonologyRow(1, "abc", "define C [p t k];"))
	env.mock.ExpectExec("UPDATE phonologies SET compile_attempt").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPut, "/phonologies/1/compile", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var p struct {
		CompileAttempt string `json:"compile_attempt"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.NotEmpty(t, p.CompileAttempt)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
