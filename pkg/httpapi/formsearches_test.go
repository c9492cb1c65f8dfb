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

func formSearchRow(id int64, uuid string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "uuid", "name", "description", "search", "enterer_id", "datetime_modified",
	}).AddRow(id, uuid, "fs", "", `{"filter":["Form","transcription","=","chien"]}`, nil, nowFixture())
}

func TestListFormSearches(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM form_searches ORDER BY id").
		WillReturnRows(formSearchRow(1, "abc"))

	req := httptest.NewRequest(http.MethodGet, "/formsearches", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateFormSearch(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("INSERT INTO form_searches").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	body := bytes.NewBufferString(`{"name":"fs","search":{"filter":["Form","transcription","=","chien"]}}`)
	req := httptest.NewRequest(http.MethodPost, "/formsearches", body)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var fs struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fs))
	assert.Equal(t, int64(1), fs.ID)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestGetFormSearchNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM form_searches WHERE id").
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/formsearches/1", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestDeleteFormSearch(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectExec("DELETE FROM form_searches WHERE id").WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodDelete, "/formsearches/1", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
