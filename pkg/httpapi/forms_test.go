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

// listForms delegates to respondFormSearch with a nil expr, which
// compiles to a SearchIDs call that returns every form id before
// GetByIDs hydrates them.
func TestListForms(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT DISTINCT t.id FROM forms").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	env.mock.ExpectQuery("SELECT (.+) FROM forms WHERE id IN").
		WillReturnRows(formRowsFixture(1))

	req := httptest.NewRequest(http.MethodGet, "/forms", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items []map[string]interface{} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Items, 1)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateForm(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("INSERT INTO forms").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	body := bytes.NewBufferString(`{"transcription":"chien"}`)
	req := httptest.NewRequest(http.MethodPost, "/forms", body)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var f struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, int64(1), f.ID)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestGetFormNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM forms WHERE id").
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/forms/1", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestDeleteForm(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM forms WHERE id").
		WillReturnRows(formRowsFixture(1))
	env.mock.ExpectExec("INSERT INTO forms_backups").WillReturnResult(sqlmock.NewResult(1, 1))
	env.mock.ExpectExec("DELETE FROM forms WHERE id").WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodDelete, "/forms/1", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
