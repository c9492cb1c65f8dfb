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

func languageModelRow(id int64, uuid string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "uuid", "name", "description", "corpus_id", "vocabulary_morphology_id",
		"toolkit", "order", "smoothing", "categorial", "rare_delimiter",
		"generate_succeeded", "generate_message", "generate_attempt", "perplexity",
		"perplexity_computed", "perplexity_attempt", "datetime_modified",
	}).AddRow(id, uuid, "lm", "", 1, nil, "mitlm", 3, "", false, "",
		false, "", "nonce-1", 0.0, false, "nonce-1", nowFixture())
}

func TestListLanguageModels(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM morpheme_language_models ORDER BY id").
		WillReturnRows(languageModelRow(1, "abc"))

	req := httptest.NewRequest(http.MethodGet, "/morphemelanguagemodels", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateLanguageModel(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("INSERT INTO morpheme_language_models").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	body := bytes.NewBufferString(`{"name":"lm","corpus_id":1,"toolkit":"mitlm","order":3}`)
	req := httptest.NewRequest(http.MethodPost, "/morphemelanguagemodels", body)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var m struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, int64(1), m.ID)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestGetLanguageModelNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM morpheme_language_models WHERE id").
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/morphemelanguagemodels/1", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

// generateLanguageModel bumps generate_attempt and enqueues onto the
// Foma queue, returning before the (never-drained, in this test) job
// runs.
func TestGenerateLanguageModelBumpsNonce(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM morpheme_language_models WHERE id").
		WillReturnRows(languageModelRow(1, "abc"))
	env.mock.ExpectExec("UPDATE morpheme_language_models SET generate_attempt").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPut, "/morphemelanguagemodels/1/generate", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestDeleteLanguageModel(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT (.+) FROM morpheme_language_models WHERE id").
		WillReturnRows(languageModelRow(1, "abc"))
	env.mock.ExpectExec("INSERT INTO morpheme_language_models_backups").WillReturnResult(sqlmock.NewResult(1, 1))
	env.mock.ExpectExec("DELETE FROM morpheme_language_models WHERE id").WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodDelete, "/morphemelanguagemodels/1", nil)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
