package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/httputil"
)

// idVar parses the {id} path variable as an int64, writing a
// ValidationError and reporting false if it isn't one.
func idVar(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httputil.WriteDomainError(w, domain.NewValidationError(name, "must be an integer id"))
		return 0, false
	}
	return id, true
}

// decodeBody JSON-decodes r.Body into v, reporting a ValidationError on
// a malformed body.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.WriteDomainError(w, domain.NewValidationError("request", "could not parse JSON body: "+err.Error()))
		return false
	}
	return true
}
