package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/httputil"
	"github.com/dativebase/old/pkg/query"
)

func (s *Server) registerFormRoutes() {
	r := s.router
	r.HandleFunc("/forms", s.listForms).Methods("GET")
	r.HandleFunc("/forms", s.createForm).Methods("POST")
	r.HandleFunc("/forms", s.searchForms).Methods("SEARCH")
	r.HandleFunc("/forms/{id}", s.getForm).Methods("GET")
	r.HandleFunc("/forms/{id}", s.updateForm).Methods("PUT")
	r.HandleFunc("/forms/{id}", s.deleteForm).Methods("DELETE")
	r.HandleFunc("/forms/{id}/history", s.formHistory).Methods("GET")
}

// listForms returns every form visible to the acting user, compiling
// a nil query expression into an unconditional WHERE clause rather
// than maintaining a separate list query.
func (s *Server) listForms(w http.ResponseWriter, r *http.Request) {
	s.respondFormSearch(w, r, nil)
}

func (s *Server) searchForms(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query interface{} `json:"query"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	expr, err := query.ParseFilter(body.Query)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.respondFormSearch(w, r, expr)
}

func (s *Server) respondFormSearch(w http.ResponseWriter, r *http.Request, expr query.Expr) {
	ctx := r.Context()
	ids, err := s.deps.Forms.SearchIDs(ctx, s.deps.Schema, expr)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	forms, err := s.deps.Forms.GetByIDs(ctx, ids)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	forms = s.deps.Filter.FilterForms(CurrentUser(r), s.deps.UnrestrictedUserIDs, forms)
	httputil.WriteSuccess(w, domain.Paginate(forms, nil))
}

func (s *Server) createForm(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	var f domain.Form
	if !decodeBody(w, r, &f) {
		return
	}
	if err := s.deps.Forms.Create(r.Context(), &f); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, &f)
}

func (s *Server) getForm(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	f, err := s.deps.Forms.Get(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if f == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "Form", ID: id})
		return
	}
	if !s.deps.Filter.Accessible(CurrentUser(r), s.deps.UnrestrictedUserIDs, f.TagIDs) {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "Form", ID: id})
		return
	}
	httputil.WriteSuccess(w, f)
}

func (s *Server) updateForm(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	var f domain.Form
	if !decodeBody(w, r, &f) {
		return
	}
	f.ID = id
	if err := s.deps.Forms.Update(r.Context(), &f); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, &f)
}

func (s *Server) deleteForm(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Forms.Delete(r.Context(), id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) formHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.deps.Forms.History(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, h)
}
