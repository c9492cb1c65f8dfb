package httpapi

import (
	"net/http"

	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/httputil"
)

func (s *Server) registerFormSearchRoutes() {
	r := s.router
	r.HandleFunc("/formsearches", s.listFormSearches).Methods("GET")
	r.HandleFunc("/formsearches", s.createFormSearch).Methods("POST")
	r.HandleFunc("/formsearches/{id}", s.getFormSearch).Methods("GET")
	r.HandleFunc("/formsearches/{id}", s.updateFormSearch).Methods("PUT")
	r.HandleFunc("/formsearches/{id}", s.deleteFormSearch).Methods("DELETE")
}

func (s *Server) listFormSearches(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.FormSearches.List(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, domain.Paginate(items, nil))
}

func (s *Server) createFormSearch(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	var fs domain.FormSearch
	if !decodeBody(w, r, &fs) {
		return
	}
	if err := s.deps.FormSearches.Create(r.Context(), &fs); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, &fs)
}

func (s *Server) getFormSearch(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	fs, err := s.deps.FormSearches.Get(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if fs == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "FormSearch", ID: id})
		return
	}
	httputil.WriteSuccess(w, fs)
}

func (s *Server) updateFormSearch(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	var fs domain.FormSearch
	if !decodeBody(w, r, &fs) {
		return
	}
	fs.ID = id
	if err := s.deps.FormSearches.Update(r.Context(), &fs); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, &fs)
}

func (s *Server) deleteFormSearch(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.FormSearches.Delete(r.Context(), id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
