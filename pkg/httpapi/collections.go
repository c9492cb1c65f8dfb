package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/httputil"
)

func (s *Server) registerCollectionRoutes() {
	r := s.router
	r.HandleFunc("/collections", s.listCollections).Methods("GET")
	r.HandleFunc("/collections", s.createCollection).Methods("POST")
	r.HandleFunc("/collections/{id}", s.getCollection).Methods("GET")
	r.HandleFunc("/collections/{id}", s.updateCollection).Methods("PUT")
	r.HandleFunc("/collections/{id}", s.deleteCollection).Methods("DELETE")
	r.HandleFunc("/collections/{id}/history", s.collectionHistory).Methods("GET")
}

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Collections.List(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, domain.Paginate(items, nil))
}

func (s *Server) createCollection(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	var c domain.Collection
	if !decodeBody(w, r, &c) {
		return
	}
	ctx := withUser(r.Context(), CurrentUser(r))
	if err := s.propagator.Propagate(ctx, &c); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if err := s.deps.Collections.Create(ctx, &c); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, &c)
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	c, err := s.deps.Collections.Get(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if c == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "Collection", ID: id})
		return
	}
	if c.Restricted && !s.deps.Filter.Accessible(CurrentUser(r), s.deps.UnrestrictedUserIDs, c.TagIDs) {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "Collection", ID: id})
		return
	}
	httputil.WriteSuccess(w, c)
}

func (s *Server) updateCollection(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	var c domain.Collection
	if !decodeBody(w, r, &c) {
		return
	}
	c.ID = id
	ctx := withUser(r.Context(), CurrentUser(r))
	if err := s.propagator.Propagate(ctx, &c); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if err := s.deps.Collections.Update(ctx, &c); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, &c)
}

func (s *Server) deleteCollection(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Collections.Delete(r.Context(), id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) collectionHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.deps.Collections.History(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, h)
}
