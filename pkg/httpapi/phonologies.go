package httpapi

import (
	"context"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/httputil"
	"github.com/dativebase/old/pkg/worker"
)

func (s *Server) registerPhonologyRoutes() {
	r := s.router
	r.HandleFunc("/phonologies", s.listPhonologies).Methods("GET")
	r.HandleFunc("/phonologies", s.createPhonology).Methods("POST")
	r.HandleFunc("/phonologies/{id}", s.getPhonology).Methods("GET")
	r.HandleFunc("/phonologies/{id}", s.updatePhonology).Methods("PUT")
	r.HandleFunc("/phonologies/{id}", s.deletePhonology).Methods("DELETE")
	r.HandleFunc("/phonologies/{id}/history", s.phonologyHistory).Methods("GET")
	r.HandleFunc("/phonologies/{id}/compile", s.compilePhonology).Methods("PUT")
	r.HandleFunc("/phonologies/{id}/applydown", s.applyDownPhonology).Methods("PUT")
	r.HandleFunc("/phonologies/{id}/runtests", s.runTestsPhonology).Methods("GET")
	r.HandleFunc("/phonologies/{id}/servecompiled", s.serveCompiledPhonology).Methods("GET")
}

func (s *Server) listPhonologies(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Phonologies.List(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, domain.Paginate(items, nil))
}

func (s *Server) createPhonology(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	var p domain.Phonology
	if !decodeBody(w, r, &p) {
		return
	}
	if err := s.deps.Phonologies.Create(r.Context(), &p); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if normalized, err := s.deps.PhonologyCompiler.WriteScript(p.ID, p.Script); err == nil {
		p.Script = normalized
	}
	httputil.WriteCreated(w, &p)
}

func (s *Server) getPhonology(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	p, err := s.deps.Phonologies.Get(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if p == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "Phonology", ID: id})
		return
	}
	httputil.WriteSuccess(w, p)
}

func (s *Server) updatePhonology(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	var p domain.Phonology
	if !decodeBody(w, r, &p) {
		return
	}
	p.ID = id
	if err := s.deps.Phonologies.Update(r.Context(), &p); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if normalized, err := s.deps.PhonologyCompiler.WriteScript(id, p.Script); err == nil {
		p.Script = normalized
	}
	httputil.WriteSuccess(w, &p)
}

func (s *Server) deletePhonology(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Phonologies.Delete(r.Context(), id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) phonologyHistory(w http.ResponseWriter, r *http.Request) {
	idOrUUID := mux.Vars(r)["id"]
	h, err := s.deps.Phonologies.History(r.Context(), idOrUUID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, h)
}

// compilePhonology bumps the phonology's compile-attempt nonce and
// enqueues a Foma-queue job rather than compiling inline, so the HTTP
// request returns immediately with the nonce the client should poll
// for.
func (s *Server) compilePhonology(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	p, err := s.deps.Phonologies.Get(ctx, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if p == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "Phonology", ID: id})
		return
	}
	nonce, err := s.deps.Phonologies.BumpCompileAttempt(ctx, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	err = s.deps.Workers.Foma.Enqueue(worker.Job{
		Name: "phonology.compile",
		Run: func(jobCtx context.Context) error {
			current, err := s.deps.Phonologies.Get(jobCtx, id)
			if err != nil || current == nil || current.CompileAttempt != nonce {
				return err
			}
			return s.deps.PhonologyCompiler.Compile(jobCtx, current)
		},
	})
	if err != nil {
		httputil.WriteServiceUnavailable(w, err.Error())
		return
	}
	p.CompileAttempt = nonce
	httputil.WriteSuccess(w, p)
}

func (s *Server) applyDownPhonology(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Transcriptions []string `json:"transcriptions"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	results, err := s.deps.PhonologyCompiler.ApplyDown(r.Context(), id, body.Transcriptions)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, results)
}

func (s *Server) runTestsPhonology(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	p, err := s.deps.Phonologies.Get(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if p == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "Phonology", ID: id})
		return
	}
	results, err := s.deps.PhonologyCompiler.RunTests(r.Context(), p)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, results)
}

func (s *Server) serveCompiledPhonology(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	rc, err := s.deps.PhonologyCompiler.ServeCompiled(id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "application/octet-stream")
	io.Copy(w, rc)
}
