package httpapi

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/httputil"
	"github.com/dativebase/old/pkg/worker"
)

func (s *Server) registerParserRoutes() {
	r := s.router
	r.HandleFunc("/morphologicalparsers", s.listParsers).Methods("GET")
	r.HandleFunc("/morphologicalparsers", s.createParser).Methods("POST")
	r.HandleFunc("/morphologicalparsers/{id}", s.getParser).Methods("GET")
	r.HandleFunc("/morphologicalparsers/{id}", s.updateParser).Methods("PUT")
	r.HandleFunc("/morphologicalparsers/{id}", s.deleteParser).Methods("DELETE")
	r.HandleFunc("/morphologicalparsers/{id}/history", s.parserHistory).Methods("GET")
	r.HandleFunc("/morphologicalparsers/{id}/generate", s.generateParser).Methods("PUT")
	r.HandleFunc("/morphologicalparsers/{id}/generate_and_compile", s.generateParser).Methods("PUT")
	r.HandleFunc("/morphologicalparsers/{id}/applyup", s.applyUpParser).Methods("PUT")
	r.HandleFunc("/morphologicalparsers/{id}/applydown", s.applyDownParser).Methods("PUT")
	r.HandleFunc("/morphologicalparsers/{id}/parse", s.parseParser).Methods("PUT")
	r.HandleFunc("/morphologicalparsers/{id}/servecompiled", s.serveCompiledParser).Methods("GET")
	r.HandleFunc("/morphologicalparsers/{id}/export", s.exportParser).Methods("GET")
}

func (s *Server) listParsers(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Parsers.List(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, domain.Paginate(items, nil))
}

func (s *Server) createParser(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	var p domain.MorphologicalParser
	if !decodeBody(w, r, &p) {
		return
	}
	if err := s.deps.Parsers.Create(r.Context(), &p); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, &p)
}

func (s *Server) getParser(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	p, err := s.deps.Parsers.Get(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if p == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "MorphologicalParser", ID: id})
		return
	}
	httputil.WriteSuccess(w, p)
}

func (s *Server) updateParser(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	var p domain.MorphologicalParser
	if !decodeBody(w, r, &p) {
		return
	}
	p.ID = id
	if err := s.deps.Parsers.Update(r.Context(), &p); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, &p)
}

func (s *Server) deleteParser(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Parsers.Delete(r.Context(), id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) parserHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.deps.Parsers.History(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, h)
}

// generateParser bumps the compile-attempt nonce and enqueues the
// morphophonology composition, backing both generate and
// generate_and_compile: a parser has no separate generate-only stage,
// since GenerateAndCompile always emits and compiles the composed foma
// script in one step.
func (s *Server) generateParser(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	p, err := s.deps.Parsers.Get(ctx, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if p == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "MorphologicalParser", ID: id})
		return
	}
	nonce, err := s.deps.Parsers.BumpCompileAttempt(ctx, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	err = s.deps.Workers.Foma.Enqueue(worker.Job{
		Name: "parser.generate_and_compile",
		Run: func(jobCtx context.Context) error {
			current, err := s.deps.Parsers.Get(jobCtx, id)
			if err != nil || current == nil || current.CompileAttempt != nonce {
				return err
			}
			return s.deps.Parser.GenerateAndCompile(jobCtx, current)
		},
	})
	if err != nil {
		httputil.WriteServiceUnavailable(w, err.Error())
		return
	}
	p.CompileAttempt = nonce
	httputil.WriteSuccess(w, p)
}

func (s *Server) applyUpParser(w http.ResponseWriter, r *http.Request) {
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
	results, err := s.deps.Parser.ApplyUp(r.Context(), id, body.Transcriptions)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, results)
}

func (s *Server) applyDownParser(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Analyses []string `json:"analyses"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	results, err := s.deps.Parser.ApplyDown(r.Context(), id, body.Analyses)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, results)
}

func (s *Server) parseParser(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	p, err := s.deps.Parsers.Get(ctx, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if p == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "MorphologicalParser", ID: id})
		return
	}
	var body struct {
		Transcriptions []string `json:"transcriptions"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	results, err := s.deps.Parser.Parse(ctx, p, body.Transcriptions)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, results)
}

func (s *Server) serveCompiledParser(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	rc, err := s.deps.Parser.ServeCompiled(id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "application/octet-stream")
	io.Copy(w, rc)
}

// exportParser writes p's exported zip archive to a temp file, then
// streams it, since Export takes a destination path rather than
// returning an io.ReadCloser.
func (s *Server) exportParser(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	p, err := s.deps.Parsers.Get(ctx, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if p == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "MorphologicalParser", ID: id})
		return
	}
	tmp, err := os.CreateTemp("", "parser-export-*.zip")
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := s.deps.Parser.Export(p, tmpPath); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	f, err := os.Open(tmpPath)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", "application/zip")
	io.Copy(w, f)
}
