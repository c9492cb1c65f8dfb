package httpapi

import (
	"context"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/httputil"
	"github.com/dativebase/old/pkg/morphology"
	"github.com/dativebase/old/pkg/worker"
)

func (s *Server) registerMorphologyRoutes() {
	r := s.router
	r.HandleFunc("/morphologies", s.listMorphologies).Methods("GET")
	r.HandleFunc("/morphologies", s.createMorphology).Methods("POST")
	r.HandleFunc("/morphologies/{id}", s.getMorphology).Methods("GET")
	r.HandleFunc("/morphologies/{id}", s.updateMorphology).Methods("PUT")
	r.HandleFunc("/morphologies/{id}", s.deleteMorphology).Methods("DELETE")
	r.HandleFunc("/morphologies/{id}/history", s.morphologyHistory).Methods("GET")
	r.HandleFunc("/morphologies/{id}/generate", s.generateMorphology).Methods("PUT")
	r.HandleFunc("/morphologies/{id}/generate_and_compile", s.generateAndCompileMorphology).Methods("PUT")
	r.HandleFunc("/morphologies/{id}/applyup", s.applyUpMorphology).Methods("PUT")
	r.HandleFunc("/morphologies/{id}/applydown", s.applyDownMorphology).Methods("PUT")
	r.HandleFunc("/morphologies/{id}/servecompiled", s.serveCompiledMorphology).Methods("GET")
}

func (s *Server) listMorphologies(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Morphologies.List(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, domain.Paginate(items, nil))
}

func (s *Server) createMorphology(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	var m domain.Morphology
	if !decodeBody(w, r, &m) {
		return
	}
	if err := s.deps.Morphologies.Create(r.Context(), &m); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, &m)
}

func (s *Server) getMorphology(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	m, err := s.deps.Morphologies.Get(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if m == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "Morphology", ID: id})
		return
	}
	httputil.WriteSuccess(w, m)
}

func (s *Server) updateMorphology(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	var m domain.Morphology
	if !decodeBody(w, r, &m) {
		return
	}
	m.ID = id
	if err := s.deps.Morphologies.Update(r.Context(), &m); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, &m)
}

func (s *Server) deleteMorphology(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Morphologies.Delete(r.Context(), id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) morphologyHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.deps.Morphologies.History(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, h)
}

// generateMorphology bumps the generate-attempt nonce and enqueues a
// Foma-queue job that derives the foma script from the rules/lexicon
// corpora, mirroring compilePhonology's async contract.
func (s *Server) generateMorphology(w http.ResponseWriter, r *http.Request) {
	s.enqueueMorphologyJob(w, r, "morphology.generate", func(jobCtx context.Context, m *domain.Morphology) error {
		return s.deps.MorphologyCompiler.Generate(jobCtx, m)
	}, true)
}

// generateAndCompileMorphology chains Generate then Compile in one job,
// since the HTTP surface exposes generate_and_compile as a single
// round trip for the common case of regenerating and recompiling
// together.
func (s *Server) generateAndCompileMorphology(w http.ResponseWriter, r *http.Request) {
	s.enqueueMorphologyJob(w, r, "morphology.generate_and_compile", func(jobCtx context.Context, m *domain.Morphology) error {
		if err := s.deps.MorphologyCompiler.Generate(jobCtx, m); err != nil {
			return err
		}
		return s.deps.MorphologyCompiler.Compile(jobCtx, m)
	}, true)
}

func (s *Server) enqueueMorphologyJob(w http.ResponseWriter, r *http.Request, name string, run func(context.Context, *domain.Morphology) error, bumpGenerate bool) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	m, err := s.deps.Morphologies.Get(ctx, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if m == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "Morphology", ID: id})
		return
	}
	var nonce string
	if bumpGenerate {
		nonce, err = s.deps.Morphologies.BumpGenerateAttempt(ctx, id)
	} else {
		nonce, err = s.deps.Morphologies.BumpCompileAttempt(ctx, id)
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	err = s.deps.Workers.Foma.Enqueue(worker.Job{
		Name: name,
		Run: func(jobCtx context.Context) error {
			current, err := s.deps.Morphologies.Get(jobCtx, id)
			if err != nil || current == nil {
				return err
			}
			if bumpGenerate && current.GenerateAttempt != nonce {
				return nil
			}
			if !bumpGenerate && current.CompileAttempt != nonce {
				return nil
			}
			return run(jobCtx, current)
		},
	})
	if err != nil {
		httputil.WriteServiceUnavailable(w, err.Error())
		return
	}
	if bumpGenerate {
		m.GenerateAttempt = nonce
	} else {
		m.CompileAttempt = nonce
	}
	httputil.WriteSuccess(w, m)
}

func (s *Server) applyUpMorphology(w http.ResponseWriter, r *http.Request) {
	s.applyMorphology(w, r, morphology.DirectionUp)
}

func (s *Server) applyDownMorphology(w http.ResponseWriter, r *http.Request) {
	s.applyMorphology(w, r, morphology.DirectionDown)
}

func (s *Server) applyMorphology(w http.ResponseWriter, r *http.Request, direction morphology.Direction) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Inputs []string `json:"inputs"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	results, err := s.deps.MorphologyCompiler.Apply(r.Context(), id, direction, body.Inputs)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, results)
}

func (s *Server) serveCompiledMorphology(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	rc, err := s.deps.MorphologyCompiler.ServeCompiled(id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "application/octet-stream")
	io.Copy(w, rc)
}
