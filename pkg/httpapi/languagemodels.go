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

func (s *Server) registerLanguageModelRoutes() {
	r := s.router
	r.HandleFunc("/morphemelanguagemodels", s.listLanguageModels).Methods("GET")
	r.HandleFunc("/morphemelanguagemodels", s.createLanguageModel).Methods("POST")
	r.HandleFunc("/morphemelanguagemodels/{id}", s.getLanguageModel).Methods("GET")
	r.HandleFunc("/morphemelanguagemodels/{id}", s.updateLanguageModel).Methods("PUT")
	r.HandleFunc("/morphemelanguagemodels/{id}", s.deleteLanguageModel).Methods("DELETE")
	r.HandleFunc("/morphemelanguagemodels/{id}/history", s.languageModelHistory).Methods("GET")
	r.HandleFunc("/morphemelanguagemodels/{id}/generate", s.generateLanguageModel).Methods("PUT")
	r.HandleFunc("/morphemelanguagemodels/{id}/compute_perplexity", s.computePerplexityLanguageModel).Methods("PUT")
	r.HandleFunc("/morphemelanguagemodels/{id}/get_probabilities", s.getProbabilitiesLanguageModel).Methods("PUT")
	r.HandleFunc("/morphemelanguagemodels/{id}/serve_arpa", s.serveArpaLanguageModel).Methods("GET")
}

func (s *Server) listLanguageModels(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.LanguageModels.List(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, domain.Paginate(items, nil))
}

func (s *Server) createLanguageModel(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	var m domain.MorphemeLanguageModel
	if !decodeBody(w, r, &m) {
		return
	}
	if err := s.deps.LanguageModels.Create(r.Context(), &m); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, &m)
}

func (s *Server) getLanguageModel(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	m, err := s.deps.LanguageModels.Get(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if m == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "MorphemeLanguageModel", ID: id})
		return
	}
	httputil.WriteSuccess(w, m)
}

func (s *Server) updateLanguageModel(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	var m domain.MorphemeLanguageModel
	if !decodeBody(w, r, &m) {
		return
	}
	m.ID = id
	if err := s.deps.LanguageModels.Update(r.Context(), &m); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, &m)
}

func (s *Server) deleteLanguageModel(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.LanguageModels.Delete(r.Context(), id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) languageModelHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.deps.LanguageModels.History(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, h)
}

// generateLanguageModel bumps the generate-attempt nonce and enqueues
// a Foma-queue job running estimate-ngram, matching compilePhonology's
// async contract.
func (s *Server) generateLanguageModel(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	m, err := s.deps.LanguageModels.Get(ctx, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if m == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "MorphemeLanguageModel", ID: id})
		return
	}
	nonce, err := s.deps.LanguageModels.BumpGenerateAttempt(ctx, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	err = s.deps.Workers.Foma.Enqueue(worker.Job{
		Name: "languagemodel.generate",
		Run: func(jobCtx context.Context) error {
			current, err := s.deps.LanguageModels.Get(jobCtx, id)
			if err != nil || current == nil || current.GenerateAttempt != nonce {
				return err
			}
			return s.deps.LMBuilder.Generate(jobCtx, current)
		},
	})
	if err != nil {
		httputil.WriteServiceUnavailable(w, err.Error())
		return
	}
	m.GenerateAttempt = nonce
	httputil.WriteSuccess(w, m)
}

// computePerplexityLanguageModel bumps the perplexity-attempt nonce
// and enqueues the train/test perplexity evaluation, since it reruns
// estimate-ngram several times and can take as long as generation.
func (s *Server) computePerplexityLanguageModel(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	m, err := s.deps.LanguageModels.Get(ctx, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if m == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "MorphemeLanguageModel", ID: id})
		return
	}
	nonce, err := s.deps.LanguageModels.BumpPerplexityAttempt(ctx, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	err = s.deps.Workers.Foma.Enqueue(worker.Job{
		Name: "languagemodel.compute_perplexity",
		Run: func(jobCtx context.Context) error {
			current, err := s.deps.LanguageModels.Get(jobCtx, id)
			if err != nil || current == nil || current.PerplexityAttempt != nonce {
				return err
			}
			return s.deps.LMBuilder.EvaluatePerplexity(jobCtx, current)
		},
	})
	if err != nil {
		httputil.WriteServiceUnavailable(w, err.Error())
		return
	}
	m.PerplexityAttempt = nonce
	httputil.WriteSuccess(w, m)
}

func (s *Server) getProbabilitiesLanguageModel(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	m, err := s.deps.LanguageModels.Get(ctx, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if m == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "MorphemeLanguageModel", ID: id})
		return
	}
	var body struct {
		Sequences [][]string `json:"morpheme_sequences"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	probabilities, err := s.deps.LMBuilder.GetProbabilities(m, body.Sequences)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, probabilities)
}

func (s *Server) serveArpaLanguageModel(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	rc, err := s.deps.LMBuilder.ServeArpa(id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "text/plain")
	io.Copy(w, rc)
}
