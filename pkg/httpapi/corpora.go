package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dativebase/old/pkg/corpus"
	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/httputil"
	"github.com/dativebase/old/pkg/query"
)

func (s *Server) registerCorpusRoutes() {
	r := s.router
	r.HandleFunc("/corpora", s.listCorpora).Methods("GET")
	r.HandleFunc("/corpora", s.createCorpus).Methods("POST")
	r.HandleFunc("/corpora/{id}", s.getCorpus).Methods("GET")
	r.HandleFunc("/corpora/{id}", s.updateCorpus).Methods("PUT")
	r.HandleFunc("/corpora/{id}", s.deleteCorpus).Methods("DELETE")
	r.HandleFunc("/corpora/{id}/history", s.corpusHistory).Methods("GET")
	r.HandleFunc("/corpora/{id}", s.searchCorpus).Methods("SEARCH")
	r.HandleFunc("/corpora/{id}/tgrep2", s.tgrep2Corpus).Methods("SEARCH")
	r.HandleFunc("/corpora/{id}/writetofile", s.writeToFileCorpus).Methods("PUT")
	r.HandleFunc("/corpora/{id}/servefile/{filename}", s.serveFileCorpus).Methods("GET")
	r.HandleFunc("/corpora/{id}/get_word_category_sequences", s.wordCategorySequencesCorpus).Methods("GET")
}

func (s *Server) listCorpora(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Corpora.List(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, domain.Paginate(items, nil))
}

func (s *Server) createCorpus(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	var c domain.Corpus
	if !decodeBody(w, r, &c) {
		return
	}
	ctx := r.Context()
	if err := s.deps.CorpusEngine.ResolveMembership(ctx, &c); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if err := s.deps.Corpora.Create(ctx, &c); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, &c)
}

func (s *Server) getCorpus(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	c, err := s.deps.Corpora.Get(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if c == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "Corpus", ID: id})
		return
	}
	httputil.WriteSuccess(w, c)
}

func (s *Server) updateCorpus(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	var c domain.Corpus
	if !decodeBody(w, r, &c) {
		return
	}
	c.ID = id
	ctx := r.Context()
	if err := s.deps.CorpusEngine.ResolveMembership(ctx, &c); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if err := s.deps.Corpora.Update(ctx, &c); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, &c)
}

func (s *Server) deleteCorpus(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Corpora.Delete(r.Context(), id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) corpusHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.deps.Corpora.History(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, h)
}

// searchCorpus evaluates a query expression against the corpus's own
// member forms, scoping the global search grammar to this corpus.
func (s *Server) searchCorpus(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCorpus(w, r)
	if !ok {
		return
	}
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
	ids, err := s.deps.CorpusEngine.Search(r.Context(), c, expr)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, domain.Paginate(ids, nil))
}

func (s *Server) tgrep2Corpus(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCorpus(w, r)
	if !ok {
		return
	}
	var body struct {
		Pattern string `json:"tgrep2_pattern"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	u := CurrentUser(r)
	page, err := s.deps.CorpusEngine.Tgrep2Search(r.Context(), c, body.Pattern, u, s.deps.UnrestrictedUserIDs, nil)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, page)
}

func (s *Server) writeToFileCorpus(w http.ResponseWriter, r *http.Request) {
	if !s.checkWritable(w) {
		return
	}
	c, ok := s.loadCorpus(w, r)
	if !ok {
		return
	}
	var body struct {
		Format string `json:"format"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	files, err := s.deps.CorpusEngine.WriteToFile(r.Context(), c, corpus.Format(body.Format))
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, files)
}

func (s *Server) serveFileCorpus(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCorpus(w, r)
	if !ok {
		return
	}
	filename := mux.Vars(r)["filename"]
	data, err := s.deps.CorpusEngine.ServeFile(r.Context(), c, filename)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

func (s *Server) wordCategorySequencesCorpus(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCorpus(w, r)
	if !ok {
		return
	}
	minCount := 1
	if raw := r.URL.Query().Get("min_count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			minCount = n
		}
	}
	results, err := s.deps.CorpusEngine.WordCategorySequences(r.Context(), c, minCount)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, results)
}

func (s *Server) loadCorpus(w http.ResponseWriter, r *http.Request) (*domain.Corpus, bool) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return nil, false
	}
	c, err := s.deps.Corpora.Get(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return nil, false
	}
	if c == nil {
		httputil.WriteDomainError(w, &domain.NotFoundError{Kind: "Corpus", ID: id})
		return nil, false
	}
	return c, true
}
