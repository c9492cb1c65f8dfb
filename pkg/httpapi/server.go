package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dativebase/old/pkg/corpus"
	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/httputil"
	"github.com/dativebase/old/pkg/lm"
	"github.com/dativebase/old/pkg/markup"
	"github.com/dativebase/old/pkg/morphology"
	"github.com/dativebase/old/pkg/observability"
	"github.com/dativebase/old/pkg/parser"
	"github.com/dativebase/old/pkg/phonology"
	"github.com/dativebase/old/pkg/propagator"
	"github.com/dativebase/old/pkg/query"
	"github.com/dativebase/old/pkg/restrict"
	"github.com/dativebase/old/pkg/store"
	"github.com/dativebase/old/pkg/worker"
)

// Deps bundles everything a Server wires into route handlers. cmd/old-server
// constructs one of these from config and passes it to NewServer.
type Deps struct {
	Forms          *store.FormStore
	FormSearches   *store.FormSearchStore
	Corpora        *store.CorpusStore
	Collections    *store.CollectionStore
	Phonologies    *store.PhonologyStore
	Morphologies   *store.MorphologyStore
	LanguageModels *store.MorphemeLanguageModelStore
	Parsers        *store.MorphologicalParserStore

	Schema  *query.Schema
	Dialect query.Dialect

	CorpusEngine       *corpus.Engine
	PhonologyCompiler  *phonology.Compiler
	MorphologyCompiler *morphology.Compiler
	LMBuilder          *lm.Builder
	Parser             *parser.Parser

	Filter              *restrict.Filter
	UnrestrictedUserIDs map[int64]bool

	Workers *worker.Pool

	Logger  *observability.Logger
	Metrics *observability.Metrics

	// Readonly mirrors InstanceConfig.Readonly: every mutating request
	// fails with ReadOnlyModeError while true.
	Readonly bool

	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
}

// Server is the gorilla/mux-routed HTTP surface over Deps.
type Server struct {
	deps       Deps
	router     *mux.Router
	propagator *propagator.Propagator
}

// NewServer builds a Server and registers its routes.
func NewServer(deps Deps) *Server {
	renderer := markup.NewRenderer()
	s := &Server{
		deps:   deps,
		router: mux.NewRouter(),
		propagator: propagator.New(
			collectionFetcher{deps.Collections},
			renderer,
			formAccessor{deps.Forms, deps.Filter, deps.UnrestrictedUserIDs},
		),
	}
	s.setupRoutes()
	return s
}

// ServeHTTP lets Server satisfy http.Handler directly; middleware is
// applied once here rather than per-route.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	chain := httputil.Chain(
		httputil.RecoveryMiddleware,
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware,
		httputil.CORSMiddleware(s.deps.CORSAllowedOrigins),
		UserMiddleware,
	)
	if s.deps.Metrics != nil {
		chain = httputil.Chain(chain, observability.HTTPMetricsMiddleware(s.deps.Metrics))
	}
	if s.deps.RequestTimeout > 0 {
		chain = httputil.Chain(chain, httputil.TimeoutMiddleware(s.deps.RequestTimeout))
	}
	chain(s.router).ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	s.registerPhonologyRoutes()
	s.registerMorphologyRoutes()
	s.registerLanguageModelRoutes()
	s.registerParserRoutes()
	s.registerCorpusRoutes()
	s.registerFormRoutes()
	s.registerFormSearchRoutes()
	s.registerCollectionRoutes()
}

// checkWritable fails a mutating request if the instance is in
// read-only mode, the one instance-wide gate every write handler checks
// before touching the store.
func (s *Server) checkWritable(w http.ResponseWriter) bool {
	if s.deps.Readonly {
		httputil.WriteDomainError(w, &domain.ReadOnlyModeError{})
		return false
	}
	return true
}

// collectionFetcher adapts *store.CollectionStore to propagator.CollectionFetcher.
type collectionFetcher struct {
	collections *store.CollectionStore
}

func (f collectionFetcher) GetCollection(ctx context.Context, id int64) (*domain.Collection, error) {
	return f.collections.Get(ctx, id)
}

// formAccessor adapts *store.FormStore + *restrict.Filter to propagator.Accessor.
type formAccessor struct {
	forms               *store.FormStore
	filter              *restrict.Filter
	unrestrictedUserIDs map[int64]bool
}

func (a formAccessor) FormAccessible(ctx context.Context, id int64) (bool, error) {
	form, err := a.forms.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if form == nil {
		return false, nil
	}
	u := userFromContext(ctx)
	return a.filter.Accessible(u, a.unrestrictedUserIDs, form.TagIDs), nil
}

type ctxUserKey struct{}

// withUser stashes the acting user on ctx so formAccessor (called from
// deep inside Propagate) can apply restricted-tag visibility without
// threading a *domain.User through the Propagator interfaces.
func withUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, u)
}

func userFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(ctxUserKey{}).(*domain.User)
	return u
}
