package corpus

import (
	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/query"
	"github.com/dativebase/old/pkg/restrict"
	"github.com/dativebase/old/pkg/store"
	"github.com/dativebase/old/pkg/toolkit"
)

// Engine implements the Corpus Engine's operations against a single
// instance's Store and artifact Layout.
type Engine struct {
	forms       *store.FormStore
	formSearches *store.FormSearchStore
	corpora     *store.CorpusStore
	schema      *query.Schema
	dialect     query.Dialect
	layout      *artifacts.Layout
	tools       *toolkit.Runner
	filter      *restrict.Filter
	delimiters  []string
}

// NewEngine builds a Engine. delimiters, when nil, defaults to
// domain.DefaultMorphemeDelimiters.
func NewEngine(
	forms *store.FormStore,
	formSearches *store.FormSearchStore,
	corpora *store.CorpusStore,
	schema *query.Schema,
	dialect query.Dialect,
	layout *artifacts.Layout,
	tools *toolkit.Runner,
	filter *restrict.Filter,
	delimiters []string,
) *Engine {
	if delimiters == nil {
		delimiters = domain.DefaultMorphemeDelimiters
	}
	return &Engine{
		forms:        forms,
		formSearches: formSearches,
		corpora:      corpora,
		schema:       schema,
		dialect:      dialect,
		layout:       layout,
		tools:        tools,
		filter:       filter,
		delimiters:   delimiters,
	}
}
