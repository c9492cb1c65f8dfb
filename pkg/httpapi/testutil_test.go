package httpapi

import (
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/config"
	"github.com/dativebase/old/pkg/corpus"
	"github.com/dativebase/old/pkg/lm"
	"github.com/dativebase/old/pkg/morphology"
	"github.com/dativebase/old/pkg/observability"
	"github.com/dativebase/old/pkg/parser"
	"github.com/dativebase/old/pkg/phonology"
	"github.com/dativebase/old/pkg/query"
	"github.com/dativebase/old/pkg/restrict"
	"github.com/dativebase/old/pkg/store"
	"github.com/dativebase/old/pkg/toolkit"
	"github.com/dativebase/old/pkg/worker"
)

// testEnv bundles a Server wired against a sqlmock-backed store, for
// handler tests that need to assert on the exact SQL a request drives.
type testEnv struct {
	server *Server
	mock   sqlmock.Sqlmock
}

// newTestEnv builds a Server whose every store is backed by sqlmock,
// and whose compilers/engines are backed by a throwaway artifact tree
// rooted in t.TempDir(). Workers are constructed but never Start-ed, so
// Enqueue succeeds (buffering into the capacity-1 channel) without a
// background goroutine racing the test's own mock expectations.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dialect := query.PostgresDialect{}
	clock := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	baseStore := store.New(db, dialect, clock)

	forms := store.NewFormStore(baseStore)
	formSearches := store.NewFormSearchStore(baseStore)
	corpora := store.NewCorpusStore(baseStore)
	phonologies := store.NewPhonologyStore(baseStore)
	morphologies := store.NewMorphologyStore(baseStore)
	languageModels := store.NewMorphemeLanguageModelStore(baseStore)
	parsers := store.NewMorphologicalParserStore(baseStore)
	collections := store.NewCollectionStore(baseStore, nil)

	layout, err := artifacts.New(t.TempDir(), "test-instance")
	require.NoError(t, err)

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	tools := toolkit.NewRunner(config.ToolsConfig{}, logger)

	filter := restrict.New(1)
	schema := query.NewOLDSchema()
	unrestrictedUserIDs := map[int64]bool{}

	corpusEngine := corpus.NewEngine(forms, formSearches, corpora, schema, dialect, layout, tools, filter, nil)
	phonologyCompiler := phonology.NewCompiler(phonologies, layout, tools, logger)
	morphologyCompiler := morphology.NewCompiler(morphologies, forms, corpora, layout, tools, logger, nil)
	lmBuilder := lm.NewBuilder(languageModels, morphologies, forms, corpora, layout, tools, logger, nil)
	parseCache, err := parser.NewCache(parser.DefaultCacheSize, nil, parser.DefaultCacheTTL)
	require.NoError(t, err)
	parserEngine := parser.New(parsers, phonologies, morphologies, languageModels, lmBuilder, layout, tools,
		parseCache, logger)

	workers := worker.NewPool(logger, nil)

	srv := NewServer(Deps{
		Forms:          forms,
		FormSearches:   formSearches,
		Corpora:        corpora,
		Collections:    collections,
		Phonologies:    phonologies,
		Morphologies:   morphologies,
		LanguageModels: languageModels,
		Parsers:        parsers,

		Schema:  schema,
		Dialect: dialect,

		CorpusEngine:       corpusEngine,
		PhonologyCompiler:  phonologyCompiler,
		MorphologyCompiler: morphologyCompiler,
		LMBuilder:          lmBuilder,
		Parser:             parserEngine,

		Filter:              filter,
		UnrestrictedUserIDs: unrestrictedUserIDs,

		Workers: workers,

		Logger: logger,

		CORSAllowedOrigins: []string{"*"},
	})

	return &testEnv{server: srv, mock: mock}
}

// nowFixture gives row fixtures a stable timestamp without depending on
// the test's own clock value.
func nowFixture() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

// formRowsFixture builds the 22-column row set FormStore.Get/GetByIDs
// scan, one bare-bones form per id, for tests that only care about form
// existence (corpus membership resolution, search result hydration).
func formRowsFixture(ids ...int64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "uuid", "transcription", "phonetic_transcription",
		"narrow_phonetic_transcription", "morpheme_break", "morpheme_gloss",
		"break_gloss_category", "grammaticality", "syntactic_category_id",
		"translations", "tag_ids", "file_ids", "elicitor_id", "enterer_id",
		"verifier_id", "modifier_id", "date_elicited", "datetime_entered",
		"datetime_modified", "morpheme_break_ids", "morpheme_gloss_ids",
	})
	for _, id := range ids {
		rows.AddRow(id, "form-uuid", "chien", "", "", "", "", "", "", nil,
			"[]", "[]", "[]", nil, nil, nil, nil, nil, nowFixture(), nowFixture(), nil, nil)
	}
	return rows
}
