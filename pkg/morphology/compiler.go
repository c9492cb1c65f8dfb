package morphology

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/observability"
	"github.com/dativebase/old/pkg/store"
	"github.com/dativebase/old/pkg/toolkit"
)

// DefaultCompileTimeout bounds a morphology foma compile, treated as
// effectively unbounded by policy (the toolkit still enforces it).
const DefaultCompileTimeout = 180000 * time.Second

// Compiler owns a Morphology's on-disk script/binary artifacts, script
// derivation, and foma/flookup invocations.
type Compiler struct {
	morphologies *store.MorphologyStore
	forms        *store.FormStore
	corpora      *store.CorpusStore
	layout       *artifacts.Layout
	tools        *toolkit.Runner
	logger       *observability.Logger
	delimiters   []string
}

// NewCompiler builds a Compiler.
func NewCompiler(morphologies *store.MorphologyStore, forms *store.FormStore, corpora *store.CorpusStore,
	layout *artifacts.Layout, tools *toolkit.Runner, logger *observability.Logger, delimiters []string) *Compiler {
	if delimiters == nil {
		delimiters = domain.DefaultMorphemeDelimiters
	}
	return &Compiler{
		morphologies: morphologies, forms: forms, corpora: corpora,
		layout: layout, tools: tools, logger: logger, delimiters: delimiters,
	}
}

// Generate derives the morphology's foma script from its rules/
// rules-corpus and lexicon-corpus forms, writes it to
// morphology_<id>.script (Layout.MorphologyScriptPath), and
// updates the morphology's generate-status fields. m.GenerateAttempt
// must already carry the nonce the caller assigned before enqueuing
// (via MorphologyStore.BumpGenerateAttempt); Generate does not touch
// it.
func (c *Compiler) Generate(ctx context.Context, m *domain.Morphology) error {
	lexiconForms, err := c.corpusForms(ctx, m.LexiconCorpusID)
	if err != nil {
		m.GenerateSucceeded = false
		m.GenerateMessage = fmt.Sprintf("Error loading lexicon corpus: %s", err)
		return c.morphologies.Update(ctx, m)
	}

	var rulesCorpusForms []*domain.Form
	if m.RulesCorpusID != nil {
		rulesCorpusForms, err = c.corpusForms(ctx, *m.RulesCorpusID)
		if err != nil {
			m.GenerateSucceeded = false
			m.GenerateMessage = fmt.Sprintf("Error loading rules corpus: %s", err)
			return c.morphologies.Update(ctx, m)
		}
	}

	script, err := GenerateScript(m, lexiconForms, rulesCorpusForms, c.delimiters)
	if err != nil {
		m.GenerateSucceeded = false
		m.GenerateMessage = err.Error()
		return c.morphologies.Update(ctx, m)
	}

	if err := artifacts.WriteFile(c.layout.MorphologyScriptPath(m.ID), []byte(script)); err != nil {
		m.GenerateSucceeded = false
		m.GenerateMessage = fmt.Sprintf("Error writing script: %s", err)
		return c.morphologies.Update(ctx, m)
	}

	m.GenerateSucceeded = true
	m.GenerateMessage = "Morphology script successfully generated."
	return c.morphologies.Update(ctx, m)
}

func (c *Compiler) corpusForms(ctx context.Context, corpusID int64) ([]*domain.Form, error) {
	corpus, err := c.corpora.Get(ctx, corpusID)
	if err != nil {
		return nil, err
	}
	if corpus == nil {
		return nil, &domain.NotFoundError{Kind: "Corpus", ID: corpusID}
	}
	return c.forms.GetByIDs(ctx, corpus.FormIDs)
}

// Compile assembles a foma batch file (morphology_<id>.foma) loading the
// morphology's .script file and saving a compiled binary, then invokes foma with the
// package's long compile ceiling. It mutates m's compile-status fields
// and persists them. m.CompileAttempt must already carry the caller's
// nonce.
func (c *Compiler) Compile(ctx context.Context, m *domain.Morphology) error {
	if !c.tools.Installed("foma") {
		return &domain.ToolNotInstalledError{Tool: "Foma"}
	}

	scriptPath := c.layout.MorphologyScriptPath(m.ID)
	fomaPath := c.layout.MorphologyFomaPath(m.ID)
	binaryPath := c.layout.MorphologyBinaryPath(m.ID)
	batch := fmt.Sprintf("source %s\nsave stack %s\nquit\n", scriptPath, binaryPath)
	if err := artifacts.WriteFile(fomaPath, []byte(batch)); err != nil {
		return err
	}

	res, runErr := c.tools.FomaTimeout(ctx, DefaultCompileTimeout, nil, "-f", fomaPath)
	now := time.Now()
	switch {
	case runErr == nil:
		m.CompileSucceeded = true
		m.CompileMessage = "Compilation process terminated successfully."
		m.DatetimeCompiled = &now
	case errors.As(runErr, new(*domain.ToolTimeoutError)):
		m.CompileSucceeded = false
		m.CompileMessage = "Foma script compilation process timed out."
	default:
		m.CompileSucceeded = false
		m.CompileMessage = compileFailureMessage(res, runErr)
	}

	if c.logger != nil {
		c.logger.WithFields(map[string]interface{}{
			"morphology_id":     m.ID,
			"compile_succeeded": m.CompileSucceeded,
		}).Info("morphology compile finished")
	}

	return c.morphologies.Update(ctx, m)
}

func compileFailureMessage(res *toolkit.Result, err error) string {
	if res != nil && len(res.Stderr) > 0 {
		return tail(string(res.Stderr), 2000)
	}
	return err.Error()
}

func tail(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[len(s)-maxLen:]
}
