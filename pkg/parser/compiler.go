package parser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/lm"
	"github.com/dativebase/old/pkg/observability"
	"github.com/dativebase/old/pkg/store"
	"github.com/dativebase/old/pkg/toolkit"
)

// DefaultCompileTimeout bounds a morphophonology compile, long because
// the composed network is the product of two independently-sized FSTs.
const DefaultCompileTimeout = 1 * time.Hour

// Parser owns a MorphologicalParser's on-disk artifacts: the composed
// foma script/binary, its parse cache, and its export bundle.
type Parser struct {
	parsers        *store.MorphologicalParserStore
	phonologies    *store.PhonologyStore
	morphologies   *store.MorphologyStore
	languageModels *store.MorphemeLanguageModelStore
	lmBuilder      *lm.Builder
	layout         *artifacts.Layout
	tools          *toolkit.Runner
	cache          *Cache
	logger         *observability.Logger
}

// New builds a Parser.
func New(parsers *store.MorphologicalParserStore, phonologies *store.PhonologyStore, morphologies *store.MorphologyStore,
	languageModels *store.MorphemeLanguageModelStore, lmBuilder *lm.Builder, layout *artifacts.Layout,
	tools *toolkit.Runner, cache *Cache, logger *observability.Logger) *Parser {
	return &Parser{
		parsers: parsers, phonologies: phonologies, morphologies: morphologies,
		languageModels: languageModels, lmBuilder: lmBuilder, layout: layout,
		tools: tools, cache: cache, logger: logger,
	}
}

// GenerateAndCompile composes the parser's Morphology and Phonology FSTs
// into a single morphophonology binary: Morphology's lower (surface)
// tape feeds Phonology's upper tape, so applying the composed FST up
// maps a surface transcription to candidate morpheme analyses, and
// applying it down maps an analysis to a surface form. Both component
// FSTs must already be compiled. It mutates p's compile-status fields
// and persists them; p.CompileAttempt must already carry the caller's
// nonce (via MorphologicalParserStore.BumpCompileAttempt). On a
// successful recompile it flushes and resets the parser's parse cache,
// since cached parses keyed to the prior compile attempt are now stale.
func (pr *Parser) GenerateAndCompile(ctx context.Context, p *domain.MorphologicalParser) error {
	if !pr.tools.Installed("foma") {
		return &domain.ToolNotInstalledError{Tool: "Foma"}
	}

	morphology, err := pr.morphologies.Get(ctx, p.MorphologyID)
	if err != nil {
		return err
	}
	if morphology == nil {
		return &domain.NotFoundError{Kind: "Morphology", ID: p.MorphologyID}
	}
	phonology, err := pr.phonologies.Get(ctx, p.PhonologyID)
	if err != nil {
		return err
	}
	if phonology == nil {
		return &domain.NotFoundError{Kind: "Phonology", ID: p.PhonologyID}
	}

	morphologyBinary := pr.layout.MorphologyBinaryPath(morphology.ID)
	phonologyBinary := pr.layout.PhonologyBinaryPath(phonology.ID)
	if !artifacts.Exists(morphologyBinary) {
		p.CompileSucceeded = false
		p.CompileMessage = "Cannot compile: this parser's morphology has not been compiled."
		return pr.parsers.Update(ctx, p)
	}
	if !artifacts.Exists(phonologyBinary) {
		p.CompileSucceeded = false
		p.CompileMessage = "Cannot compile: this parser's phonology has not been compiled."
		return pr.parsers.Update(ctx, p)
	}

	fomaPath := pr.layout.ParserFomaPath(p.ID)
	binaryPath := pr.layout.ParserBinaryPath(p.ID)
	// Load both compiled networks onto foma's stack, morphology first so
	// phonology ends up on top, then compose: morphology .o. phonology.
	batch := fmt.Sprintf("load stack %s\nload stack %s\ncompose net net\nsave stack %s\nquit\n",
		morphologyBinary, phonologyBinary, binaryPath)
	if err := artifacts.WriteFile(fomaPath, []byte(batch)); err != nil {
		return err
	}

	res, runErr := pr.tools.FomaTimeout(ctx, DefaultCompileTimeout, nil, "-f", fomaPath)
	now := time.Now()
	switch {
	case runErr == nil:
		p.CompileSucceeded = true
		p.CompileMessage = "Morphophonology compiled successfully."
		p.DatetimeCompiled = &now
	case errors.As(runErr, new(*domain.ToolTimeoutError)):
		p.CompileSucceeded = false
		p.CompileMessage = "Morphophonology compilation process timed out."
	default:
		p.CompileSucceeded = false
		p.CompileMessage = compileFailureMessage(res, runErr)
	}

	if pr.logger != nil {
		pr.logger.WithFields(map[string]interface{}{
			"parser_id":         p.ID,
			"compile_succeeded": p.CompileSucceeded,
		}).Info("morphological parser compile finished")
	}

	if err := pr.parsers.Update(ctx, p); err != nil {
		return err
	}

	if p.CompileSucceeded && pr.cache != nil {
		if err := pr.cache.Clear(true, pr.layout.ParserCachePath(p.ID)); err != nil && pr.logger != nil {
			pr.logger.WithError(err).Warn("failed to persist parse cache after recompile")
		}
	}
	return nil
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
