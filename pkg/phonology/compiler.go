package phonology

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/observability"
	"github.com/dativebase/old/pkg/store"
	"github.com/dativebase/old/pkg/toolkit"
)

// DefaultCompileTimeout bounds a single foma compile invocation.
const DefaultCompileTimeout = 30 * time.Second

// Compiler owns a Phonology's on-disk script/binary artifacts and its
// foma/flookup invocations.
type Compiler struct {
	phonologies *store.PhonologyStore
	layout      *artifacts.Layout
	tools       *toolkit.Runner
	logger      *observability.Logger
}

// NewCompiler builds a Compiler.
func NewCompiler(phonologies *store.PhonologyStore, layout *artifacts.Layout, tools *toolkit.Runner, logger *observability.Logger) *Compiler {
	return &Compiler{phonologies: phonologies, layout: layout, tools: tools, logger: logger}
}

// WriteScript NFD-normalizes script (decomposing combining characters
// from their base characters) and writes it to the phonology's
// phonology_<id>.script file, returning the normalized text so the caller can
// persist it as the live row's Script field.
func (c *Compiler) WriteScript(id int64, script string) (string, error) {
	normalized := norm.NFD.String(script)
	if err := artifacts.WriteFile(c.layout.PhonologyScriptPath(id), []byte(normalized)); err != nil {
		return "", err
	}
	return normalized, nil
}

// Compile assembles a foma batch script (phonology_<id>.foma) loading the
// phonology's stored .script file and saving a compiled binary, then invokes foma. It
// mutates p's compile-status fields and persists them. p.CompileAttempt
// must already carry the nonce the caller assigned before enqueuing
// this job (via PhonologyStore.BumpCompileAttempt); Compile does not
// touch it.
func (c *Compiler) Compile(ctx context.Context, p *domain.Phonology) error {
	if !c.tools.Installed("foma") {
		return &domain.ToolNotInstalledError{Tool: "Foma"}
	}

	scriptPath := c.layout.PhonologyScriptPath(p.ID)
	fomaPath := c.layout.PhonologyFomaPath(p.ID)
	binaryPath := c.layout.PhonologyBinaryPath(p.ID)
	batch := fmt.Sprintf("source %s\nsave stack %s\nquit\n", scriptPath, binaryPath)
	if err := artifacts.WriteFile(fomaPath, []byte(batch)); err != nil {
		return err
	}

	res, runErr := c.tools.FomaTimeout(ctx, DefaultCompileTimeout, nil, "-f", fomaPath)
	now := time.Now()
	switch {
	case runErr == nil:
		p.CompileSucceeded = true
		p.CompileMessage = "Compilation process terminated successfully."
		p.DatetimeCompiled = &now
	case errors.As(runErr, new(*domain.ToolTimeoutError)):
		p.CompileSucceeded = false
		p.CompileMessage = "Foma script compilation process timed out."
	default:
		p.CompileSucceeded = false
		p.CompileMessage = compileFailureMessage(res, runErr)
	}

	if c.logger != nil {
		c.logger.WithFields(map[string]interface{}{
			"phonology_id":      p.ID,
			"compile_succeeded": p.CompileSucceeded,
		}).Info("phonology compile finished")
	}

	return c.phonologies.Update(ctx, p)
}

// compileFailureMessage surfaces the tail of foma's stderr when
// available, falling back to the bare error text.
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
