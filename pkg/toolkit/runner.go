package toolkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/dativebase/old/pkg/config"
	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/observability"
)

// Result holds a finished invocation's captured output.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Runner invokes the configured external toolkit binaries with a
// per-call timeout, panic recovery, and structured logging, mirroring
// the teacher's SafeGo wrapper but running synchronously since callers
// need the subprocess's result before proceeding (e.g. a compile
// attempt must observe compile_succeeded before returning to the
// caller).
type Runner struct {
	cfg    config.ToolsConfig
	logger *observability.Logger
}

// NewRunner builds a Runner from the instance's tools configuration.
func NewRunner(cfg config.ToolsConfig, logger *observability.Logger) *Runner {
	return &Runner{cfg: cfg, logger: logger}
}

// Foma runs the foma FST compiler with args, typically just the path to
// a .foma batch script (foma -e 'source script.foma' -e exit, or
// foma -l script.foma depending on caller), bounded by the instance's
// configured default timeout.
func (r *Runner) Foma(ctx context.Context, stdin []byte, args ...string) (*Result, error) {
	return r.run(ctx, r.cfg.Timeout, "foma", r.cfg.FomaPath, args, stdin)
}

// FomaTimeout is Foma with an explicit timeout override, for callers
// whose compile ceiling differs from the instance default (the
// Morphology Compiler's effectively-unbounded ceiling, the Parser
// Orchestrator's longer compose-and-compile window).
func (r *Runner) FomaTimeout(ctx context.Context, timeout time.Duration, stdin []byte, args ...string) (*Result, error) {
	return r.run(ctx, timeout, "foma", r.cfg.FomaPath, args, stdin)
}

// Flookup applies a compiled FST to newline-delimited input words fed
// via stdin, used for both phonology applydown and morphological
// parser applyup/applydown.
func (r *Runner) Flookup(ctx context.Context, stdin []byte, args ...string) (*Result, error) {
	return r.run(ctx, r.cfg.Timeout, "flookup", r.cfg.FlookupPath, args, stdin)
}

// Tgrep2 searches a compiled treebank (.t2c) with a tgrep2 pattern.
func (r *Runner) Tgrep2(ctx context.Context, args ...string) (*Result, error) {
	return r.run(ctx, r.cfg.Timeout, "tgrep2", r.cfg.Tgrep2Path, args, nil)
}

// EstimateNgram builds an ARPA-format n-gram language model from a
// training corpus (MITLM's estimate-ngram).
func (r *Runner) EstimateNgram(ctx context.Context, args ...string) (*Result, error) {
	return r.run(ctx, r.cfg.Timeout, "estimate-ngram", r.cfg.EstimateNgramPath, args, nil)
}

// EstimateNgramTimeout is EstimateNgram with an explicit timeout
// override, used by perplexity computation's repeated train/test
// re-estimation passes.
func (r *Runner) EstimateNgramTimeout(ctx context.Context, timeout time.Duration, args ...string) (*Result, error) {
	return r.run(ctx, timeout, "estimate-ngram", r.cfg.EstimateNgramPath, args, nil)
}

// Ffmpeg transcodes uploaded audio/video files.
func (r *Runner) Ffmpeg(ctx context.Context, args ...string) (*Result, error) {
	return r.run(ctx, r.cfg.Timeout, "ffmpeg", r.cfg.FfmpegPath, args, nil)
}

// Installed reports whether the named tool's path is configured and
// resolvable on PATH (or, for an absolute path, present on disk).
func (r *Runner) Installed(tool string) bool {
	path := r.pathFor(tool)
	if path == "" {
		return false
	}
	return locate(path) == nil
}

func (r *Runner) pathFor(tool string) string {
	switch tool {
	case "foma":
		return r.cfg.FomaPath
	case "flookup":
		return r.cfg.FlookupPath
	case "tgrep2":
		return r.cfg.Tgrep2Path
	case "estimate-ngram":
		return r.cfg.EstimateNgramPath
	case "ffmpeg":
		return r.cfg.FfmpegPath
	default:
		return ""
	}
}

// locate resolves path via exec.LookPath, which handles both a bare
// command name (searched on $PATH) and an absolute/relative path
// (checked directly for existence and executable bit).
func locate(path string) error {
	_, err := exec.LookPath(path)
	return err
}

func (r *Runner) run(ctx context.Context, timeout time.Duration, toolName, path string, args []string, stdin []byte) (result *Result, err error) {
	if path == "" {
		return nil, &domain.ToolNotInstalledError{Tool: toolName}
	}
	if locate(path) != nil {
		return nil, &domain.ToolNotInstalledError{Tool: toolName}
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			if r.logger != nil {
				r.logger.WithFields(map[string]interface{}{
					"tool":  toolName,
					"panic": rec,
				}).Error("toolkit invocation panicked")
			}
			err = fmt.Errorf("toolkit: %s panicked: %v", toolName, rec)
		}
	}()

	cmd := exec.CommandContext(runCtx, path, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		if r.logger != nil {
			r.logger.WithField("tool", toolName).Warn("toolkit invocation timed out")
		}
		return nil, &domain.ToolTimeoutError{Tool: toolName, Timeout: timeout.String()}
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()},
				fmt.Errorf("%s exited with %s: %s", toolName, exitErr.String(), stderr.String())
		}
		return nil, fmt.Errorf("running %s: %w", toolName, runErr)
	}

	return &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
}
