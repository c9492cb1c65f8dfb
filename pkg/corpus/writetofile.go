package corpus

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
)

// Format names a supported writetofile output.
type Format string

const (
	FormatTreebank             Format = "treebank"
	FormatTranscriptionsOnly   Format = "transcriptions only"
)

// WriteToFile resolves c's member forms, writes them in format to the
// corpus's artifact directory, gzips the result, and — for treebank
// only, and only if tgrep2 is installed — compiles a .t2c index via
// `tgrep2 -p`. It returns the CorpusFile rows written (the primary
// artifact; the .gz and .t2c companions share its filename stem).
func (e *Engine) WriteToFile(ctx context.Context, c *domain.Corpus, format Format) ([]*domain.CorpusFile, error) {
	forms, err := e.forms.GetByIDs(ctx, sortedCopy(c.FormIDs))
	if err != nil {
		return nil, fmt.Errorf("loading corpus forms: %w", err)
	}

	var path string
	var buf bytes.Buffer
	switch format {
	case FormatTreebank:
		path = e.layout.CorpusTreebankPath(c.ID)
		for _, f := range forms {
			fmt.Fprintf(&buf, "(TOP-%d %s)\n", f.ID, treebankSyntax(f))
		}
	case FormatTranscriptionsOnly:
		path = e.layout.CorpusTranscriptionsPath(c.ID)
		for _, f := range forms {
			fmt.Fprintf(&buf, "%s\n", f.Transcription)
		}
	default:
		return nil, domain.NewValidationError("format", fmt.Sprintf("unknown corpus file format %q", format))
	}

	if _, err := e.layout.CorpusDir(c.ID); err != nil {
		return nil, err
	}
	if err := artifacts.WriteFile(path, buf.Bytes()); err != nil {
		return nil, err
	}
	gzPath, err := artifacts.GzipFile(path)
	if err != nil {
		return nil, err
	}

	modified := artifacts.ModTime(path)
	files := []*domain.CorpusFile{
		{CorpusID: c.ID, Filename: basename(path), Format: string(format), Modified: modified},
		{CorpusID: c.ID, Filename: basename(gzPath), Format: string(format), Modified: modified},
	}

	if format == FormatTreebank && e.tools.Installed("tgrep2") {
		t2cPath := path + ".t2c"
		if _, err := e.tools.Tgrep2(ctx, "-p", path, t2cPath); err != nil {
			return nil, fmt.Errorf("compiling treebank index: %w", err)
		}
		files = append(files, &domain.CorpusFile{
			CorpusID: c.ID, Filename: basename(t2cPath), Format: string(format),
			Modified: artifacts.ModTime(t2cPath),
		})
	}

	return files, nil
}

// treebankSyntax renders a form's structured-annotation payload for a
// treebank line. Form has no dedicated syntax attribute, so
// BreakGlossCategory (the closest existing structured-annotation
// field) is used, falling back to a flat transcription leaf when blank.
func treebankSyntax(f *domain.Form) string {
	if f.BreakGlossCategory != "" {
		return f.BreakGlossCategory
	}
	return fmt.Sprintf("(S %s)", f.Transcription)
}

func basename(path string) string { return filepath.Base(path) }
