package corpus

import (
	"context"
	"path/filepath"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
)

// ServeFile reads the raw bytes of one of c's previously written
// artifacts (named by its CorpusFile.Filename, e.g.
// "corpus_3.tbk.gz") for an HTTP handler to stream back.
func (e *Engine) ServeFile(ctx context.Context, c *domain.Corpus, filename string) ([]byte, error) {
	dir, err := e.layout.CorpusDir(c.ID)
	if err != nil {
		return nil, err
	}
	return artifacts.ReadFile(filepath.Join(dir, filename))
}
