package morphology

import (
	"io"
	"os"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
)

// ServeCompiled opens morphologyID's compiled binary for streaming.
func (c *Compiler) ServeCompiled(morphologyID int64) (io.ReadCloser, error) {
	path := c.layout.MorphologyBinaryPath(morphologyID)
	if !artifacts.Exists(path) {
		return nil, &domain.NotCompiledError{Kind: "Morphology", ID: morphologyID}
	}
	return os.Open(path)
}
