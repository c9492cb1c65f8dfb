package phonology

import (
	"io"
	"os"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
)

// ServeCompiled opens phonologyID's compiled binary for streaming.
func (c *Compiler) ServeCompiled(phonologyID int64) (io.ReadCloser, error) {
	path := c.layout.PhonologyBinaryPath(phonologyID)
	if !artifacts.Exists(path) {
		return nil, &domain.NotCompiledError{Kind: "Phonology", ID: phonologyID}
	}
	return os.Open(path)
}
