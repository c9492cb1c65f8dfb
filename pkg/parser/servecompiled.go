package parser

import (
	"fmt"
	"io"
	"os"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
)

// ServeCompiled opens the parser's compiled morphophonology binary for
// streaming to a caller (e.g. an HTTP download endpoint). The caller
// must close the returned reader.
func (pr *Parser) ServeCompiled(parserID int64) (io.ReadCloser, error) {
	path := pr.layout.ParserBinaryPath(parserID)
	if !artifacts.Exists(path) {
		return nil, &domain.NotCompiledError{Kind: "MorphologicalParser", ID: parserID}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening compiled parser %d: %w", parserID, err)
	}
	return f, nil
}
