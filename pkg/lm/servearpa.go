package lm

import (
	"io"
	"os"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
)

// ServeArpa opens languageModelID's generated ARPA file for streaming.
func (b *Builder) ServeArpa(languageModelID int64) (io.ReadCloser, error) {
	path := b.layout.LanguageModelArpaPath(languageModelID)
	if !artifacts.Exists(path) {
		return nil, &domain.NotCompiledError{Kind: "MorphemeLanguageModel", ID: languageModelID}
	}
	return os.Open(path)
}
