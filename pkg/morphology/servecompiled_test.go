package morphology

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
)

func TestServeCompiledFailsWhenNotCompiled(t *testing.T) {
	layout, err := artifacts.New(t.TempDir(), "old")
	require.NoError(t, err)
	c := NewCompiler(nil, nil, nil, layout, nil, nil, nil)

	_, err = c.ServeCompiled(1)
	var notCompiled *domain.NotCompiledError
	require.ErrorAs(t, err, &notCompiled)
}

func TestServeCompiledStreamsBinary(t *testing.T) {
	layout, err := artifacts.New(t.TempDir(), "old")
	require.NoError(t, err)
	c := NewCompiler(nil, nil, nil, layout, nil, nil, nil)

	require.NoError(t, artifacts.WriteFile(layout.MorphologyBinaryPath(1), []byte("binary-contents")))

	rc, err := c.ServeCompiled(1)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "binary-contents", string(data))
}
