package lm

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
)

func TestServeArpaFailsWhenNotGenerated(t *testing.T) {
	layout, err := artifacts.New(t.TempDir(), "old")
	require.NoError(t, err)
	b := NewBuilder(nil, nil, nil, nil, layout, nil, nil, nil)

	_, err = b.ServeArpa(1)
	var notCompiled *domain.NotCompiledError
	require.ErrorAs(t, err, &notCompiled)
}

func TestServeArpaStreamsFile(t *testing.T) {
	layout, err := artifacts.New(t.TempDir(), "old")
	require.NoError(t, err)
	b := NewBuilder(nil, nil, nil, nil, layout, nil, nil, nil)

	require.NoError(t, artifacts.WriteFile(layout.LanguageModelArpaPath(1), []byte("\\data\\\n")))

	rc, err := b.ServeArpa(1)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "\\data\\\n", string(data))
}
