package morphology

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/config"
	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/observability"
	"github.com/dativebase/old/pkg/toolkit"
)

func TestApplyFailsWhenNotCompiled(t *testing.T) {
	c, _, _, closeDB := newTestCompiler(t, "")
	defer closeDB()

	_, err := c.Apply(context.Background(), 7, DirectionDown, []string{"chien" + domain.RareDelimiter + "dog"})
	var notCompiled *domain.NotCompiledError
	require.ErrorAs(t, err, &notCompiled)
	assert.Equal(t, "Morphology", notCompiled.Kind)
	assert.Equal(t, int64(7), notCompiled.ID)
}

func TestApplyDownUsesBackwardsFlag(t *testing.T) {
	c, _, layout, closeDB := newTestCompiler(t, "")
	defer closeDB()
	require.NoError(t, artifacts.WriteFile(layout.MorphologyBinaryPath(1), []byte("binary")))

	upper := "chien" + domain.RareDelimiter + "dog"
	dir := t.TempDir()
	flookupPath := filepath.Join(dir, "fake-flookup")
	script := "#!/bin/sh\necho \"$@\" > " + filepath.Join(dir, "args.txt") + "\ncat <<'EOF'\n" + upper + "\tchien\nEOF\n"
	require.NoError(t, os.WriteFile(flookupPath, []byte(script), 0o755))
	c.tools = toolkit.NewRunner(config.ToolsConfig{FlookupPath: flookupPath, Timeout: time.Second},
		observability.NewLogger(observability.DebugLevel, io.Discard))

	outputs, err := c.Apply(context.Background(), 1, DirectionDown, []string{upper})
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, []string{"chien"}, outputs[0])

	captured, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(captured), "-b")
}

func TestApplyUpParsesMultipleAnalyses(t *testing.T) {
	c, _, layout, closeDB := newTestCompiler(t, "")
	defer closeDB()
	require.NoError(t, artifacts.WriteFile(layout.MorphologyBinaryPath(1), []byte("binary")))

	flookupPath := fakeFlookup(t, t.TempDir(),
		"chiens\tchien"+domain.RareDelimiter+"dog",
		"chiens\tchien"+domain.RareDelimiter+"dog2",
	)
	c.tools = toolkit.NewRunner(config.ToolsConfig{FlookupPath: flookupPath, Timeout: time.Second},
		observability.NewLogger(observability.DebugLevel, io.Discard))

	outputs, err := c.Apply(context.Background(), 1, DirectionUp, []string{"chiens"})
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, []string{"chien" + domain.RareDelimiter + "dog", "chien" + domain.RareDelimiter + "dog2"}, outputs[0])
}

func TestApplySkipsNoMatchMarker(t *testing.T) {
	c, _, layout, closeDB := newTestCompiler(t, "")
	defer closeDB()
	require.NoError(t, artifacts.WriteFile(layout.MorphologyBinaryPath(1), []byte("binary")))

	flookupPath := fakeFlookup(t, t.TempDir(), "xyz\t+?")
	c.tools = toolkit.NewRunner(config.ToolsConfig{FlookupPath: flookupPath, Timeout: time.Second},
		observability.NewLogger(observability.DebugLevel, io.Discard))

	outputs, err := c.Apply(context.Background(), 1, DirectionUp, []string{"xyz"})
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Empty(t, outputs[0])
}
