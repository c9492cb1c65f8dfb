package phonology

import (
	"context"
	"io"
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

func TestParseTestLinesExtractsDirectives(t *testing.T) {
	script := "define C [p t k];\n#test chien -> SjE~\n#test chat -> Sa, Sat\nother text\n"
	underlying, expected := ParseTestLines(script)
	require.Equal(t, []string{"chien", "chat"}, underlying)
	assert.Equal(t, []string{"SjE~"}, expected[0])
	assert.Equal(t, []string{"Sa", "Sat"}, expected[1])
}

func TestRunTestsComparesExpectedToActual(t *testing.T) {
	c, _, layout, closeDB := newTestCompiler(t, "")
	defer closeDB()

	require.NoError(t, artifacts.WriteFile(layout.PhonologyBinaryPath(3), []byte("binary")))

	flookupPath := fakeFlookup(t, t.TempDir(),
		"#chien#\t#SjE~#",
		"#chat#\t#Sa#",
	)
	c.tools = toolkit.NewRunner(config.ToolsConfig{FlookupPath: flookupPath, Timeout: time.Second},
		observability.NewLogger(observability.DebugLevel, io.Discard))

	p := &domain.Phonology{ID: 3, Script: "#test chien -> #SjE~#\n#test chat -> #Sat#\n"}
	results, err := c.RunTests(context.Background(), p)
	require.NoError(t, err)

	require.Contains(t, results, "chien")
	assert.Equal(t, []string{"#SjE~#"}, results["chien"].Expected)
	assert.Equal(t, []string{"#SjE~#"}, results["chien"].Actual)

	require.Contains(t, results, "chat")
	assert.Equal(t, []string{"#Sat#"}, results["chat"].Expected)
	assert.Equal(t, []string{"#Sa#"}, results["chat"].Actual)
}

func TestRunTestsReturnsEmptyWhenNoDirectives(t *testing.T) {
	c, _, _, closeDB := newTestCompiler(t, "")
	defer closeDB()

	p := &domain.Phonology{ID: 4, Script: "define C [p t k];"}
	results, err := c.RunTests(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, results)
}
