package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFileOverlaySetsUnsetVars(t *testing.T) {
	clearEnv(t, "OLD_NAME", "OLD_READONLY")

	dir := t.TempDir()
	path := filepath.Join(dir, "instance.yaml")
	require.NoError(t, os.WriteFile(path, []byte("OLD_NAME: blackfoot\nOLD_READONLY: \"1\"\n"), 0o600))

	require.NoError(t, applyFileOverlay(path))
	assert.Equal(t, "blackfoot", os.Getenv("OLD_NAME"))
	assert.Equal(t, "1", os.Getenv("OLD_READONLY"))
}

func TestApplyFileOverlayDoesNotOverrideExistingEnv(t *testing.T) {
	clearEnv(t, "OLD_NAME")
	os.Setenv("OLD_NAME", "already-set")

	dir := t.TempDir()
	path := filepath.Join(dir, "instance.yaml")
	require.NoError(t, os.WriteFile(path, []byte("OLD_NAME: blackfoot\n"), 0o600))

	require.NoError(t, applyFileOverlay(path))
	assert.Equal(t, "already-set", os.Getenv("OLD_NAME"))
}

func TestApplyFileOverlayMissingFile(t *testing.T) {
	err := applyFileOverlay("/nonexistent/path/instance.yaml")
	assert.Error(t, err)
}
