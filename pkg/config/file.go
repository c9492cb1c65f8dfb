package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileOverlay is the shape of an optional instance YAML file (the
// teacher pack's convention, per pkg/config's file-overlay table in
// SPEC_FULL.md): a flat map from OLD_* env var name to string value,
// applied via os.Setenv before the rest of LoadConfig reads the
// environment. Values already present in the environment are left
// alone, so a deployed env var always overrides the file.
type fileOverlay map[string]string

// applyFileOverlay reads path as YAML and calls os.Setenv for every key
// not already present in the environment.
func applyFileOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing %s as YAML: %w", path, err)
	}

	for key, value := range overlay {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}
	return nil
}
