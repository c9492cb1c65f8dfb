package parser

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
)

// exportConfig is the gob-encoded snapshot written to config.pickle,
// enough to identify which component artifacts a parser bundle
// depends on without a database round trip.
type exportConfig struct {
	ParserID        int64
	Name            string
	PhonologyID     int64
	MorphologyID    int64
	LanguageModelID int64
	CompileAttempt  string
}

const exportUsageNote = `This archive bundles a compiled OLD morphological parser.

morphological_parser_<id>     the compiled foma FST binary
morphological_parser_<id>.foma the batch script that produced it
morphological_parser_<id>.config.pickle gob-encoded metadata about the source parser
morphological_parser_<id>.cache.pickle  gob-encoded snapshot of previously-computed parses

To apply the FST directly (requires flookup from the foma toolkit):

    echo "<a transcription>" | flookup -i -x morphological_parser_<id>
`

// Export assembles the parser's self-contained bundle: its compiled
// binary and foma script, a config.pickle snapshot of the component
// artifacts it depends on, a cache.pickle snapshot of its current parse
// cache, and a usage note, all zipped to path.
func (pr *Parser) Export(p *domain.MorphologicalParser, path string) error {
	binaryPath := pr.layout.ParserBinaryPath(p.ID)
	if !artifacts.Exists(binaryPath) {
		return &domain.NotCompiledError{Kind: "MorphologicalParser", ID: p.ID}
	}

	if err := pr.writeExportConfig(p, pr.layout.ParserConfigPath(p.ID)); err != nil {
		return err
	}
	if pr.cache != nil {
		if err := pr.cache.Export(pr.layout.ParserCachePath(p.ID)); err != nil {
			return err
		}
	}

	dir := filepath.Dir(binaryPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading parser %d directory: %w", p.ID, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	zipFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive %s: %w", path, err)
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".zip") {
			continue
		}
		if err := addFileToZip(zipWriter, filepath.Join(dir, entry.Name()), entry.Name()); err != nil {
			return err
		}
	}

	readme, err := zipWriter.Create("README.txt")
	if err != nil {
		return fmt.Errorf("writing export readme: %w", err)
	}
	if _, err := readme.Write([]byte(exportUsageNote)); err != nil {
		return fmt.Errorf("writing export readme: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("closing archive %s: %w", path, err)
	}
	return nil
}

func addFileToZip(w *zip.Writer, srcPath, zipName string) error {
	content, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("reading %s for export: %w", srcPath, err)
	}
	zipEntry, err := w.Create(zipName)
	if err != nil {
		return fmt.Errorf("creating zip entry %s: %w", zipName, err)
	}
	_, err = zipEntry.Write(content)
	return err
}

func (pr *Parser) writeExportConfig(p *domain.MorphologicalParser, path string) error {
	cfg := exportConfig{
		ParserID:        p.ID,
		Name:            p.Name,
		PhonologyID:     p.PhonologyID,
		MorphologyID:    p.MorphologyID,
		LanguageModelID: p.LanguageModelID,
		CompileAttempt:  p.CompileAttempt,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding parser export config: %w", err)
	}
	return artifacts.WriteFile(path, buf.Bytes())
}
