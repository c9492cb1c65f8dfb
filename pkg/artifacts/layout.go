package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout roots every derived-resource artifact path at a single
// instance directory, following the teacher's FileSystemStorage's
// rootDir-plus-Join convention.
type Layout struct {
	root string
}

// New builds a Layout rooted at permanentStore/name, creating the root
// directory (and the fixed top-level subdirectories) if absent.
func New(permanentStore, name string) (*Layout, error) {
	root := filepath.Join(permanentStore, name)
	l := &Layout{root: root}
	for _, dir := range []string{
		l.FilesDir(), l.ReducedFilesDir(), l.CorporaDir(), l.PhonologiesDir(),
		l.MorphologiesDir(), l.LanguageModelsDir(), l.ParsersDir(), l.UsersDir(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating artifact directory %s: %w", dir, err)
		}
	}
	return l, nil
}

// Root returns the instance's artifact root.
func (l *Layout) Root() string { return l.root }

// FilesDir holds uploaded binary files.
func (l *Layout) FilesDir() string { return filepath.Join(l.root, "files") }

// ReducedFilesDir holds size-reduced derivatives of FilesDir entries.
func (l *Layout) ReducedFilesDir() string { return filepath.Join(l.FilesDir(), "reduced_files") }

// FilePath returns the path of an uploaded file by its normalized filename.
func (l *Layout) FilePath(filename string) string { return filepath.Join(l.FilesDir(), filename) }

// ReducedFilePath returns the path of a reduced-size derivative.
func (l *Layout) ReducedFilePath(filename string) string {
	return filepath.Join(l.ReducedFilesDir(), filename)
}

// CorporaDir is the root of all corpus directories.
func (l *Layout) CorporaDir() string { return filepath.Join(l.root, "corpora") }

// CorpusDir returns (and creates) the directory for corpus id.
func (l *Layout) CorpusDir(id int64) (string, error) {
	dir := filepath.Join(l.CorporaDir(), fmt.Sprintf("corpus_%d", id))
	return dir, os.MkdirAll(dir, 0o755)
}

// CorpusTreebankPath returns corpus_<id>.tbk under the corpus's directory.
func (l *Layout) CorpusTreebankPath(id int64) string {
	return filepath.Join(l.CorporaDir(), fmt.Sprintf("corpus_%d", id), fmt.Sprintf("corpus_%d.tbk", id))
}

// CorpusTranscriptionsPath returns corpus_<id>_transcriptions.txt.
func (l *Layout) CorpusTranscriptionsPath(id int64) string {
	return filepath.Join(l.CorporaDir(), fmt.Sprintf("corpus_%d", id), fmt.Sprintf("corpus_%d_transcriptions.txt", id))
}

// PhonologiesDir is the root of all phonology directories.
func (l *Layout) PhonologiesDir() string { return filepath.Join(l.root, "phonologies") }

// PhonologyDir returns (and creates) the directory for phonology id.
func (l *Layout) PhonologyDir(id int64) (string, error) {
	dir := filepath.Join(l.PhonologiesDir(), fmt.Sprintf("phonology_%d", id))
	return dir, os.MkdirAll(dir, 0o755)
}

// PhonologyScriptPath returns phonology_<id>.script.
func (l *Layout) PhonologyScriptPath(id int64) string {
	return l.phonologyFile(id, "script")
}

// PhonologyFomaPath returns phonology_<id>.foma, the assembled foma batch
// script that loads the .script file and compiles it.
func (l *Layout) PhonologyFomaPath(id int64) string {
	return l.phonologyFile(id, "foma")
}

// PhonologyShellPath returns phonology_<id>.sh, the invocation wrapper.
func (l *Layout) PhonologyShellPath(id int64) string {
	return l.phonologyFile(id, "sh")
}

// PhonologyBinaryPath returns the compiled FST binary phonology_<id>.
func (l *Layout) PhonologyBinaryPath(id int64) string {
	return filepath.Join(l.PhonologiesDir(), fmt.Sprintf("phonology_%d", id), fmt.Sprintf("phonology_%d", id))
}

func (l *Layout) phonologyFile(id int64, ext string) string {
	return filepath.Join(l.PhonologiesDir(), fmt.Sprintf("phonology_%d", id), fmt.Sprintf("phonology_%d.%s", id, ext))
}

// MorphologiesDir is the root of all morphology directories.
func (l *Layout) MorphologiesDir() string { return filepath.Join(l.root, "morphologies") }

// MorphologyDir returns (and creates) the directory for morphology id.
func (l *Layout) MorphologyDir(id int64) (string, error) {
	dir := filepath.Join(l.MorphologiesDir(), fmt.Sprintf("morphology_%d", id))
	return dir, os.MkdirAll(dir, 0o755)
}

// MorphologyScriptPath returns morphology_<id>.script.
func (l *Layout) MorphologyScriptPath(id int64) string { return l.morphologyFile(id, "script") }

// MorphologyFomaPath returns morphology_<id>.foma.
func (l *Layout) MorphologyFomaPath(id int64) string { return l.morphologyFile(id, "foma") }

// MorphologyBinaryPath returns the compiled FST binary morphology_<id>.
func (l *Layout) MorphologyBinaryPath(id int64) string {
	return filepath.Join(l.MorphologiesDir(), fmt.Sprintf("morphology_%d", id), fmt.Sprintf("morphology_%d", id))
}

// MorphologyLexiconPath returns morphology_<id>_lexicon.pickle, the
// serialized lexicon derived from the rules/lexicon corpora.
func (l *Layout) MorphologyLexiconPath(id int64) string {
	return filepath.Join(l.MorphologiesDir(), fmt.Sprintf("morphology_%d", id), fmt.Sprintf("morphology_%d_lexicon.pickle", id))
}

func (l *Layout) morphologyFile(id int64, ext string) string {
	return filepath.Join(l.MorphologiesDir(), fmt.Sprintf("morphology_%d", id), fmt.Sprintf("morphology_%d.%s", id, ext))
}

// LanguageModelsDir is the root of all language-model directories.
func (l *Layout) LanguageModelsDir() string {
	return filepath.Join(l.root, "morpheme_language_models")
}

// LanguageModelDir returns (and creates) the directory for LM id.
func (l *Layout) LanguageModelDir(id int64) (string, error) {
	dir := filepath.Join(l.LanguageModelsDir(), fmt.Sprintf("morpheme_language_model_%d", id))
	return dir, os.MkdirAll(dir, 0o755)
}

// LanguageModelCorpusPath returns corpus.txt: one training sentence per line.
func (l *Layout) LanguageModelCorpusPath(id int64) string { return l.lmFile(id, "corpus.txt") }

// LanguageModelVocabularyPath returns vocab.txt: the sorted unique token inventory.
func (l *Layout) LanguageModelVocabularyPath(id int64) string { return l.lmFile(id, "vocab.txt") }

// LanguageModelArpaPath returns arpa.txt: the estimate-ngram output.
func (l *Layout) LanguageModelArpaPath(id int64) string { return l.lmFile(id, "arpa.txt") }

// LanguageModelTriePath returns trie.pickle: the serialized n-gram trie.
func (l *Layout) LanguageModelTriePath(id int64) string { return l.lmFile(id, "trie.pickle") }

func (l *Layout) lmFile(id int64, name string) string {
	return filepath.Join(l.LanguageModelsDir(), fmt.Sprintf("morpheme_language_model_%d", id), name)
}

// ParsersDir is the root of all morphological-parser directories.
func (l *Layout) ParsersDir() string { return filepath.Join(l.root, "morphological_parsers") }

// ParserDir returns (and creates) the directory for parser id.
func (l *Layout) ParserDir(id int64) (string, error) {
	dir := filepath.Join(l.ParsersDir(), fmt.Sprintf("morphological_parser_%d", id))
	return dir, os.MkdirAll(dir, 0o755)
}

// ParserFomaPath returns the composed morphophonology foma script.
func (l *Layout) ParserFomaPath(id int64) string { return l.parserFile(id, "foma") }

// ParserBinaryPath returns the compiled composed FST binary.
func (l *Layout) ParserBinaryPath(id int64) string {
	return filepath.Join(l.ParsersDir(), fmt.Sprintf("morphological_parser_%d", id), fmt.Sprintf("morphological_parser_%d", id))
}

// ParserConfigPath returns morphological_parser_<id>.config.pickle, bundled by export.
func (l *Layout) ParserConfigPath(id int64) string { return l.parserFile(id, "config.pickle") }

// ParserCachePath returns morphological_parser_<id>.cache.pickle, the on-disk parse-cache persistence target.
func (l *Layout) ParserCachePath(id int64) string { return l.parserFile(id, "cache.pickle") }

func (l *Layout) parserFile(id int64, name string) string {
	return filepath.Join(l.ParsersDir(), fmt.Sprintf("morphological_parser_%d", id), fmt.Sprintf("morphological_parser_%d.%s", id, name))
}

// UsersDir is the root of per-user directories (arbitrary per-user files).
func (l *Layout) UsersDir() string { return filepath.Join(l.root, "users") }

// UserDir returns (and creates) the directory for username.
func (l *Layout) UserDir(username string) (string, error) {
	dir := filepath.Join(l.UsersDir(), username)
	return dir, os.MkdirAll(dir, 0o755)
}
