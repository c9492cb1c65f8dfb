package lm

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/observability"
	"github.com/dativebase/old/pkg/store"
	"github.com/dativebase/old/pkg/toolkit"
)

// DefaultGenerateTimeout bounds estimate-ngram's ARPA-file creation,
// grounded on constants.py's MORPHEME_LANGUAGE_MODEL_GENERATE_TIMEOUT.
const DefaultGenerateTimeout = 15 * time.Minute

// Builder owns a MorphemeLanguageModel's write_corpus/write_vocabulary/
// write_arpa/generate_trie pipeline and its perplexity evaluation.
type Builder struct {
	models       *store.MorphemeLanguageModelStore
	morphologies *store.MorphologyStore
	forms        *store.FormStore
	corpora      *store.CorpusStore
	layout       *artifacts.Layout
	tools        *toolkit.Runner
	logger       *observability.Logger
	delimiters   []string
}

// NewBuilder builds a Builder.
func NewBuilder(models *store.MorphemeLanguageModelStore, morphologies *store.MorphologyStore,
	forms *store.FormStore, corpora *store.CorpusStore, layout *artifacts.Layout,
	tools *toolkit.Runner, logger *observability.Logger, delimiters []string) *Builder {
	if delimiters == nil {
		delimiters = domain.DefaultMorphemeDelimiters
	}
	return &Builder{models: models, morphologies: morphologies, forms: forms, corpora: corpora,
		layout: layout, tools: tools, logger: logger, delimiters: delimiters}
}

// trainingLines resolves m's training corpus forms and renders them
// into LM text lines, applying the vocabulary-morphology restriction
// when m.VocabularyMorphologyID is set.
func (b *Builder) trainingLines(ctx context.Context, m *domain.MorphemeLanguageModel) ([]string, error) {
	corpus, err := b.corpora.Get(ctx, m.CorpusID)
	if err != nil {
		return nil, err
	}
	if corpus == nil {
		return nil, &domain.NotFoundError{Kind: "Corpus", ID: m.CorpusID}
	}
	forms, err := b.forms.GetByIDs(ctx, corpus.FormIDs)
	if err != nil {
		return nil, err
	}

	var vocabulary map[string]bool
	if m.VocabularyMorphologyID != nil {
		vocabMorphology, err := b.morphologies.Get(ctx, *m.VocabularyMorphologyID)
		if err != nil {
			return nil, err
		}
		if vocabMorphology == nil {
			return nil, &domain.NotFoundError{Kind: "Morphology", ID: *m.VocabularyMorphologyID}
		}
		lexiconCorpus, err := b.corpora.Get(ctx, vocabMorphology.LexiconCorpusID)
		if err != nil {
			return nil, err
		}
		if lexiconCorpus == nil {
			return nil, &domain.NotFoundError{Kind: "Corpus", ID: vocabMorphology.LexiconCorpusID}
		}
		lexiconForms, err := b.forms.GetByIDs(ctx, lexiconCorpus.FormIDs)
		if err != nil {
			return nil, err
		}
		vocabulary = vocabularyFromMorphology(lexiconForms, m.Categorial, b.delimiters)
	}

	return buildLines(forms, m.Categorial, b.delimiters, vocabulary), nil
}

// Generate runs the write_corpus/write_vocabulary/write_arpa/
// generate_trie pipeline, recording the first failing stage's message
// (matching the worker's per-stage try/except accumulation) and
// persisting via MorphemeLanguageModelStore.Update. Success requires
// generate_trie to have actually produced a new trie.pickle.
func (b *Builder) Generate(ctx context.Context, m *domain.MorphemeLanguageModel) error {
	m.GenerateSucceeded = false
	triePath := b.layout.LanguageModelTriePath(m.ID)
	priorModTime := modTime(triePath)

	lines, err := b.trainingLines(ctx, m)
	if err != nil {
		m.GenerateMessage = fmt.Sprintf("Error writing the corpus file. %s", err)
		return b.models.Update(ctx, m)
	}
	corpusPath := b.layout.LanguageModelCorpusPath(m.ID)
	if err := artifacts.WriteFile(corpusPath, []byte(joinLines(lines))); err != nil {
		m.GenerateMessage = fmt.Sprintf("Error writing the corpus file. %s", err)
		return b.models.Update(ctx, m)
	}

	vocabPath := b.layout.LanguageModelVocabularyPath(m.ID)
	if err := artifacts.WriteFile(vocabPath, []byte(joinLines(buildVocabulary(lines)))); err != nil {
		m.GenerateMessage = fmt.Sprintf("Error writing the vocabulary file. %s", err)
		return b.models.Update(ctx, m)
	}

	if !b.tools.Installed("estimate-ngram") {
		m.GenerateMessage = "Error writing the ARPA file. estimate-ngram is not installed."
		return b.models.Update(ctx, m)
	}
	arpaPath := b.layout.LanguageModelArpaPath(m.ID)
	if _, err := b.tools.EstimateNgramTimeout(ctx, DefaultGenerateTimeout,
		arpaArgs(m, corpusPath, vocabPath, arpaPath)...); err != nil {
		m.GenerateMessage = fmt.Sprintf("Error writing the ARPA file. %s", err)
		return b.models.Update(ctx, m)
	}

	arpaData, err := os.ReadFile(arpaPath)
	if err != nil {
		m.GenerateMessage = fmt.Sprintf("Error generating the LMTrie instance. %s", err)
		return b.models.Update(ctx, m)
	}
	trie, err := ParseARPA(arpaData)
	if err != nil {
		m.GenerateMessage = fmt.Sprintf("Error generating the LMTrie instance. %s", err)
		return b.models.Update(ctx, m)
	}
	if err := SaveTrie(triePath, trie); err != nil {
		m.GenerateMessage = fmt.Sprintf("Error generating the LMTrie instance. %s", err)
		return b.models.Update(ctx, m)
	}

	if modTime(triePath).Equal(priorModTime) {
		m.GenerateMessage = "Error generating the LMTrie instance."
		return b.models.Update(ctx, m)
	}

	m.GenerateSucceeded = true
	m.GenerateMessage = "Language model successfully generated."
	if b.logger != nil {
		b.logger.WithFields(map[string]interface{}{"language_model_id": m.ID}).Info("language model generated")
	}
	return b.models.Update(ctx, m)
}

// arpaArgs renders estimate-ngram's invocation, per §4.6: --order
// <order> --smoothing <smoothing> plus the corpus/vocab inputs and
// ARPA output paths.
func arpaArgs(m *domain.MorphemeLanguageModel, corpusPath, vocabPath, arpaPath string) []string {
	return []string{
		"-t", corpusPath,
		"-o", strconv.Itoa(m.Order),
		"-s", m.Smoothing,
		"-wl", vocabPath,
		"-write-lm", arpaPath,
	}
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
