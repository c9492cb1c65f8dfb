package lm

import (
	"context"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
)

// EvaluatePerplexity runs ComputePerplexity and persists the result
// onto m's perplexity/perplexity_computed fields, mirroring
// compute_perplexity's "nil on error, else the mean" status contract.
// m.PerplexityAttempt must already carry the caller's nonce.
func (b *Builder) EvaluatePerplexity(ctx context.Context, m *domain.MorphemeLanguageModel) error {
	perplexity, err := b.ComputePerplexity(ctx, m, DefaultPerplexityIterations)
	if err != nil {
		m.Perplexity = 0
		m.PerplexityComputed = false
		if b.logger != nil {
			b.logger.WithFields(map[string]interface{}{
				"language_model_id": m.ID,
				"error":             err.Error(),
			}).Warn("perplexity computation failed")
		}
		return b.models.Update(ctx, m)
	}
	m.Perplexity = perplexity
	m.PerplexityComputed = true
	return b.models.Update(ctx, m)
}

// GetProbabilities loads m's compiled trie and scores each input
// sequence, implementing the probabilities API (§4.6).
func (b *Builder) GetProbabilities(m *domain.MorphemeLanguageModel, sequences [][]string) (map[string]float64, error) {
	triePath := b.layout.LanguageModelTriePath(m.ID)
	if !artifacts.Exists(triePath) {
		return nil, &domain.NotCompiledError{Kind: "MorphemeLanguageModel", ID: m.ID}
	}
	trie, err := LoadTrie(triePath)
	if err != nil {
		return nil, err
	}
	return GetProbabilities(trie, sequences), nil
}
