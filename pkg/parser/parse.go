package parser

import (
	"context"
	"sort"
	"strings"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
)

// Candidate is one scored morpheme-analysis hypothesis for a parsed
// transcription.
type Candidate struct {
	Analysis string  `json:"analysis"`
	LogProb  float64 `json:"log_prob"`
}

// ParseResult is the outcome of parsing one transcription: its
// maximum-scoring candidate analysis plus the full ranked candidate
// list, highest log-probability first.
type ParseResult struct {
	Transcription string      `json:"transcription"`
	Best          string      `json:"best,omitempty"`
	Candidates    []Candidate `json:"candidates"`
}

// Parse applies the parser's composed FST up on each transcription not
// already present in the parse cache, scores every resulting candidate
// analysis against the parser's language model, and returns one
// ParseResult per transcription. A transcription already cached under
// p's current CompileAttempt is returned without touching the toolkit.
func (pr *Parser) Parse(ctx context.Context, p *domain.MorphologicalParser, transcriptions []string) (map[string]ParseResult, error) {
	if !artifacts.Exists(pr.layout.ParserBinaryPath(p.ID)) {
		return nil, &domain.NotCompiledError{Kind: "MorphologicalParser", ID: p.ID}
	}

	results := make(map[string]ParseResult, len(transcriptions))
	var misses []string
	for _, t := range transcriptions {
		if pr.cache != nil {
			if cached, ok := pr.cache.Get(ctx, p.ID, p.CompileAttempt, t); ok {
				results[t] = cached
				continue
			}
		}
		misses = append(misses, t)
	}
	if len(misses) == 0 {
		return results, nil
	}

	candidateSets, err := pr.ApplyUp(ctx, p.ID, misses)
	if err != nil {
		return nil, err
	}

	languageModel, err := pr.languageModels.Get(ctx, p.LanguageModelID)
	if err != nil {
		return nil, err
	}
	if languageModel == nil {
		return nil, &domain.NotFoundError{Kind: "MorphemeLanguageModel", ID: p.LanguageModelID}
	}

	for i, t := range misses {
		result := pr.scoreCandidates(languageModel, t, candidateSets[i])
		results[t] = result
		if pr.cache != nil {
			pr.cache.Set(ctx, p.ID, p.CompileAttempt, t, result)
		}
	}
	return results, nil
}

func (pr *Parser) scoreCandidates(model *domain.MorphemeLanguageModel, transcription string, analyses []string) ParseResult {
	result := ParseResult{Transcription: transcription}
	if len(analyses) == 0 {
		return result
	}

	sequences := make([][]string, len(analyses))
	for i, a := range analyses {
		sequences[i] = tokenizeAnalysis(a)
	}

	scores, err := pr.lmBuilder.GetProbabilities(model, sequences)
	if err != nil {
		if pr.logger != nil {
			pr.logger.WithError(err).Warn("failed to score parse candidates against the language model")
		}
		for _, a := range analyses {
			result.Candidates = append(result.Candidates, Candidate{Analysis: a})
		}
		result.Best = analyses[0]
		return result
	}

	for i, a := range analyses {
		key := strings.Join(sequences[i], " ")
		result.Candidates = append(result.Candidates, Candidate{Analysis: a, LogProb: scores[key]})
	}
	sort.SliceStable(result.Candidates, func(i, j int) bool {
		return result.Candidates[i].LogProb > result.Candidates[j].LogProb
	})
	result.Best = result.Candidates[0].Analysis
	return result
}

// tokenizeAnalysis recovers an approximate per-morpheme token sequence
// from a flookup apply-up analysis string, for language-model scoring.
// Morphology's upper tape concatenates per-morpheme tokens
// (form+RareDelimiter+gloss[+category]) without an inter-morpheme
// boundary marker, so splitting back into exactly the tokens the
// language model was trained on would require re-segmenting against
// the lexicon. Splitting on RareDelimiter and "+" instead yields a
// coarser but order-preserving token sequence: good enough to rank
// candidates relative to one another without re-deriving morpheme
// boundaries from the compiled FST.
func tokenizeAnalysis(analysis string) []string {
	var tokens []string
	for _, chunk := range strings.Split(analysis, domain.RareDelimiter) {
		for _, piece := range strings.Split(chunk, "+") {
			if piece != "" {
				tokens = append(tokens, piece)
			}
		}
	}
	return tokens
}
