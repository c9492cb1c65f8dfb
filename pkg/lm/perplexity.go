package lm

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dativebase/old/pkg/domain"
)

// DefaultPerplexityIterations is compute_perplexity's train/test
// split count (§4.6).
const DefaultPerplexityIterations = 5

// trainFraction is the fraction of lines splitTrainTest puts in the
// train split; the remainder forms the held-out test split.
const trainFraction = 0.8

// ComputePerplexity randomly splits m's training corpus into train/test
// `iterations` times, rebuilding the ARPA on each train split and
// scoring the held-out test split, and returns the arithmetic mean
// perplexity across iterations. The iterations run concurrently via
// errgroup since each is an independent estimate-ngram invocation.
func (b *Builder) ComputePerplexity(ctx context.Context, m *domain.MorphemeLanguageModel, iterations int) (float64, error) {
	if iterations <= 0 {
		iterations = DefaultPerplexityIterations
	}

	lines, err := b.trainingLines(ctx, m)
	if err != nil {
		return 0, err
	}
	if len(lines) < 2 {
		return 0, fmt.Errorf("corpus %d has too few forms to compute perplexity", m.CorpusID)
	}

	dir, err := b.layout.LanguageModelDir(m.ID)
	if err != nil {
		return 0, err
	}

	scores := make([]float64, iterations)
	g, gctx := errgroup.WithContext(ctx)
	for iter := 0; iter < iterations; iter++ {
		iter := iter
		g.Go(func() error {
			score, err := b.perplexityIteration(gctx, m, dir, iter, lines)
			if err != nil {
				return err
			}
			scores[iter] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0.0
	for _, s := range scores {
		total += s
	}
	return total / float64(iterations), nil
}

func (b *Builder) perplexityIteration(ctx context.Context, m *domain.MorphemeLanguageModel, dir string, iter int, lines []string) (float64, error) {
	train, test := splitTrainTest(lines, iter)
	if len(train) == 0 || len(test) == 0 {
		return 0, fmt.Errorf("perplexity iteration %d: empty train or test split", iter)
	}

	trainPath := filepath.Join(dir, "perplexity_"+strconv.Itoa(iter)+"_train.txt")
	arpaPath := filepath.Join(dir, "perplexity_"+strconv.Itoa(iter)+"_arpa.txt")
	vocabPath := filepath.Join(dir, "perplexity_"+strconv.Itoa(iter)+"_vocab.txt")
	defer os.Remove(trainPath)
	defer os.Remove(arpaPath)
	defer os.Remove(vocabPath)

	if err := os.WriteFile(trainPath, []byte(joinLines(train)), 0o644); err != nil {
		return 0, fmt.Errorf("writing perplexity train split: %w", err)
	}
	if err := os.WriteFile(vocabPath, []byte(joinLines(buildVocabulary(train))), 0o644); err != nil {
		return 0, fmt.Errorf("writing perplexity vocabulary: %w", err)
	}

	if _, err := b.tools.EstimateNgramTimeout(ctx, DefaultGenerateTimeout,
		arpaArgs(m, trainPath, vocabPath, arpaPath)...); err != nil {
		return 0, fmt.Errorf("estimating perplexity n-gram: %w", err)
	}

	arpaData, err := os.ReadFile(arpaPath)
	if err != nil {
		return 0, fmt.Errorf("reading perplexity ARPA file: %w", err)
	}
	trie, err := ParseARPA(arpaData)
	if err != nil {
		return 0, err
	}

	return scorePerplexity(trie, test), nil
}

// splitTrainTest deterministically shuffles lines with a per-iteration
// seed (so repeated computations vary the split across iterations but
// stay reproducible within a single run) and divides trainFraction of
// them into train, the rest into test.
func splitTrainTest(lines []string, seed int) (train, test []string) {
	shuffled := make([]string, len(lines))
	copy(shuffled, lines)
	r := rand.New(rand.NewSource(int64(seed) + 1))
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	split := int(float64(len(shuffled)) * trainFraction)
	if split < 1 {
		split = 1
	}
	if split >= len(shuffled) {
		split = len(shuffled) - 1
	}
	return shuffled[:split], shuffled[split:]
}

// scorePerplexity computes corpus perplexity: 10^(-1/N * sum(log10
// P(line))) over held-out lines, N the total count of predicted tokens
// across them: each line's morphemes plus its end sentinel (the start
// sentinel is context only and is not counted).
func scorePerplexity(trie *Trie, testLines []string) float64 {
	totalLogProb := 0.0
	totalTokens := 0
	for _, line := range testLines {
		tokens := strings.Fields(line)
		// tokens already include <s>/</s>; ScoreSequence re-brackets, so
		// strip them here to avoid double bracketing.
		if len(tokens) >= 2 {
			tokens = tokens[1 : len(tokens)-1]
		}
		totalLogProb += trie.ScoreSequence(tokens)
		totalTokens += len(tokens) + 1 // +1 for the end sentinel emitted per line
	}
	if totalTokens == 0 {
		return math.Inf(1)
	}
	return math.Pow(10, -totalLogProb/float64(totalTokens))
}
