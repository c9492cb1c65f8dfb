package corpus

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dativebase/old/pkg/domain"
)

// CategorySequenceResult is one distinct category-sequence tuple
// observed across a corpus's member forms, and the ids of forms whose
// break_gloss_category produced it.
type CategorySequenceResult struct {
	Sequence []string `json:"sequence"`
	FormIDs  []int64  `json:"form_ids"`
}

// WordCategorySequences extracts a category-sequence tuple from each
// member form's BreakGlossCategory, groups form ids by sequence, and
// returns the groups sorted by descending support (ties broken by the
// sequence's string form for determinism), optionally filtered to
// sequences with at least minCount member forms.
func (e *Engine) WordCategorySequences(ctx context.Context, c *domain.Corpus, minCount int) ([]CategorySequenceResult, error) {
	forms, err := e.forms.GetByIDs(ctx, sortedCopy(c.FormIDs))
	if err != nil {
		return nil, fmt.Errorf("loading corpus forms: %w", err)
	}

	groups := make(map[string][]int64)
	sequences := make(map[string][]string)
	for _, f := range forms {
		if f.BreakGlossCategory == "" {
			continue
		}
		seq := domain.CategorySequence(f.BreakGlossCategory, e.delimiters)
		key := strings.Join(seq, " ")
		groups[key] = append(groups[key], f.ID)
		sequences[key] = seq
	}

	results := make([]CategorySequenceResult, 0, len(groups))
	for key, ids := range groups {
		if minCount > 0 && len(ids) < minCount {
			continue
		}
		results = append(results, CategorySequenceResult{Sequence: sequences[key], FormIDs: ids})
	}

	sort.Slice(results, func(i, j int) bool {
		if len(results[i].FormIDs) != len(results[j].FormIDs) {
			return len(results[i].FormIDs) > len(results[j].FormIDs)
		}
		return strings.Join(results[i].Sequence, " ") < strings.Join(results[j].Sequence, " ")
	})
	return results, nil
}
