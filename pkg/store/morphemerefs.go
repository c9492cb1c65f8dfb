package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dativebase/old/pkg/domain"
)

// morphemeIndex maps a (break, gloss, category) triple to the ids of
// every form carrying that segment at some aligned position, built once
// per rebuild pass so cross-referencing doesn't re-scan the forms table
// per morpheme position.
type morphemeIndex map[string][]int64

func morphemeKey(breakSeg, glossSeg, category string) string {
	return breakSeg + domain.RareDelimiter + glossSeg + domain.RareDelimiter + category
}

// alignedLen returns the shortest of the three aligned sequences, since a
// malformed or partially-entered form may have mismatched segment counts.
func alignedLen(breaks, glosses, categories []string) int {
	n := len(breaks)
	if len(glosses) < n {
		n = len(glosses)
	}
	if len(categories) < n {
		n = len(categories)
	}
	return n
}

func buildMorphemeIndex(forms []*domain.Form, delimiters []string) morphemeIndex {
	idx := make(morphemeIndex)
	for _, f := range forms {
		breaks := domain.SplitMorphemes(f.MorphemeBreak, delimiters)
		glosses := domain.SplitMorphemes(f.MorphemeGloss, delimiters)
		categories := domain.CategorySequence(f.BreakGlossCategory, delimiters)
		for i := 0; i < alignedLen(breaks, glosses, categories); i++ {
			key := morphemeKey(breaks[i], glosses[i], categories[i])
			idx[key] = append(idx[key], f.ID)
		}
	}
	return idx
}

// crossReference computes f's morpheme_break_ids/morpheme_gloss_ids
// against idx: for each of f's own morpheme positions, the referenced ids
// are every other form carrying a matching (break, gloss, category)
// triple at some position of its own (§4.9).
func crossReference(f *domain.Form, idx morphemeIndex, delimiters []string) ([][]int64, [][]int64) {
	breaks := domain.SplitMorphemes(f.MorphemeBreak, delimiters)
	glosses := domain.SplitMorphemes(f.MorphemeGloss, delimiters)
	categories := domain.CategorySequence(f.BreakGlossCategory, delimiters)
	n := alignedLen(breaks, glosses, categories)

	breakIDs := make([][]int64, n)
	glossIDs := make([][]int64, n)
	for i := 0; i < n; i++ {
		key := morphemeKey(breaks[i], glosses[i], categories[i])
		var matches []int64
		for _, id := range idx[key] {
			if id != f.ID {
				matches = append(matches, id)
			}
		}
		breakIDs[i] = matches
		glossIDs[i] = matches
	}
	return breakIDs, glossIDs
}

// RebuildMorphemeReferences recomputes morpheme_break_ids/morpheme_gloss_ids
// for every form against the current full form inventory. A single form's
// own save only cross-references the inventory as it stood at save time;
// this is the administrator-invoked job (§4.9) that propagates changes in
// referenced forms out to everything that pointed at them, run on a
// schedule by the cron job in cmd/old-server. Returns the number of forms
// updated.
func (fs *FormStore) RebuildMorphemeReferences(ctx context.Context, delimiters []string) (int, error) {
	ctx, span := fs.span(ctx, "RebuildMorphemeReferences", "all")
	defer span.End()

	rows, err := fs.db.QueryContext(ctx,
		`SELECT id, morpheme_break, morpheme_gloss, break_gloss_category FROM forms`)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("loading forms for morpheme reference rebuild: %w", err)
	}

	var forms []*domain.Form
	for rows.Next() {
		f := &domain.Form{}
		if err := rows.Scan(&f.ID, &f.MorphemeBreak, &f.MorphemeGloss, &f.BreakGlossCategory); err != nil {
			rows.Close()
			span.RecordError(err)
			return 0, fmt.Errorf("scanning form for morpheme reference rebuild: %w", err)
		}
		forms = append(forms, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		span.RecordError(err)
		return 0, err
	}
	rows.Close()

	idx := buildMorphemeIndex(forms, delimiters)

	updated := 0
	for _, f := range forms {
		breakIDs, glossIDs := crossReference(f, idx, delimiters)
		breakJSON, err := json.Marshal(breakIDs)
		if err != nil {
			return updated, err
		}
		glossJSON, err := json.Marshal(glossIDs)
		if err != nil {
			return updated, err
		}

		q := fmt.Sprintf(`UPDATE forms SET morpheme_break_ids=%s, morpheme_gloss_ids=%s WHERE id=%s`,
			fs.ph(1), fs.ph(2), fs.ph(3))
		if _, err := fs.db.ExecContext(ctx, q, breakJSON, glossJSON, f.ID); err != nil {
			span.RecordError(err)
			return updated, fmt.Errorf("updating morpheme references for form %d: %w", f.ID, err)
		}
		updated++
	}
	return updated, nil
}
