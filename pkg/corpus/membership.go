package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/query"
)

// ResolveMembership populates c.FormIDs: from c.FormSearchID's saved
// query when set, otherwise by parsing c.Content as a comma-delimited,
// deduplicated list of form ids. Validation fails with a
// *domain.ValidationError if any referenced id is missing.
func (e *Engine) ResolveMembership(ctx context.Context, c *domain.Corpus) error {
	var ids []int64
	var err error

	if c.FormSearchID != nil {
		ids, err = e.resolveFromSearch(ctx, *c.FormSearchID)
	} else {
		ids, err = parseContentIDs(c.Content)
	}
	if err != nil {
		return err
	}

	forms, err := e.forms.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("loading corpus member forms: %w", err)
	}
	if len(forms) != len(ids) {
		found := make(map[int64]bool, len(forms))
		for _, f := range forms {
			found[f.ID] = true
		}
		var missing []string
		for _, id := range ids {
			if !found[id] {
				missing = append(missing, strconv.FormatInt(id, 10))
			}
		}
		return domain.NewValidationError("content",
			fmt.Sprintf("the following form ids do not exist: %s", strings.Join(missing, ", ")))
	}

	c.FormIDs = ids
	return nil
}

func (e *Engine) resolveFromSearch(ctx context.Context, formSearchID int64) ([]int64, error) {
	fsch, err := e.formSearches.Get(ctx, formSearchID)
	if err != nil {
		return nil, err
	}
	if fsch == nil {
		return nil, &domain.NotFoundError{Kind: "FormSearch", ID: formSearchID}
	}

	var raw interface{}
	if err := json.Unmarshal([]byte(fsch.SearchJSON), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling form search %d: %w", formSearchID, err)
	}
	expr, err := query.ParseFilter(raw)
	if err != nil {
		return nil, err
	}
	return e.forms.SearchIDs(ctx, e.schema, expr)
}

// parseContentIDs parses a comma-delimited id list, trims whitespace,
// and deduplicates while preserving first-seen order.
func parseContentIDs(content string) ([]int64, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}

	seen := make(map[int64]bool)
	var ids []int64
	for _, part := range strings.Split(content, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, domain.NewValidationError("content", fmt.Sprintf("%q is not a valid form id", part))
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// sortedCopy returns a sorted copy of ids, used where membership order
// must be deterministic regardless of insertion order (e.g. treebank
// output, so tests can assert on line counts without caring about
// resolution order).
func sortedCopy(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
