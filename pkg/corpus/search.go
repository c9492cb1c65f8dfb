package corpus

import (
	"context"
	"fmt"

	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/query"
)

// Search evaluates expr (the same query grammar as the global Form
// search) restricted to c's member forms, returning the matching
// subset of c.FormIDs in ascending order.
func (e *Engine) Search(ctx context.Context, c *domain.Corpus, expr query.Expr) ([]int64, error) {
	matched, err := e.forms.SearchIDs(ctx, e.schema, expr)
	if err != nil {
		return nil, fmt.Errorf("compiling corpus search: %w", err)
	}

	members := make(map[int64]bool, len(c.FormIDs))
	for _, id := range c.FormIDs {
		members[id] = true
	}

	out := make([]int64, 0, len(matched))
	for _, id := range matched {
		if members[id] {
			out = append(out, id)
		}
	}
	return out, nil
}
