package corpus

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
)

// Tgrep2Search runs pattern against c's compiled .t2c treebank index,
// filters the matching form ids through the restricted-visibility
// filter, and paginates the result.
func (e *Engine) Tgrep2Search(
	ctx context.Context,
	c *domain.Corpus,
	pattern string,
	u *domain.User,
	unrestrictedUserIDs map[int64]bool,
	paginator *domain.Paginator,
) (domain.Page[int64], error) {
	if !e.tools.Installed("tgrep2") {
		return domain.Page[int64]{}, &domain.ToolNotInstalledError{Tool: "TGrep2"}
	}

	t2cPath := e.layout.CorpusTreebankPath(c.ID) + ".t2c"
	if !artifacts.Exists(t2cPath) {
		return domain.Page[int64]{}, &domain.CorpusNotTreebankedError{CorpusID: c.ID}
	}

	res, err := e.tools.Tgrep2(ctx, "-c", t2cPath, pattern)
	if err != nil {
		return domain.Page[int64]{}, fmt.Errorf("running tgrep2 search: %w", err)
	}

	ids := parseTopIDs(string(res.Stdout))

	forms, err := e.forms.GetByIDs(ctx, ids)
	if err != nil {
		return domain.Page[int64]{}, fmt.Errorf("loading tgrep2 match forms: %w", err)
	}
	visible := e.filter.FilterForms(u, unrestrictedUserIDs, forms)

	visibleIDs := make([]int64, len(visible))
	for i, f := range visible {
		visibleIDs[i] = f.ID
	}

	return domain.Paginate(visibleIDs, paginator), nil
}

// parseTopIDs extracts the <id> from each "TOP-<id>" prefix appearing
// in tgrep2's per-line match output, preserving first-seen order and
// deduplicating repeated matches within the same tree.
func parseTopIDs(output string) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, line := range strings.Split(output, "\n") {
		idx := strings.Index(line, "TOP-")
		if idx < 0 {
			continue
		}
		rest := line[idx+len("TOP-"):]
		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		if end == 0 {
			continue
		}
		id, err := strconv.ParseInt(rest[:end], 10, 64)
		if err != nil {
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
