package phonology

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/dativebase/old/pkg/domain"
)

// TestCase is one #test directive's expected/actual surface-form pair.
type TestCase struct {
	Expected []string `json:"expected"`
	Actual   []string `json:"actual"`
}

// testLinePattern matches a foma #test directive:
// "#test <underlying> -> <surface1>, <surface2>, ..."
var testLinePattern = regexp.MustCompile(`(?m)^#test\s+(\S+)\s*->\s*(.+)$`)

// ParseTestLines extracts the #test directives embedded in a phonology
// script, in the order they appear.
func ParseTestLines(script string) (underlying []string, expected [][]string) {
	for _, m := range testLinePattern.FindAllStringSubmatch(script, -1) {
		underlying = append(underlying, m[1])
		var surfaces []string
		for _, s := range strings.Split(m[2], ",") {
			if s = strings.TrimSpace(s); s != "" {
				surfaces = append(surfaces, s)
			}
		}
		expected = append(expected, surfaces)
	}
	return underlying, expected
}

// RunTests parses the phonology's stored script for #test directives,
// applies each underlying form down through the compiled binary, and
// returns, per underlying form, the expected and actual surface sets,
// each sorted so the two compare as sets regardless of order. It does
// not itself decide whether they match.
func (c *Compiler) RunTests(ctx context.Context, p *domain.Phonology) (map[string]TestCase, error) {
	underlying, expected := ParseTestLines(p.Script)
	if len(underlying) == 0 {
		return map[string]TestCase{}, nil
	}

	actuals, err := c.ApplyDown(ctx, p.ID, underlying)
	if err != nil {
		return nil, err
	}

	results := make(map[string]TestCase, len(underlying))
	for i, u := range underlying {
		results[u] = TestCase{Expected: sortedCopy(expected[i]), Actual: sortedCopy(actuals[i])}
	}
	return results, nil
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}
