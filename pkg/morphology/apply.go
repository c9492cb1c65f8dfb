package morphology

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
)

// Direction selects which side of the compiled FST an Apply call feeds:
// Down maps a morpheme-analysis string (upper side) to surface forms;
// Up maps a surface form (lower side) to morpheme-analysis strings.
type Direction string

const (
	DirectionDown Direction = "down"
	DirectionUp   Direction = "up"
)

// Apply runs flookup against the morphology's compiled binary in the
// given direction, returning one slice of outputs per input, in input
// order. It returns domain.NotCompiledError if no binary exists yet.
func (c *Compiler) Apply(ctx context.Context, morphologyID int64, direction Direction, inputs []string) ([][]string, error) {
	binaryPath := c.layout.MorphologyBinaryPath(morphologyID)
	if !artifacts.Exists(binaryPath) {
		return nil, &domain.NotCompiledError{Kind: "Morphology", ID: morphologyID}
	}

	var stdin bytes.Buffer
	for _, in := range inputs {
		fmt.Fprintf(&stdin, "%s\n", in)
	}

	args := []string{"-i", "-x"}
	if direction == DirectionDown {
		args = append(args, "-b")
	}
	args = append(args, binaryPath)

	res, err := c.tools.Flookup(ctx, stdin.Bytes(), args...)
	if err != nil {
		return nil, fmt.Errorf("applying morphology %d %s: %w", morphologyID, direction, err)
	}
	return parseFlookupLines(string(res.Stdout), inputs), nil
}

func parseFlookupLines(output string, inputs []string) [][]string {
	outputs := make([][]string, len(inputs))
	idx := 0
	for _, line := range strings.Split(output, "\n") {
		if line == "" || idx >= len(inputs) {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		input, result := parts[0], parts[1]
		for idx < len(inputs)-1 && input != inputs[idx] {
			idx++
		}
		if result == "+?" {
			continue
		}
		outputs[idx] = append(outputs[idx], result)
	}
	return outputs
}
