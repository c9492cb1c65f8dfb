package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/morphology"
)

// ApplyUp maps surface transcriptions to their candidate morpheme-
// analysis strings via the parser's composed morphophonology FST.
func (pr *Parser) ApplyUp(ctx context.Context, parserID int64, transcriptions []string) ([][]string, error) {
	return pr.apply(ctx, parserID, morphology.DirectionUp, transcriptions)
}

// ApplyDown maps morpheme-analysis strings down to surface forms.
func (pr *Parser) ApplyDown(ctx context.Context, parserID int64, analyses []string) ([][]string, error) {
	return pr.apply(ctx, parserID, morphology.DirectionDown, analyses)
}

func (pr *Parser) apply(ctx context.Context, parserID int64, direction morphology.Direction, inputs []string) ([][]string, error) {
	binaryPath := pr.layout.ParserBinaryPath(parserID)
	if !artifacts.Exists(binaryPath) {
		return nil, &domain.NotCompiledError{Kind: "MorphologicalParser", ID: parserID}
	}

	var stdin bytes.Buffer
	for _, in := range inputs {
		fmt.Fprintf(&stdin, "%s\n", in)
	}

	args := []string{"-i", "-x"}
	if direction == morphology.DirectionDown {
		args = append(args, "-b")
	}
	args = append(args, binaryPath)

	res, err := pr.tools.Flookup(ctx, stdin.Bytes(), args...)
	if err != nil {
		return nil, fmt.Errorf("applying parser %d %s: %w", parserID, direction, err)
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
