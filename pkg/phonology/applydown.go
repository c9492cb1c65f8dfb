package phonology

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
)

// wordBoundary is the symbol foma scripts use to mark word edges; every
// apply-down input is wrapped in it before being fed to flookup.
const wordBoundary = "#"

// ApplyDown wraps each transcription in the word-boundary symbol and
// applies the phonology's compiled binary downward via flookup,
// returning one surface-form list per input, order preserved.
func (c *Compiler) ApplyDown(ctx context.Context, phonologyID int64, transcriptions []string) ([][]string, error) {
	binaryPath := c.layout.PhonologyBinaryPath(phonologyID)
	if !artifacts.Exists(binaryPath) {
		return nil, &domain.NotCompiledError{Kind: "Phonology", ID: phonologyID}
	}

	inputs := make([]string, len(transcriptions))
	var stdin bytes.Buffer
	for i, t := range transcriptions {
		inputs[i] = wordBoundary + t + wordBoundary
		fmt.Fprintf(&stdin, "%s\n", inputs[i])
	}

	res, err := c.tools.Flookup(ctx, stdin.Bytes(), "-i", "-x", "-b", binaryPath)
	if err != nil {
		return nil, fmt.Errorf("applying phonology %d down: %w", phonologyID, err)
	}

	return parseFlookupOutput(string(res.Stdout), inputs), nil
}

// parseFlookupOutput groups flookup's tab-separated "input\toutput"
// lines against the ordered list of inputs actually sent, returning one
// surface-form slice per input (empty when flookup produced no match).
// A line advances to the next input once it no longer matches the
// input flookup is currently grouped under.
func parseFlookupOutput(output string, inputs []string) [][]string {
	surfaces := make([][]string, len(inputs))
	idx := 0
	for _, line := range strings.Split(output, "\n") {
		if line == "" || idx >= len(inputs) {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		input, surface := parts[0], parts[1]
		for idx < len(inputs)-1 && input != inputs[idx] {
			idx++
		}
		if surface == "+?" {
			continue
		}
		surfaces[idx] = append(surfaces[idx], surface)
	}
	return surfaces
}
