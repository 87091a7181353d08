package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs a scenario and compares the re-encoded document with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, h *Harness, s *Scenario) (*Result, error) {
	t.Helper()

	result, err := h.Run(s)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, s.Name, result)
	return result, nil
}

// AssertGolden compares a result's encoded output with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, result.Output)
}
