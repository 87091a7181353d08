package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is one conformance case.
type Scenario struct {
	// Name identifies the scenario and its golden file.
	Name string `yaml:"name"`

	// Description says what the scenario validates.
	Description string `yaml:"description"`

	// Input is the X12 file, relative to the scenario file.
	Input string `yaml:"input"`

	// Directory is an optional payer directory, relative to the scenario
	// file.
	Directory string `yaml:"directory,omitempty"`

	Expect Expect `yaml:"expect"`

	// Assertions check fields of the decoded snapshot.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect lists the pipeline outcomes a scenario requires.
type Expect struct {
	// Error is the code parsing or decoding must fail with. When set, no other
	// expectation may be given.
	Error string `yaml:"error,omitempty"`

	// Batches is the number of 837P transactions decoded.
	Batches *int `yaml:"batches,omitempty"`

	// Conformant requires document checks to report no errors.
	Conformant bool `yaml:"conformant,omitempty"`

	// RoundTrip requires the bound document to write back byte-identical.
	RoundTrip bool `yaml:"roundtrip,omitempty"`

	// TranslateRoundTrip requires decode then encode to reproduce the
	// input byte-identical.
	TranslateRoundTrip bool `yaml:"translate_roundtrip,omitempty"`

	// Archive requires the interchange to archive once, and a second put
	// to be a no-op.
	Archive bool `yaml:"archive,omitempty"`
}

// Assertion checks one snapshot path.
type Assertion struct {
	// Type is equals, missing or count.
	Type string `yaml:"type"`

	// Path selects the field, e.g. "batches[0]/ClaimType".
	Path string `yaml:"path"`

	// Value is the expected value (equals), compared by its text form.
	Value any `yaml:"value,omitempty"`

	// Count is the expected list length (count).
	Count int `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertEquals  = "equals"
	AssertMissing = "missing"
	AssertCount   = "count"
)

// LoadScenario reads a scenario file. Unknown keys are rejected and file
// paths are resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	s.Input = resolve(base, s.Input)
	s.Directory = resolve(base, s.Directory)

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

// LoadScenarios reads every .yaml file in dir, ordered by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios found in %s", dir)
	}

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Input == "" {
		return fmt.Errorf("input is required")
	}
	if _, err := os.Stat(s.Input); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if s.Directory != "" {
		if _, err := os.Stat(s.Directory); err != nil {
			return fmt.Errorf("directory: %w", err)
		}
	}

	e := s.Expect
	if e.Error != "" {
		if e.Batches != nil || e.Conformant || e.RoundTrip || e.TranslateRoundTrip || e.Archive || len(s.Assertions) > 0 {
			return fmt.Errorf("expect.error excludes every other expectation and assertion")
		}
		return nil
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	if a.Path == "" {
		return fmt.Errorf("assertions[%d]: path is required", index)
	}
	if _, err := parsePath(a.Path); err != nil {
		return fmt.Errorf("assertions[%d]: %w", index, err)
	}
	switch a.Type {
	case AssertEquals:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for equals", index)
		}
	case AssertMissing:
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
