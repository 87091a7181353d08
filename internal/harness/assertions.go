package harness

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Path     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion %s %s: expected %s, got %s", e.Type, e.Path, e.Expected, e.Actual)
}

// step is one path element: a field name, a list index, or both.
type step struct {
	field   string
	indexes []int
}

var stepPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)?((?:\[[0-9]+\])*)$`)

func parsePath(path string) ([]step, error) {
	var steps []step
	for _, part := range strings.Split(path, "/") {
		m := stepPattern.FindStringSubmatch(part)
		if m == nil || part == "" {
			return nil, fmt.Errorf("invalid path %q at %q", path, part)
		}
		st := step{field: m[1]}
		for _, idx := range strings.Split(m[2], "]") {
			if idx == "" {
				continue
			}
			n, err := strconv.Atoi(strings.TrimPrefix(idx, "["))
			if err != nil {
				return nil, fmt.Errorf("invalid index in %q: %w", path, err)
			}
			st.indexes = append(st.indexes, n)
		}
		steps = append(steps, st)
	}
	return steps, nil
}

// lookup resolves path against a snapshot. Missing fields and
// out-of-range indexes resolve to false.
func lookup(root any, path string) (any, bool) {
	steps, err := parsePath(path)
	if err != nil {
		return nil, false
	}
	cur := root
	for _, st := range steps {
		if st.field != "" {
			obj, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			if cur, ok = obj[st.field]; !ok {
				return nil, false
			}
		}
		for _, i := range st.indexes {
			list, ok := cur.([]any)
			if !ok || i >= len(list) {
				return nil, false
			}
			cur = list[i]
		}
	}
	return cur, true
}

// EvaluateAssertions checks every assertion against snapshot and returns
// the failures.
func EvaluateAssertions(snapshot map[string]any, assertions []Assertion) []error {
	var errs []error
	for _, a := range assertions {
		if err := evaluate(snapshot, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func evaluate(snapshot map[string]any, a Assertion) error {
	got, found := lookup(snapshot, a.Path)
	switch a.Type {
	case AssertEquals:
		want := fmt.Sprint(a.Value)
		if !found {
			return &AssertionError{Type: a.Type, Path: a.Path, Expected: strconv.Quote(want), Actual: "missing"}
		}
		if _, entity := got.(map[string]any); entity {
			return &AssertionError{Type: a.Type, Path: a.Path, Expected: strconv.Quote(want), Actual: "an entity"}
		}
		if text := fmt.Sprint(got); text != want {
			return &AssertionError{Type: a.Type, Path: a.Path, Expected: strconv.Quote(want), Actual: strconv.Quote(text)}
		}
	case AssertMissing:
		if found {
			return &AssertionError{Type: a.Type, Path: a.Path, Expected: "missing", Actual: fmt.Sprintf("%v", got)}
		}
	case AssertCount:
		list, ok := got.([]any)
		switch {
		case !found && a.Count == 0:
		case !found:
			return &AssertionError{Type: a.Type, Path: a.Path, Expected: strconv.Itoa(a.Count), Actual: "missing"}
		case !ok:
			return &AssertionError{Type: a.Type, Path: a.Path, Expected: strconv.Itoa(a.Count), Actual: "not a list"}
		case len(list) != a.Count:
			return &AssertionError{Type: a.Type, Path: a.Path, Expected: strconv.Itoa(a.Count), Actual: strconv.Itoa(len(list))}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
