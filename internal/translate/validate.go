package translate

import (
	"strings"

	"github.com/GeekSage/Machete/internal/ir"
)

// Validate checks the specification against its result and input types and
// returns every finding. Nested inline specifications are checked too,
// their keys prefixed with the parent field.
func (s *Spec[R, I, S]) Validate() []ir.ValidateResult {
	var results []ir.ValidateResult
	if s.newResult == nil || s.newInput == nil {
		return append(results, ir.Errorf("", ErrInvalidRule, "specification %s needs result and input constructors", s.name))
	}
	result := s.newResult()
	input := s.newInput()

	claims := make(map[ir.FieldKey][]RuleKind)
	for _, r := range s.rules {
		if _, ok := ir.Lookup(result, r.info.Key); !ok {
			results = append(results, ir.Errorf(r.info.Key, ErrInvalidTargetReference,
				"%s rule names a field the result does not have", r.info.Kind))
			continue
		}
		claims[r.info.Key] = append(claims[r.info.Key], r.info.Kind)
		results = append(results, r.validate(result, input)...)
	}

	for _, f := range ir.Fields(result) {
		kinds := claims[f.Key]
		switch {
		case len(kinds) == 0:
			results = append(results, ir.Errorf(f.Key, ErrUnmappedField,
				"no rule produces this field; copy, set or exclude it"))
		case len(kinds) > 1:
			names := make([]string, len(kinds))
			for i, k := range kinds {
				names[i] = k.String()
			}
			results = append(results, ir.Errorf(f.Key, ErrConflictingRule,
				"claimed by %d rules: %s", len(kinds), strings.Join(names, ", ")))
		}
	}
	return results
}
