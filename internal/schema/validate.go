package schema

import (
	"fmt"
	"regexp"

	"github.com/GeekSage/Machete/internal/ir"
)

// Catalog validation codes (E200-E299).
const (
	ErrInvalidCardinality  = "E201" // min > max, negative min, or max of zero
	ErrLoopWithoutSegment  = "E202" // loop is empty or does not start with a segment
	ErrDuplicateReference  = "E203" // two references in one loop share a name
	ErrInvalidElementRef   = "E204" // element ref malformed or not prefixed by its segment tag
	ErrHierarchicalLoop    = "E205" // HL loop does not start with a qualified HL, or a level code repeats
	ErrCompositeComponents = "E206" // composite without components, or components on a simple element
	ErrRepeatingComposite  = "E207" // composite declared repeating
	ErrInvalidElementType  = "E208" // unknown element type or usage
	ErrInvalidLength       = "E209" // min length > max length
	ErrInvalidQualifier    = "E210" // qualifier position outside the segment or without values
	ErrAmbiguousReference  = "E211" // sibling references share a start tag and no qualifier tells them apart
)

var elementRefPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,2}[0-9]{2}(-[0-9]{2})?$`)

// Validate checks a catalog's descriptors. It returns every problem found
// rather than stopping at the first.
func Validate(cat *Catalog) []ir.ValidateResult {
	var results []ir.ValidateResult
	for _, tag := range sortedKeys(cat.Segments) {
		results = append(results, ValidateSegment(cat.Segments[tag])...)
	}
	for _, name := range cat.TransactionNames() {
		tx := cat.Transactions[name]
		results = append(results, ir.Prefix(ir.FieldKey(name), ValidateLoop(TransactionLoop(tx)))...)
	}
	return results
}

// ValidateSegment checks one segment descriptor.
func ValidateSegment(seg *Segment) []ir.ValidateResult {
	var results []ir.ValidateResult
	for _, e := range seg.Elements {
		results = append(results, validateElement(seg.Tag, e, false)...)
	}
	return results
}

func validateElement(tag string, e Element, component bool) []ir.ValidateResult {
	var results []ir.ValidateResult
	key := ir.FieldKey(e.Ref)

	if !elementRefPattern.MatchString(e.Ref) || len(e.Ref) < len(tag) || e.Ref[:len(tag)] != tag {
		results = append(results, ir.Errorf(key, ErrInvalidElementRef,
			"element ref %q is not a designator of segment %s", e.Ref, tag))
	}
	if !e.Type.Valid() {
		results = append(results, ir.Errorf(key, ErrInvalidElementType, "unknown element type %q", e.Type))
	}
	switch e.Usage {
	case UsageRequired, UsageSituational, UsageNotUsed:
	default:
		results = append(results, ir.Errorf(key, ErrInvalidElementType, "unknown usage %q", e.Usage))
	}

	if e.IsComposite() {
		if component {
			results = append(results, ir.Errorf(key, ErrCompositeComponents, "components cannot be composite"))
		}
		if len(e.Components) == 0 {
			results = append(results, ir.Errorf(key, ErrCompositeComponents, "composite element declares no components"))
		}
		if e.Repeats() {
			results = append(results, ir.Errorf(key, ErrRepeatingComposite, "repeating composite elements are not supported"))
		}
		for _, c := range e.Components {
			results = append(results, validateElement(tag, c, true)...)
		}
		return results
	}

	if len(e.Components) > 0 {
		results = append(results, ir.Errorf(key, ErrCompositeComponents, "simple element declares components"))
	}
	if e.MaxLength > 0 && e.MinLength > e.MaxLength {
		results = append(results, ir.Errorf(key, ErrInvalidLength, "min length %d exceeds max length %d", e.MinLength, e.MaxLength))
	}
	if component && e.Repeats() {
		results = append(results, ir.Errorf(key, ErrRepeatingComposite, "components cannot repeat"))
	}
	return results
}

// ValidateLoop checks a loop tree: cardinalities, reference names, loop
// shape, hierarchical levels, and qualifiers.
func ValidateLoop(root *Loop) []ir.ValidateResult {
	var results []ir.ValidateResult
	levels := make(map[string]string)

	root.Walk(func(l *Loop) {
		path := ir.FieldKey(l.ID)
		results = append(results, ir.Prefix(path, validateLoopShape(l))...)

		if l.Hierarchical() {
			if owner, dup := levels[l.Level]; dup && owner != l.ID {
				results = append(results, ir.Errorf(path, ErrHierarchicalLoop,
					"level code %q is also used by loop %s", l.Level, owner))
			}
			levels[l.Level] = l.ID
		}
	})
	return results
}

func validateLoopShape(l *Loop) []ir.ValidateResult {
	var results []ir.ValidateResult

	first := l.First()
	switch {
	case first == nil:
		results = append(results, ir.Errorf("", ErrLoopWithoutSegment, "loop has no children"))
	case first.Segment == nil:
		results = append(results, ir.Errorf(ir.FieldKey(first.Name), ErrLoopWithoutSegment,
			"loop must start with a segment reference"))
	}

	if l.Hierarchical() && first != nil {
		if first.Segment == nil || first.Segment.Tag != "HL" || !qualifiesLevel(first, l.Level) {
			results = append(results, ir.Errorf(ir.FieldKey(l.ID), ErrHierarchicalLoop,
				"hierarchical loop must start with HL qualified by HL03=%s", l.Level))
		}
	}

	names := make(map[string]bool)
	for i, r := range l.Children {
		key := ir.FieldKey(r.Name)
		if r.Name == "" {
			results = append(results, ir.Errorf(ir.FieldKey(fmt.Sprintf("[%d]", i)), ErrDuplicateReference, "reference has no name"))
		} else if names[r.Name] {
			results = append(results, ir.Errorf(key, ErrDuplicateReference, "reference name %q is used twice", r.Name))
		}
		names[r.Name] = true

		if r.Min < 0 || r.Max == 0 || r.Max < Unbounded || (r.Max != Unbounded && r.Min > r.Max) {
			results = append(results, ir.Errorf(key, ErrInvalidCardinality,
				"invalid cardinality %d..%s", r.Min, r.MaxString()))
		}
		if (r.Segment == nil) == (r.Loop == nil) {
			results = append(results, ir.Errorf(key, ErrLoopWithoutSegment, "reference must point at exactly one of segment or loop"))
			continue
		}
		results = append(results, validateQualifiers(key, r)...)

		// Sibling references starting with the same tag must be told apart
		// by qualifiers, or the later one is unreachable.
		for _, prev := range l.Children[:i] {
			if prev.Segment == nil && prev.Loop == nil {
				continue
			}
			if prev.Tag() == r.Tag() && len(startQualifiers(prev)) == 0 && len(startQualifiers(r)) == 0 {
				results = append(results, ir.Warnf(key, ErrAmbiguousReference,
					"reference shares start tag %s with %s and neither is qualified", r.Tag(), prev.Name))
			}
		}
	}
	return results
}

func validateQualifiers(key ir.FieldKey, r *Reference) []ir.ValidateResult {
	var results []ir.ValidateResult
	seg := r.Segment
	if seg == nil {
		if first := r.Loop.First(); first != nil {
			seg = first.Segment
		}
	}
	for _, q := range r.Qualifiers {
		if len(q.Values) == 0 {
			results = append(results, ir.Errorf(key, ErrInvalidQualifier, "qualifier %s has no values", q))
			continue
		}
		if seg == nil {
			continue
		}
		if q.Element < 1 || q.Element > len(seg.Elements) {
			results = append(results, ir.Errorf(key, ErrInvalidQualifier,
				"qualifier element %d is outside segment %s", q.Element, seg.Tag))
			continue
		}
		e := seg.Elements[q.Element-1]
		if q.Component > 0 && (!e.IsComposite() || q.Component > len(e.Components)) {
			results = append(results, ir.Errorf(key, ErrInvalidQualifier,
				"qualifier component %d is not a component of %s", q.Component, e.Ref))
		}
	}
	return results
}

// startQualifiers returns every qualifier constraining the start segment.
func startQualifiers(r *Reference) []Qualifier {
	qs := append([]Qualifier(nil), r.Qualifiers...)
	if r.Loop != nil {
		if first := r.Loop.First(); first != nil {
			qs = append(qs, startQualifiers(first)...)
		}
	}
	return qs
}

func qualifiesLevel(r *Reference, level string) bool {
	for _, q := range r.Qualifiers {
		if q.Element == 3 && q.Component == 0 && len(q.Values) == 1 && q.Values[0] == level {
			return true
		}
	}
	return false
}
