package document

import (
	"fmt"

	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/schema"
	"github.com/GeekSage/Machete/internal/x12"
)

// Segment is a bound segment: one slot per element of its descriptor,
// keyed by element reference ("NM103").
type Segment struct {
	desc  *schema.Segment
	slots []ir.FieldSlot
}

// NewSegment returns a segment with every element Missing.
func NewSegment(desc *schema.Segment) *Segment {
	s := &Segment{desc: desc, slots: make([]ir.FieldSlot, len(desc.Elements))}
	for i, e := range desc.Elements {
		s.slots[i] = ir.FieldSlot{Key: ir.FieldKey(e.Ref), Slot: newSlot(e)}
	}
	return s
}

// NewSegmentFor returns an empty segment for a segment reference with the
// elements its qualifiers pin to one value already filled.
func NewSegmentFor(ref *schema.Reference) (*Segment, error) {
	if ref.IsLoop() {
		return nil, fmt.Errorf("%s is a loop reference", ref.Name)
	}
	s := NewSegment(ref.Segment)
	if err := applyQualifiers(s, ref); err != nil {
		return nil, err
	}
	return s, nil
}

// Descriptor returns the schema the segment is bound to.
func (s *Segment) Descriptor() *schema.Segment {
	return s.desc
}

// Tag returns the segment tag.
func (s *Segment) Tag() string {
	return s.desc.Tag
}

// Slots implements ir.Entity.
func (s *Segment) Slots() []ir.FieldSlot {
	return s.slots
}

// Field returns the slot of element ref.
func (s *Segment) Field(ref string) (ir.Slot, bool) {
	return ir.Lookup(s, ir.FieldKey(ref))
}

// Text returns a string element; Missing for other types.
func (s *Segment) Text(ref string) ir.Value[string] {
	return ir.Get[string](s, ir.FieldKey(ref))
}

// SetText stores a string element.
func (s *Segment) SetText(ref, v string) error {
	return ir.Put(s, ir.FieldKey(ref), ir.Present(v))
}

// Composite returns the composite element ref, or nil when Missing.
func (s *Segment) Composite(ref string) *Composite {
	c, _ := ir.Get[*Composite](s, ir.FieldKey(ref)).Get()
	return c
}

// NewComposite creates composite element ref, stores it and returns it.
func (s *Segment) NewComposite(ref string) (*Composite, error) {
	e, ok := s.desc.Element(ref)
	if !ok || !e.IsComposite() {
		return nil, fmt.Errorf("%s: no composite element %q", s.desc.Tag, ref)
	}
	c := NewComposite(e)
	if err := ir.Put(s, ir.FieldKey(ref), ir.Present(c)); err != nil {
		return nil, err
	}
	return c, nil
}

// String renders the segment with default delimiters, for diagnostics.
func (s *Segment) String() string {
	raw, err := encodeSegment(s)
	if err != nil {
		return s.desc.Tag + "<" + err.Error() + ">"
	}
	return raw.String()
}

// Composite is a bound composite element: one slot per component, keyed
// by component reference ("CLM05-01").
type Composite struct {
	desc  schema.Element
	slots []ir.FieldSlot
}

// NewComposite returns a composite with every component Missing.
func NewComposite(desc schema.Element) *Composite {
	c := &Composite{desc: desc, slots: make([]ir.FieldSlot, len(desc.Components))}
	for i, comp := range desc.Components {
		c.slots[i] = ir.FieldSlot{Key: ir.FieldKey(comp.Ref), Slot: newSlot(comp)}
	}
	return c
}

// Descriptor returns the composite element descriptor.
func (c *Composite) Descriptor() schema.Element {
	return c.desc
}

// Slots implements ir.Entity.
func (c *Composite) Slots() []ir.FieldSlot {
	return c.slots
}

// Text returns a string component; Missing for other types.
func (c *Composite) Text(ref string) ir.Value[string] {
	return ir.Get[string](c, ir.FieldKey(ref))
}

// SetText stores a string component.
func (c *Composite) SetText(ref, v string) error {
	return ir.Put(c, ir.FieldKey(ref), ir.Present(v))
}

// decodeSegment binds a raw segment to desc.
func decodeSegment(desc *schema.Segment, raw x12.Segment) (*Segment, error) {
	if len(raw.Elements) > len(desc.Elements) {
		return nil, fmt.Errorf("%d elements, at most %d allowed", len(raw.Elements), len(desc.Elements))
	}
	s := NewSegment(desc)
	for i, el := range raw.Elements {
		if err := decodeElement(s.slots[i].Slot, desc.Elements[i], el); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// encodeSegment renders a bound segment. Trailing empty elements are
// dropped.
func encodeSegment(s *Segment) (x12.Segment, error) {
	elements := make([]x12.Element, len(s.desc.Elements))
	last := 0
	for i, e := range s.desc.Elements {
		el, err := encodeElement(s.slots[i].Slot, e)
		if err != nil {
			return x12.Segment{}, err
		}
		elements[i] = el
		if !el.IsEmpty() {
			last = i + 1
		}
	}
	return x12.Segment{Tag: s.desc.Tag, Elements: elements[:last]}, nil
}

// applyQualifiers fills elements pinned to a single value by the
// reference's qualifiers, so an authored segment selects its reference.
func applyQualifiers(s *Segment, ref *schema.Reference) error {
	for _, q := range ref.Qualifiers {
		if len(q.Values) != 1 || q.Element < 1 || q.Element > len(s.desc.Elements) {
			continue
		}
		e := s.desc.Elements[q.Element-1]
		if q.Component == 0 {
			if kindOf(e.Type) != kindText || e.IsComposite() || e.Repeats() {
				continue
			}
			if err := s.SetText(e.Ref, q.Values[0]); err != nil {
				return err
			}
			continue
		}
		if !e.IsComposite() || q.Component > len(e.Components) {
			continue
		}
		c := s.Composite(e.Ref)
		if c == nil {
			var err error
			if c, err = s.NewComposite(e.Ref); err != nil {
				return err
			}
		}
		if err := c.SetText(e.Components[q.Component-1].Ref, q.Values[0]); err != nil {
			return err
		}
	}
	return nil
}
