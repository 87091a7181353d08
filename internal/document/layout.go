package document

import (
	"fmt"

	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/schema"
)

// Layout is a bound loop. It is generic over its descriptor: one slot per
// child reference, keyed by reference name, holding a *Segment or a
// *Layout. Single references use Value slots, repeating references use
// ValueList slots.
type Layout struct {
	desc  *schema.Loop
	slots []ir.FieldSlot
}

// NewLayout returns an empty layout for desc.
func NewLayout(desc *schema.Loop) *Layout {
	l := &Layout{desc: desc, slots: make([]ir.FieldSlot, len(desc.Children))}
	for i, ref := range desc.Children {
		l.slots[i] = ir.FieldSlot{Key: ir.FieldKey(ref.Name), Slot: newChildSlot(ref)}
	}
	return l
}

func newChildSlot(ref *schema.Reference) ir.Slot {
	switch {
	case ref.IsLoop() && ref.Single():
		return &ir.Value[*Layout]{}
	case ref.IsLoop():
		return &ir.ValueList[*Layout]{}
	case ref.Single():
		return &ir.Value[*Segment]{}
	default:
		return &ir.ValueList[*Segment]{}
	}
}

// Descriptor returns the loop the layout is bound to.
func (l *Layout) Descriptor() *schema.Loop {
	return l.desc
}

// Slots implements ir.Entity.
func (l *Layout) Slots() []ir.FieldSlot {
	return l.slots
}

// IsEmpty reports whether no child was bound.
func (l *Layout) IsEmpty() bool {
	return ir.IsEmpty(l)
}

// Segment returns the first occurrence of segment reference name, or nil.
func (l *Layout) Segment(name string) *Segment {
	segs := l.Segments(name)
	if len(segs) == 0 {
		return nil
	}
	return segs[0]
}

// Segments returns every occurrence of segment reference name.
func (l *Layout) Segments(name string) []*Segment {
	slot, ok := ir.Lookup(l, ir.FieldKey(name))
	if !ok {
		return nil
	}
	switch s := slot.(type) {
	case *ir.Value[*Segment]:
		if v, ok := s.Get(); ok {
			return []*Segment{v}
		}
	case *ir.ValueList[*Segment]:
		return s.Items()
	}
	return nil
}

// Loop returns the first occurrence of loop reference name, or nil.
func (l *Layout) Loop(name string) *Layout {
	loops := l.Loops(name)
	if len(loops) == 0 {
		return nil
	}
	return loops[0]
}

// Loops returns every occurrence of loop reference name.
func (l *Layout) Loops(name string) []*Layout {
	slot, ok := ir.Lookup(l, ir.FieldKey(name))
	if !ok {
		return nil
	}
	return layoutsIn(slot)
}

func layoutsIn(slot ir.Slot) []*Layout {
	switch s := slot.(type) {
	case *ir.Value[*Layout]:
		if v, ok := s.Get(); ok {
			return []*Layout{v}
		}
	case *ir.ValueList[*Layout]:
		return s.Items()
	}
	return nil
}

// Count returns the number of occurrences bound to reference name.
func (l *Layout) Count(name string) int {
	ref, i, ok := l.desc.Child(name)
	if !ok {
		return 0
	}
	return l.countAt(ref, i)
}

func (l *Layout) countAt(ref *schema.Reference, i int) int {
	slot := l.slots[i].Slot
	if slot.IsMissing() {
		return 0
	}
	if ref.Single() {
		return 1
	}
	if ref.IsLoop() {
		return slot.(*ir.ValueList[*Layout]).Len()
	}
	return slot.(*ir.ValueList[*Segment]).Len()
}

// AddSegment appends seg under reference name. The segment descriptor must
// be the reference's, and a single reference cannot be filled twice.
func (l *Layout) AddSegment(name string, seg *Segment) error {
	ref, i, ok := l.desc.Child(name)
	if !ok || ref.IsLoop() {
		return fmt.Errorf("loop %s: no segment reference %q", l.desc.ID, name)
	}
	if seg.desc != ref.Segment {
		return fmt.Errorf("loop %s: %s is not a %s segment", l.desc.ID, seg.Tag(), ref.Segment.Tag)
	}
	return l.attach(ref, i, seg, nil)
}

// NewSegment creates a segment for reference name, pre-fills the elements
// its qualifiers pin to one value, and appends it.
func (l *Layout) NewSegment(name string) (*Segment, error) {
	ref, _, ok := l.desc.Child(name)
	if !ok || ref.IsLoop() {
		return nil, fmt.Errorf("loop %s: no segment reference %q", l.desc.ID, name)
	}
	seg := NewSegment(ref.Segment)
	if err := applyQualifiers(seg, ref); err != nil {
		return nil, err
	}
	if err := l.AddSegment(name, seg); err != nil {
		return nil, err
	}
	return seg, nil
}

// AddLoop appends child under loop reference name.
func (l *Layout) AddLoop(name string, child *Layout) error {
	ref, i, ok := l.desc.Child(name)
	if !ok || !ref.IsLoop() {
		return fmt.Errorf("loop %s: no loop reference %q", l.desc.ID, name)
	}
	if child.desc != ref.Loop {
		return fmt.Errorf("loop %s: %s is not a %s loop", l.desc.ID, child.desc.ID, ref.Loop.ID)
	}
	return l.attach(ref, i, nil, child)
}

// NewLoop creates an empty layout for loop reference name and appends it.
// The loop's leading segment is created too, qualifiers applied.
func (l *Layout) NewLoop(name string) (*Layout, error) {
	ref, _, ok := l.desc.Child(name)
	if !ok || !ref.IsLoop() {
		return nil, fmt.Errorf("loop %s: no loop reference %q", l.desc.ID, name)
	}
	child := NewLayout(ref.Loop)
	if first := ref.Loop.First(); first != nil && !first.IsLoop() {
		if _, err := child.NewSegment(first.Name); err != nil {
			return nil, err
		}
	}
	if err := l.AddLoop(name, child); err != nil {
		return nil, err
	}
	return child, nil
}

func (l *Layout) attach(ref *schema.Reference, i int, seg *Segment, child *Layout) error {
	slot := l.slots[i].Slot
	if ref.Single() && !slot.IsMissing() {
		return fmt.Errorf("loop %s: %s already set", l.desc.ID, ref.Name)
	}
	switch s := slot.(type) {
	case *ir.Value[*Segment]:
		s.Set(seg)
	case *ir.ValueList[*Segment]:
		s.Append(seg)
	case *ir.Value[*Layout]:
		s.Set(child)
	case *ir.ValueList[*Layout]:
		s.Append(child)
	}
	return nil
}

// HL returns the HL segment of a hierarchical level, or nil.
func (l *Layout) HL() *Segment {
	if !l.desc.Hierarchical() {
		return nil
	}
	first := l.desc.First()
	if first == nil || first.IsLoop() {
		return nil
	}
	return l.Segment(first.Name)
}

// LevelID returns HL01.
func (l *Layout) LevelID() ir.Value[int64] {
	hl := l.HL()
	if hl == nil {
		return ir.Missing[int64]()
	}
	return ir.Get[int64](hl, "HL01")
}

// ParentID returns HL02. Missing means the level is a root.
func (l *Layout) ParentID() ir.Value[int64] {
	hl := l.HL()
	if hl == nil {
		return ir.Missing[int64]()
	}
	return ir.Get[int64](hl, "HL02")
}

// LevelCode returns HL03, or the descriptor's level code when the HL
// segment does not carry one.
func (l *Layout) LevelCode() string {
	if hl := l.HL(); hl != nil {
		if code, ok := hl.Text("HL03").Get(); ok {
			return code
		}
	}
	return l.desc.Level
}

// Children returns the child levels linked under a hierarchical level, in
// schema order and, per reference, in document order.
func (l *Layout) Children() []*Layout {
	var out []*Layout
	for i, ref := range l.desc.Children {
		if ref.IsLoop() && ref.Loop.Hierarchical() {
			out = append(out, layoutsIn(l.slots[i].Slot)...)
		}
	}
	return out
}

// levelRef returns the reference under which a level with code may be
// linked.
func levelRef(loop *schema.Loop, code string) (*schema.Reference, int, bool) {
	for i, ref := range loop.Children {
		if ref.IsLoop() && ref.Loop.Level == code {
			return ref, i, true
		}
	}
	return nil, -1, false
}

// firstLevelRef returns the index of the first hierarchical child
// reference, or -1.
func firstLevelRef(loop *schema.Loop) int {
	for i, ref := range loop.Children {
		if ref.IsLoop() && ref.Loop.Hierarchical() {
			return i
		}
	}
	return -1
}

// lastLevelRef returns the index of the last hierarchical child reference,
// or -1.
func lastLevelRef(loop *schema.Loop) int {
	for i := len(loop.Children) - 1; i >= 0; i-- {
		ref := loop.Children[i]
		if ref.IsLoop() && ref.Loop.Hierarchical() {
			return i
		}
	}
	return -1
}

func isLevelRef(ref *schema.Reference) bool {
	return ref.IsLoop() && ref.Loop.Hierarchical()
}
