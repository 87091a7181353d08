package schema

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/GeekSage/Machete/internal/x12"
)

// Unbounded is the Max of a reference declared ">1".
const Unbounded = -1

// ElementType is the X12 data type of an element.
type ElementType string

const (
	TypeAN        ElementType = "AN"
	TypeID        ElementType = "ID"
	TypeN0        ElementType = "N0"
	TypeN1        ElementType = "N1"
	TypeN2        ElementType = "N2"
	TypeN3        ElementType = "N3"
	TypeN4        ElementType = "N4"
	TypeN5        ElementType = "N5"
	TypeN6        ElementType = "N6"
	TypeN7        ElementType = "N7"
	TypeN8        ElementType = "N8"
	TypeN9        ElementType = "N9"
	TypeR         ElementType = "R"
	TypeDT        ElementType = "DT"
	TypeTM        ElementType = "TM"
	TypeComposite ElementType = "C"
)

// Valid reports whether t is a known element type.
func (t ElementType) Valid() bool {
	switch t {
	case TypeAN, TypeID, TypeR, TypeDT, TypeTM, TypeComposite:
		return true
	}
	_, ok := t.ImpliedDecimals()
	return ok
}

// ImpliedDecimals returns n for an Nn type.
func (t ElementType) ImpliedDecimals() (int, bool) {
	if len(t) != 2 || t[0] != 'N' || t[1] < '0' || t[1] > '9' {
		return 0, false
	}
	return int(t[1] - '0'), true
}

// IsDecimal reports whether values of t are carried as decimals (R, N1-N9).
func (t ElementType) IsDecimal() bool {
	if t == TypeR {
		return true
	}
	n, ok := t.ImpliedDecimals()
	return ok && n > 0
}

// Usage is the requirement designator of an element.
type Usage string

const (
	UsageRequired    Usage = "R"
	UsageSituational Usage = "S"
	UsageNotUsed     Usage = "N"
)

// Element describes one element (or one component of a composite).
type Element struct {
	// Ref is the reference designator and doubles as the field key:
	// "NM103", or "CLM05-01" for a component.
	Ref        string      `json:"ref"`
	Name       string      `json:"name,omitempty"`
	Type       ElementType `json:"type"`
	Usage      Usage       `json:"usage"`
	MinLength  int         `json:"min_length"`
	MaxLength  int         `json:"max_length"`
	Repeat     int         `json:"repeat,omitempty"`
	Components []Element   `json:"components,omitempty"`
}

// IsComposite reports whether the element is split into components.
func (e Element) IsComposite() bool {
	return e.Type == TypeComposite
}

// Repeats reports whether the element may repeat.
func (e Element) Repeats() bool {
	return e.Repeat > 1 || e.Repeat == Unbounded
}

// Segment describes a segment type.
type Segment struct {
	Tag      string    `json:"tag"`
	Name     string    `json:"name,omitempty"`
	Elements []Element `json:"elements"`
}

// Element returns the element descriptor for ref.
func (s *Segment) Element(ref string) (Element, bool) {
	for _, e := range s.Elements {
		if e.Ref == ref {
			return e, true
		}
	}
	return Element{}, false
}

// Qualifier restricts a reference to raw segments carrying one of Values at
// a position. Element is 1-based; Component is 1-based or zero for the
// whole element.
type Qualifier struct {
	Element   int      `json:"element"`
	Component int      `json:"component,omitempty"`
	Values    []string `json:"values"`
}

// Match reports whether seg satisfies the qualifier.
func (q Qualifier) Match(seg x12.Segment) bool {
	el := seg.Element(q.Element)
	v := el.Value
	if q.Component > 0 {
		parts := el.Parts()
		if q.Component > len(parts) {
			v = ""
		} else {
			v = parts[q.Component-1]
		}
	}
	for _, want := range q.Values {
		if v == want {
			return true
		}
	}
	return false
}

// String renders the qualifier as "NM101=41|40".
func (q Qualifier) String() string {
	pos := fmt.Sprintf("%02d", q.Element)
	if q.Component > 0 {
		pos += "-" + strconv.Itoa(q.Component)
	}
	return pos + "=" + strings.Join(q.Values, "|")
}

// Reference places a segment or a loop inside a loop with its cardinality.
// Exactly one of Segment and Loop is set.
type Reference struct {
	// Name is unique within the parent loop and is the field key of the
	// child slot on the bound layout.
	Name       string      `json:"name"`
	Min        int         `json:"min"`
	Max        int         `json:"max"`
	Segment    *Segment    `json:"segment,omitempty"`
	Loop       *Loop       `json:"loop,omitempty"`
	Qualifiers []Qualifier `json:"qualifiers,omitempty"`
}

// IsLoop reports whether the reference points at a loop.
func (r *Reference) IsLoop() bool {
	return r.Loop != nil
}

// Single reports whether at most one occurrence is allowed.
func (r *Reference) Single() bool {
	return r.Max == 1
}

// Allows reports whether n occurrences stay within Max.
func (r *Reference) Allows(n int) bool {
	return r.Max == Unbounded || n <= r.Max
}

// Tag returns the tag of the segment that starts the reference.
func (r *Reference) Tag() string {
	if r.Segment != nil {
		return r.Segment.Tag
	}
	if first := r.Loop.First(); first != nil {
		return first.Tag()
	}
	return ""
}

// Matches reports whether seg can start an occurrence of the reference:
// the tag agrees and every qualifier on the reference (and, for a loop, on
// the loop's leading reference) is satisfied.
func (r *Reference) Matches(seg x12.Segment) bool {
	if seg.Tag != r.Tag() {
		return false
	}
	for _, q := range r.Qualifiers {
		if !q.Match(seg) {
			return false
		}
	}
	if r.Loop != nil {
		first := r.Loop.First()
		return first != nil && first.Matches(seg)
	}
	return true
}

// MaxString renders Max the way implementation guides do.
func (r *Reference) MaxString() string {
	if r.Max == Unbounded {
		return ">1"
	}
	return strconv.Itoa(r.Max)
}

// Loop describes a group of segments and nested loops.
type Loop struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`

	// Level is the HL03 code of a hierarchical loop, empty otherwise.
	Level string `json:"level,omitempty"`

	Children []*Reference `json:"children"`
}

// First returns the leading reference, or nil for an empty loop.
func (l *Loop) First() *Reference {
	if len(l.Children) == 0 {
		return nil
	}
	return l.Children[0]
}

// Hierarchical reports whether the loop is an HL level.
func (l *Loop) Hierarchical() bool {
	return l.Level != ""
}

// Child returns the reference named name.
func (l *Loop) Child(name string) (*Reference, int, bool) {
	for i, r := range l.Children {
		if r.Name == name {
			return r, i, true
		}
	}
	return nil, -1, false
}

// LevelRefs returns the references to hierarchical child loops.
func (l *Loop) LevelRefs() []*Reference {
	var out []*Reference
	for _, r := range l.Children {
		if r.Loop != nil && r.Loop.Hierarchical() {
			out = append(out, r)
		}
	}
	return out
}

// Walk visits l and every loop nested below it, depth first. Each loop is
// visited once even if referenced from several places.
func (l *Loop) Walk(fn func(*Loop)) {
	seen := make(map[*Loop]bool)
	var visit func(*Loop)
	visit = func(cur *Loop) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		fn(cur)
		for _, r := range cur.Children {
			if r.Loop != nil {
				visit(r.Loop)
			}
		}
	}
	visit(l)
}

// Transaction describes one transaction set implementation: the ST01 code,
// the ST03 implementation convention, and the body between ST and SE.
type Transaction struct {
	ID      string `json:"id"`
	Version string `json:"version,omitempty"`
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Body    *Loop  `json:"body"`
}

// Catalog is a compiled set of segment and transaction descriptors.
type Catalog struct {
	Segments     map[string]*Segment
	Transactions map[string]*Transaction
}

// Transaction returns the transaction named name ("837P").
func (c *Catalog) Transaction(name string) (*Transaction, bool) {
	tx, ok := c.Transactions[name]
	return tx, ok
}

// TransactionNames returns the transaction names in sorted order.
func (c *Catalog) TransactionNames() []string {
	return sortedKeys(c.Transactions)
}

// Interchange builds the envelope schema around the named transactions, or
// around every transaction when names is empty.
func (c *Catalog) Interchange(names ...string) (*Loop, error) {
	if len(names) == 0 {
		names = c.TransactionNames()
	}
	txs := make([]*Transaction, 0, len(names))
	for _, n := range names {
		tx, ok := c.Transactions[n]
		if !ok {
			return nil, fmt.Errorf("unknown transaction %q", n)
		}
		txs = append(txs, tx)
	}
	return Interchange(txs...), nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
