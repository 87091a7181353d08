package x12

import "strings"

// Element is one raw element of a segment.
//
// Value is the element text as transmitted. Components is set when the
// text contains the component separator, Repeats when it contains the
// repetition separator; both stay nil otherwise.
type Element struct {
	Value      string   `json:"value"`
	Components []string `json:"components,omitempty"`
	Repeats    []string `json:"repeats,omitempty"`
}

// Simple returns an element carrying a single value.
func Simple(value string) Element {
	return Element{Value: value}
}

// Composite returns an element split into components.
func Composite(components ...string) Element {
	return Element{Components: components}
}

// Repeated returns an element carrying repetitions of a simple value.
func Repeated(values ...string) Element {
	return Element{Repeats: values}
}

// Parts returns the components, or the value as the only part.
func (e Element) Parts() []string {
	if len(e.Components) > 0 {
		return e.Components
	}
	return []string{e.Value}
}

// Repetitions returns the repeats, or the value as the only repetition.
func (e Element) Repetitions() []string {
	if len(e.Repeats) > 0 {
		return e.Repeats
	}
	return []string{e.Value}
}

// IsEmpty reports whether the element carries no text at all.
func (e Element) IsEmpty() bool {
	if len(e.Components) > 0 {
		for _, c := range e.Components {
			if c != "" {
				return false
			}
		}
		return true
	}
	if len(e.Repeats) > 0 {
		for _, r := range e.Repeats {
			if r != "" {
				return false
			}
		}
		return true
	}
	return e.Value == ""
}

// Segment is one raw segment.
type Segment struct {
	Tag      string    `json:"tag"`
	Elements []Element `json:"elements"`

	// Index is the zero-based position in the stream.
	Index int `json:"index"`

	// Offset is the byte offset of the first tag byte.
	Offset int64 `json:"offset"`
}

// Element returns the element at 1-based position n (ISA01 is Element(1)).
// Positions past the end yield an empty element.
func (s Segment) Element(n int) Element {
	if n < 1 || n > len(s.Elements) {
		return Element{}
	}
	return s.Elements[n-1]
}

// Value returns the text of the element at 1-based position n.
func (s Segment) Value(n int) string {
	return s.Element(n).Value
}

// String renders the segment with the default delimiters, for diagnostics.
func (s Segment) String() string {
	var b strings.Builder
	d := DefaultDelimiters()
	b.WriteString(s.Tag)
	for _, e := range s.Elements {
		b.WriteByte(d.Element)
		b.WriteString(elementText(e, d))
	}
	return b.String()
}

func elementText(e Element, d Delimiters) string {
	switch {
	case len(e.Repeats) > 0:
		return strings.Join(e.Repeats, string(d.Repetition))
	case len(e.Components) > 0:
		return strings.Join(e.Components, string(d.Component))
	default:
		return e.Value
	}
}

func splitElement(raw string, d Delimiters) Element {
	e := Element{Value: raw}
	if d.Repetition != 0 && strings.IndexByte(raw, d.Repetition) >= 0 {
		e.Repeats = strings.Split(raw, string(d.Repetition))
	}
	if strings.IndexByte(raw, d.Component) >= 0 {
		e.Components = strings.Split(raw, string(d.Component))
	}
	return e
}
