package x12

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Encoder writes raw segments with a fixed delimiter set.
type Encoder struct {
	w      *bufio.Writer
	delims Delimiters
	index  int
}

// NewEncoder returns an Encoder writing to w. Call Flush when done.
func NewEncoder(w io.Writer, d Delimiters) (*Encoder, error) {
	if err := d.Validate(); err != nil {
		return nil, &Error{Code: ErrCodeMalformedEnvelope, Message: err.Error()}
	}
	return &Encoder{w: bufio.NewWriter(w), delims: d}, nil
}

// Encode writes one segment followed by the terminator and suffix.
func (e *Encoder) Encode(seg Segment) error {
	if err := e.check(seg); err != nil {
		return err
	}
	d := e.delims
	if _, err := e.w.WriteString(seg.Tag); err != nil {
		return err
	}
	for _, el := range seg.Elements {
		if err := e.w.WriteByte(d.Element); err != nil {
			return err
		}
		if _, err := e.w.WriteString(elementText(el, d)); err != nil {
			return err
		}
	}
	if err := e.w.WriteByte(d.Segment); err != nil {
		return err
	}
	if _, err := e.w.WriteString(d.Suffix); err != nil {
		return err
	}
	e.index++
	return nil
}

// Flush writes buffered output to the underlying writer.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

// Count returns the number of segments encoded so far.
func (e *Encoder) Count() int {
	return e.index
}

func (e *Encoder) check(seg Segment) error {
	d := e.delims
	fail := func(pos int, value string) error {
		return &Error{
			Code:    ErrCodeDelimiterInValue,
			Message: fmt.Sprintf("element %02d value %q contains a delimiter", pos, value),
			Tag:     seg.Tag,
			Index:   e.index,
		}
	}

	// ISA carries the component and repetition separators as data.
	isa := seg.Tag == "ISA"
	reserved := string([]byte{d.Element, d.Segment})
	if !isa {
		reserved += string(d.Component)
		if d.Repetition != 0 {
			reserved += string(d.Repetition)
		}
	}
	if strings.ContainsAny(seg.Tag, reserved) {
		return fail(0, seg.Tag)
	}
	for i, el := range seg.Elements {
		var parts []string
		switch {
		case len(el.Repeats) > 0:
			parts = el.Repeats
		case len(el.Components) > 0:
			parts = el.Components
		default:
			parts = []string{el.Value}
		}
		for _, p := range parts {
			if strings.ContainsAny(p, reserved) {
				return fail(i+1, p)
			}
		}
	}
	return nil
}
