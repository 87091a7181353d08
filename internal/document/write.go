package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/GeekSage/Machete/internal/schema"
	"github.com/GeekSage/Machete/internal/x12"
)

// Write emits doc in schema order with the document's delimiters, or the
// default delimiters when none are set. Hierarchical levels come out in
// pre-order: each level followed by its descendants.
func Write(w io.Writer, doc *Document) error {
	d := doc.Delimiters
	if d.Element == 0 {
		d = x12.DefaultDelimiters()
	}
	return WriteLayout(w, doc.Root, d)
}

// WriteLayout emits one layout subtree, for example a single transaction
// set outside its envelope.
func WriteLayout(w io.Writer, l *Layout, d x12.Delimiters) error {
	enc, err := x12.NewEncoder(w, d)
	if err != nil {
		return err
	}
	wr := &writer{enc: enc, delims: d}
	if err := wr.layout(l, l.desc.ID); err != nil {
		return err
	}
	slog.Debug("wrote layout", "loop", l.desc.ID, "segments", enc.Count())
	return enc.Flush()
}

// Marshal returns the written form of doc.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type writer struct {
	enc    *x12.Encoder
	delims x12.Delimiters
}

func (w *writer) layout(l *Layout, path string) error {
	for i, ref := range l.desc.Children {
		refPath := path + "/" + ref.Name
		slot := l.slots[i].Slot

		var n int
		if ref.IsLoop() {
			loops := nonEmptyLayouts(layoutsIn(slot))
			n = len(loops)
			if err := w.checkCount(ref, n, refPath); err != nil {
				return err
			}
			for k, child := range loops {
				childPath := refPath
				if !ref.Single() {
					childPath = fmt.Sprintf("%s[%d]", refPath, k)
				}
				if err := w.layout(child, childPath); err != nil {
					return err
				}
			}
			continue
		}

		segs := nonEmptySegments(l.Segments(ref.Name))
		n = len(segs)
		if err := w.checkCount(ref, n, refPath); err != nil {
			return err
		}
		for _, seg := range segs {
			if err := w.segment(seg, refPath); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *writer) checkCount(ref *schema.Reference, n int, path string) error {
	if n < ref.Min {
		e := newError(ErrCodeRequiredEntityMissing, path,
			"%s requires %d occurrence(s), graph has %d", ref.Name, ref.Min, n)
		e.Tag = ref.Tag()
		return e
	}
	if !ref.Allows(n) {
		e := newError(ErrCodeCardinalityExceeded, path,
			"%s allows at most %s occurrence(s), graph has %d", ref.Name, ref.MaxString(), n)
		e.Tag = ref.Tag()
		return e
	}
	return nil
}

func (w *writer) segment(seg *Segment, path string) error {
	raw, err := encodeSegment(seg)
	if err != nil {
		e := newError(ErrCodeInvalidElementValue, path, "%v", err)
		e.Tag = seg.Tag()
		return e
	}
	if raw.Tag == "ISA" {
		if err := w.checkInterchangeHeader(seg, path); err != nil {
			return err
		}
	}
	if err := w.enc.Encode(raw); err != nil {
		var xe *x12.Error
		if errors.As(err, &xe) && xe.Code == x12.ErrCodeDelimiterInValue {
			e := newError(ErrCodeDelimiterInValue, path, "%s", xe.Message)
			e.Tag, e.Index = raw.Tag, w.enc.Count()
			return e
		}
		return err
	}
	return nil
}

// checkInterchangeHeader makes ISA11 and ISA16 agree with the delimiters
// in use, since a reader discovers them from those positions.
func (w *writer) checkInterchangeHeader(isa *Segment, path string) error {
	check := func(ref string, want byte) error {
		got, ok := isa.Text(ref).Get()
		if !ok || got == string(want) {
			return nil
		}
		e := newError(ErrCodeEnvelopeMismatch, path+"/"+ref,
			"%s is %q but the document is written with %q", ref, got, string(want))
		e.Tag = "ISA"
		return e
	}
	if err := check("ISA16", w.delims.Component); err != nil {
		return err
	}
	if w.delims.Repetition != 0 {
		return check("ISA11", w.delims.Repetition)
	}
	return nil
}

func nonEmptySegments(segs []*Segment) []*Segment {
	out := segs[:0:0]
	for _, s := range segs {
		if s != nil && !s.isEmpty() {
			out = append(out, s)
		}
	}
	return out
}

func nonEmptyLayouts(loops []*Layout) []*Layout {
	out := loops[:0:0]
	for _, l := range loops {
		if l != nil && !l.isEmptyDeep() {
			out = append(out, l)
		}
	}
	return out
}

func (s *Segment) isEmpty() bool {
	for _, fs := range s.slots {
		if !fs.Slot.IsMissing() {
			return false
		}
	}
	return true
}

// isEmptyDeep reports whether nothing below l would be written.
func (l *Layout) isEmptyDeep() bool {
	for i, ref := range l.desc.Children {
		if ref.IsLoop() {
			if len(nonEmptyLayouts(layoutsIn(l.slots[i].Slot))) > 0 {
				return false
			}
			continue
		}
		if len(nonEmptySegments(l.Segments(ref.Name))) > 0 {
			return false
		}
	}
	return true
}
