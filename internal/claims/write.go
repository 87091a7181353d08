package claims

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/GeekSage/Machete/internal/document"
	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/schema"
	"github.com/GeekSage/Machete/internal/translate"
)

// filler writes elements into a segment and keeps the first error.
type filler struct {
	seg *document.Segment
	err error
}

func put[T any](f *filler, ref string, v ir.Value[T]) {
	if f.err != nil {
		return
	}
	f.err = ir.Put(f.seg, ir.FieldKey(ref), v)
}

func putText(f *filler, ref, v string) {
	put(f, ref, ir.Present(v))
}

// putComposite stores parts as the leading components of composite ref.
// Nothing is stored when every part is Missing.
func putComposite[T any](f *filler, ref string, parts ...ir.Value[T]) {
	if f.err != nil {
		return
	}
	present := false
	for _, p := range parts {
		present = present || p.IsPresent()
	}
	if !present {
		return
	}
	c, err := f.seg.NewComposite(ref)
	if err != nil {
		f.err = err
		return
	}
	comps := c.Descriptor().Components
	if len(parts) > len(comps) {
		f.err = fmt.Errorf("%s: %d components, at most %d allowed", ref, len(parts), len(comps))
		return
	}
	for i, p := range parts {
		if err := ir.Put(c, ir.FieldKey(comps[i].Ref), p); err != nil {
			f.err = err
			return
		}
	}
}

// fillFunc fills a segment from the translation input; false leaves the
// reference empty.
type fillFunc[I ir.Entity] func(f *filler, ctx *outCtx[I]) bool

func always[I ir.Entity](*filler, *outCtx[I]) bool { return true }

func newSegment(loop *schema.Loop, name string) (*document.Segment, error) {
	ref, _, ok := loop.Child(name)
	if !ok {
		return nil, fmt.Errorf("loop %s has no %s reference", loop.ID, name)
	}
	return document.NewSegmentFor(ref)
}

func build[I ir.Entity](loop *schema.Loop, name string, fill fillFunc[I], ctx *outCtx[I]) (*document.Segment, bool, error) {
	seg, err := newSegment(loop, name)
	if err != nil {
		return nil, false, err
	}
	f := &filler{seg: seg}
	if !fill(f, ctx) {
		return nil, false, nil
	}
	if f.err != nil {
		return nil, false, fmt.Errorf("%s: %w", name, f.err)
	}
	return seg, true, nil
}

// writeSegment fills single segment reference name of loop.
func writeSegment[I ir.Entity](s *outSpec[I], loop *schema.Loop, name string, fill fillFunc[I]) {
	translate.SetOptional(s, ir.FieldKey(name), func(ctx *outCtx[I]) (*document.Segment, bool, error) {
		return build(loop, name, fill, ctx)
	})
}

// writeSegments fills repeating segment reference name of loop with at
// most one segment.
func writeSegments[I ir.Entity](s *outSpec[I], loop *schema.Loop, name string, fill fillFunc[I]) {
	translate.SetList(s, ir.FieldKey(name), func(ctx *outCtx[I]) (ir.ValueList[*document.Segment], error) {
		seg, ok, err := build(loop, name, fill, ctx)
		if err != nil || !ok {
			return ir.MissingList[*document.Segment](), err
		}
		return ir.PresentList(seg), nil
	})
}

// partyOf narrows to a party field after scrubbing it.
func partyOf[I ir.Entity](scrub *translate.Translator[*Party, *Party, *Directory], get func(I) ir.Value[*Party]) func(*outCtx[I]) (*Party, bool, error) {
	return func(ctx *outCtx[I]) (*Party, bool, error) {
		p, ok := get(ctx.Input).Get()
		if !ok || p == nil {
			return nil, false, nil
		}
		out, err := scrub.Translate(p, ctx.State)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	}
}

// itemsOf narrows to a list field.
func itemsOf[I ir.Entity, T any](get func(I) ir.ValueList[T]) func(*outCtx[I]) ([]T, bool, error) {
	return func(ctx *outCtx[I]) ([]T, bool, error) {
		l := get(ctx.Input)
		return l.Items(), l.IsPresent(), nil
	}
}

// digits drops everything but ASCII digits.
func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
