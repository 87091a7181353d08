package claims

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/GeekSage/Machete/internal/document"
	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/translate"
)

const (
	dateFormatD8  = "D8"
	dateFormatRD8 = "RD8"
	dateLayout    = "20060102"
)

// text returns a string element of the first segment bound to name.
func text(l *document.Layout, name, ref string) (string, bool) {
	seg := l.Segment(name)
	if seg == nil {
		return "", false
	}
	return seg.Text(ref).Get()
}

func decimal(l *document.Layout, name, ref string) ir.Value[apd.Decimal] {
	seg := l.Segment(name)
	if seg == nil {
		return ir.Missing[apd.Decimal]()
	}
	return ir.Get[apd.Decimal](seg, ir.FieldKey(ref))
}

func integer(l *document.Layout, name, ref string) ir.Value[int64] {
	seg := l.Segment(name)
	if seg == nil {
		return ir.Missing[int64]()
	}
	return ir.Get[int64](seg, ir.FieldKey(ref))
}

// component returns a string component of a composite element.
func component(l *document.Layout, name, ref, comp string) (string, bool) {
	seg := l.Segment(name)
	if seg == nil {
		return "", false
	}
	c := seg.Composite(ref)
	if c == nil {
		return "", false
	}
	return c.Text(comp).Get()
}

// componentAt returns the i-th component of c when it is a string.
func componentAt(c *document.Composite, i int) (string, bool) {
	slots := c.Slots()
	if i >= len(slots) {
		return "", false
	}
	v, ok := slots[i].Slot.(*ir.Value[string])
	if !ok {
		return "", false
	}
	return v.Get()
}

// period reads a date or date range in the DTP layout: format qualifier
// at formatRef, value at valueRef.
func period(l *document.Layout, name, formatRef, valueRef string) (start, end ir.Value[time.Time], err error) {
	format, _ := text(l, name, formatRef)
	value, ok := text(l, name, valueRef)
	if !ok {
		return start, end, nil
	}
	switch format {
	case dateFormatD8:
		t, err := time.Parse(dateLayout, value)
		if err != nil {
			return start, end, fmt.Errorf("%s: %q is not a CCYYMMDD date", valueRef, value)
		}
		return ir.Present(t), end, nil
	case dateFormatRD8:
		from, to, found := strings.Cut(value, "-")
		if !found {
			return start, end, fmt.Errorf("%s: %q is not a CCYYMMDD-CCYYMMDD range", valueRef, value)
		}
		a, errA := time.Parse(dateLayout, from)
		b, errB := time.Parse(dateLayout, to)
		if errA != nil || errB != nil {
			return start, end, fmt.Errorf("%s: %q is not a CCYYMMDD-CCYYMMDD range", valueRef, value)
		}
		return ir.Present(a), ir.Present(b), nil
	default:
		return start, end, fmt.Errorf("%s: unsupported date format qualifier %q", formatRef, format)
	}
}

// readText sources key from a string element.
func readText[R ir.Entity](s *inSpec[R], key ir.FieldKey, name, ref string) {
	translate.SetOptional(s, key, func(ctx *inCtx[R]) (string, bool, error) {
		v, ok := text(ctx.Input, name, ref)
		return v, ok, nil
	})
}

// readComponent sources key from a string component.
func readComponent[R ir.Entity](s *inSpec[R], key ir.FieldKey, name, ref, comp string) {
	translate.SetOptional(s, key, func(ctx *inCtx[R]) (string, bool, error) {
		v, ok := component(ctx.Input, name, ref, comp)
		return v, ok, nil
	})
}

// readDecimal sources key from a numeric element.
func readDecimal[R ir.Entity](s *inSpec[R], key ir.FieldKey, name, ref string) {
	translate.SetValue(s, key, func(ctx *inCtx[R]) (ir.Value[apd.Decimal], error) {
		return decimal(ctx.Input, name, ref), nil
	})
}

// readDate sources key from the start of a DTP period.
func readDate[R ir.Entity](s *inSpec[R], key ir.FieldKey, name string) {
	translate.SetValue(s, key, func(ctx *inCtx[R]) (ir.Value[time.Time], error) {
		start, _, err := period(ctx.Input, name, "DTP02", "DTP03")
		return start, err
	})
}

// loopOf narrows to the first layout bound to loop reference name.
func loopOf[R ir.Entity](name string) func(*inCtx[R]) (*document.Layout, bool, error) {
	return func(ctx *inCtx[R]) (*document.Layout, bool, error) {
		l := ctx.Input.Loop(name)
		return l, l != nil, nil
	}
}

// loopsOf narrows to every layout bound to loop reference name; none
// yields a Missing list.
func loopsOf[R ir.Entity](name string) func(*inCtx[R]) ([]*document.Layout, bool, error) {
	return func(ctx *inCtx[R]) ([]*document.Layout, bool, error) {
		ls := ctx.Input.Loops(name)
		return ls, len(ls) > 0, nil
	}
}
