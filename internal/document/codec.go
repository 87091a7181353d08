package document

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/schema"
	"github.com/GeekSage/Machete/internal/x12"
)

const (
	dateLong  = "20060102"
	dateShort = "060102"
)

var decimalContext = apd.BaseContext.WithPrecision(34)

// valueKind is the Go representation chosen for an element type.
type valueKind int

const (
	kindText valueKind = iota
	kindInt
	kindDecimal
	kindDate
)

func kindOf(t schema.ElementType) valueKind {
	switch {
	case t == schema.TypeN0:
		return kindInt
	case t.IsDecimal():
		return kindDecimal
	case t == schema.TypeDT:
		return kindDate
	default:
		return kindText
	}
}

// newSlot returns the empty slot for an element:
//
//	AN, ID, TM       Value[string]
//	N0               Value[int64]
//	N1-N9, R         Value[apd.Decimal]
//	DT               Value[time.Time]
//	composite        Value[*Composite]
//
// and the matching ValueList for repeating simple elements.
func newSlot(e schema.Element) ir.Slot {
	if e.IsComposite() {
		return &ir.Value[*Composite]{}
	}
	k := kindOf(e.Type)
	if e.Repeats() {
		switch k {
		case kindInt:
			return &ir.ValueList[int64]{}
		case kindDecimal:
			return &ir.ValueList[apd.Decimal]{}
		case kindDate:
			return &ir.ValueList[time.Time]{}
		default:
			return &ir.ValueList[string]{}
		}
	}
	switch k {
	case kindInt:
		return &ir.Value[int64]{}
	case kindDecimal:
		return &ir.Value[apd.Decimal]{}
	case kindDate:
		return &ir.Value[time.Time]{}
	default:
		return &ir.Value[string]{}
	}
}

// decodeElement fills slot from raw text. Empty text leaves the slot
// Missing.
func decodeElement(slot ir.Slot, e schema.Element, raw x12.Element) error {
	if e.IsComposite() {
		if len(raw.Repeats) > 0 {
			return fmt.Errorf("%s: composite element does not repeat", e.Ref)
		}
		if raw.IsEmpty() {
			return nil
		}
		parts := raw.Parts()
		if len(parts) > len(e.Components) {
			return fmt.Errorf("%s: %d components, at most %d allowed", e.Ref, len(parts), len(e.Components))
		}
		comp := NewComposite(e)
		for i, part := range parts {
			if err := decodeScalar(comp.slots[i].Slot, e.Components[i], part); err != nil {
				return err
			}
		}
		slot.(*ir.Value[*Composite]).Set(comp)
		return nil
	}

	if len(raw.Components) > 0 {
		return fmt.Errorf("%s: simple element contains a component separator", e.Ref)
	}

	if e.Repeats() {
		if raw.IsEmpty() {
			return nil
		}
		reps := raw.Repetitions()
		if e.Repeat != schema.Unbounded && len(reps) > e.Repeat {
			return fmt.Errorf("%s: %d repetitions, at most %d allowed", e.Ref, len(reps), e.Repeat)
		}
		return decodeList(slot, e, reps)
	}

	if len(raw.Repeats) > 0 {
		return fmt.Errorf("%s: element does not repeat", e.Ref)
	}
	return decodeScalar(slot, e, raw.Value)
}

func decodeScalar(slot ir.Slot, e schema.Element, text string) error {
	if text == "" {
		return nil
	}
	switch s := slot.(type) {
	case *ir.Value[string]:
		if e.Type == schema.TypeTM && !isDigits(text) {
			return fmt.Errorf("%s: time %q is not numeric", e.Ref, text)
		}
		s.Set(text)
	case *ir.Value[int64]:
		n, err := parseInt(e, text)
		if err != nil {
			return err
		}
		s.Set(n)
	case *ir.Value[apd.Decimal]:
		d, err := parseDecimal(e, text)
		if err != nil {
			return err
		}
		s.Set(*d)
	case *ir.Value[time.Time]:
		t, err := parseDate(e, text)
		if err != nil {
			return err
		}
		s.Set(t)
	default:
		return fmt.Errorf("%s: unsupported slot %s", e.Ref, slot.TypeName())
	}
	return nil
}

func decodeList(slot ir.Slot, e schema.Element, reps []string) error {
	switch s := slot.(type) {
	case *ir.ValueList[string]:
		s.SetItems(reps)
	case *ir.ValueList[int64]:
		items := make([]int64, len(reps))
		for i, r := range reps {
			n, err := parseInt(e, r)
			if err != nil {
				return err
			}
			items[i] = n
		}
		s.SetItems(items)
	case *ir.ValueList[apd.Decimal]:
		items := make([]apd.Decimal, len(reps))
		for i, r := range reps {
			d, err := parseDecimal(e, r)
			if err != nil {
				return err
			}
			items[i] = *d
		}
		s.SetItems(items)
	case *ir.ValueList[time.Time]:
		items := make([]time.Time, len(reps))
		for i, r := range reps {
			t, err := parseDate(e, r)
			if err != nil {
				return err
			}
			items[i] = t
		}
		s.SetItems(items)
	default:
		return fmt.Errorf("%s: unsupported slot %s", e.Ref, slot.TypeName())
	}
	return nil
}

func parseInt(e schema.Element, text string) (int64, error) {
	if !isSignedDigits(text) {
		return 0, fmt.Errorf("%s: %q is not a whole number", e.Ref, text)
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", e.Ref, err)
	}
	return n, nil
}

func parseDecimal(e schema.Element, text string) (*apd.Decimal, error) {
	if n, implied := e.Type.ImpliedDecimals(); implied {
		coeff, err := parseInt(e, text)
		if err != nil {
			return nil, err
		}
		return apd.New(coeff, -int32(n)), nil
	}
	if !isDecimalText(text) {
		return nil, fmt.Errorf("%s: %q is not a decimal number", e.Ref, text)
	}
	d, _, err := apd.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Ref, err)
	}
	return d, nil
}

func parseDate(e schema.Element, text string) (time.Time, error) {
	layout := dateLong
	if len(text) == len(dateShort) {
		layout = dateShort
	}
	t, err := time.Parse(layout, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %q is not a date", e.Ref, text)
	}
	return t, nil
}

// encodeElement renders a slot as a raw element. Missing yields an empty
// element; trailing empty components are dropped.
func encodeElement(slot ir.Slot, e schema.Element) (x12.Element, error) {
	if slot.IsMissing() {
		return x12.Element{}, nil
	}
	if e.IsComposite() {
		comp, _ := slot.(*ir.Value[*Composite]).Get()
		if comp == nil {
			return x12.Element{}, nil
		}
		parts := make([]string, len(e.Components))
		for i, c := range e.Components {
			text, err := encodeScalar(comp.slots[i].Slot, c)
			if err != nil {
				return x12.Element{}, err
			}
			parts[i] = text
		}
		parts = trimTrailingEmpty(parts)
		if len(parts) == 0 {
			return x12.Element{}, nil
		}
		if len(parts) == 1 {
			return x12.Simple(parts[0]), nil
		}
		return x12.Composite(parts...), nil
	}

	if slot.Kind() == ir.KindList {
		items, _ := ir.Export(slot)
		reps := make([]string, 0)
		for _, item := range items.([]any) {
			text, err := formatScalar(item, e)
			if err != nil {
				return x12.Element{}, err
			}
			reps = append(reps, text)
		}
		if len(reps) == 1 {
			return x12.Simple(reps[0]), nil
		}
		return x12.Repeated(reps...), nil
	}

	text, err := encodeScalar(slot, e)
	if err != nil {
		return x12.Element{}, err
	}
	return x12.Simple(text), nil
}

func encodeScalar(slot ir.Slot, e schema.Element) (string, error) {
	v, ok := ir.Export(slot)
	if !ok {
		return "", nil
	}
	return formatScalar(v, e)
}

func formatScalar(v any, e schema.Element) (string, error) {
	switch val := v.(type) {
	case string:
		if e.Type == schema.TypeAN && len(val) < e.MinLength {
			val += strings.Repeat(" ", e.MinLength-len(val))
		}
		return val, nil
	case int64:
		return padDigits(strconv.FormatInt(val, 10), e.MinLength), nil
	case apd.Decimal:
		return formatDecimal(&val, e)
	case time.Time:
		if e.MaxLength == len(dateShort) {
			return val.Format(dateShort), nil
		}
		return val.Format(dateLong), nil
	default:
		return "", fmt.Errorf("%s: cannot encode %T", e.Ref, v)
	}
}

func formatDecimal(d *apd.Decimal, e schema.Element) (string, error) {
	if d.Form != apd.Finite {
		return "", fmt.Errorf("%s: %s is not a finite number", e.Ref, d.String())
	}
	n, implied := e.Type.ImpliedDecimals()
	if !implied {
		return d.Text('f'), nil
	}

	scaled := new(apd.Decimal).Set(d)
	scaled.Exponent += int32(n)
	var q apd.Decimal
	cond, err := decimalContext.Quantize(&q, scaled, 0)
	if err != nil {
		return "", fmt.Errorf("%s: %w", e.Ref, err)
	}
	if cond.Inexact() {
		return "", fmt.Errorf("%s: %s has more than %d decimal places", e.Ref, d.Text('f'), n)
	}
	return padDigits(q.Text('f'), e.MinLength), nil
}

// padDigits left-pads a number with zeros to width, keeping the sign in
// front.
func padDigits(s string, width int) string {
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	if len(digits) < width {
		digits = strings.Repeat("0", width-len(digits)) + digits
	}
	if neg {
		return "-" + digits
	}
	return digits
}

func trimTrailingEmpty(parts []string) []string {
	n := len(parts)
	for n > 0 && parts[n-1] == "" {
		n--
	}
	return parts[:n]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isSignedDigits(s string) bool {
	return isDigits(strings.TrimPrefix(s, "-"))
}

func isDecimalText(s string) bool {
	s = strings.TrimPrefix(s, "-")
	whole, frac, hasPoint := strings.Cut(s, ".")
	if !hasPoint {
		return isDigits(whole)
	}
	if whole == "" && frac == "" {
		return false
	}
	return (whole == "" || isDigits(whole)) && (frac == "" || isDigits(frac))
}

// dataLength is the X12 length of encoded text: sign and decimal point do
// not count.
func dataLength(text string, t schema.ElementType) int {
	if kindOf(t) == kindText || t == schema.TypeDT {
		return len(text)
	}
	n := len(text)
	if strings.HasPrefix(text, "-") {
		n--
	}
	if strings.Contains(text, ".") {
		n--
	}
	return n
}
