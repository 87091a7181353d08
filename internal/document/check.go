package document

import (
	"fmt"
	"strconv"

	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/schema"
)

// Check codes. Binding already enforces structure; Check covers element
// usage, lengths and envelope control values.
const (
	CodeRequiredElement    = "E301"
	CodeNotUsedElement     = "E302"
	CodeElementLength      = "E303"
	CodeControlCount       = "E310"
	CodeControlNumber      = "E311"
	CodeEnvelopeIncomplete = "E312"
)

// Check validates a bound document without failing fast. The document is
// conformant when no result has error severity.
func Check(doc *Document) []ir.ValidateResult {
	var results []ir.ValidateResult
	walkSegments(doc.Root, doc.Root.desc.ID, func(seg *Segment, path string) {
		results = append(results, checkSegment(seg, path)...)
	})
	results = append(results, checkControls(doc)...)
	return results
}

func walkSegments(l *Layout, path string, fn func(*Segment, string)) {
	for i, ref := range l.desc.Children {
		refPath := path + "/" + ref.Name
		if ref.IsLoop() {
			for k, child := range nonEmptyLayouts(layoutsIn(l.slots[i].Slot)) {
				childPath := refPath
				if !ref.Single() {
					childPath = fmt.Sprintf("%s[%d]", refPath, k)
				}
				walkSegments(child, childPath, fn)
			}
			continue
		}
		for _, seg := range nonEmptySegments(l.Segments(ref.Name)) {
			fn(seg, refPath)
		}
	}
}

func checkSegment(seg *Segment, path string) []ir.ValidateResult {
	var results []ir.ValidateResult
	for i, e := range seg.desc.Elements {
		results = append(results, checkElement(seg.slots[i].Slot, e, path)...)
	}
	return results
}

func checkElement(slot ir.Slot, e schema.Element, path string) []ir.ValidateResult {
	key := ir.FieldKey(path + "/" + e.Ref)
	if slot.IsMissing() {
		if e.Usage == schema.UsageRequired {
			return []ir.ValidateResult{ir.Errorf(key, CodeRequiredElement, "required element %s (%s) is missing", e.Ref, e.Name)}
		}
		return nil
	}
	if e.Usage == schema.UsageNotUsed {
		return []ir.ValidateResult{ir.Warnf(key, CodeNotUsedElement, "element %s is marked not used", e.Ref)}
	}

	if e.IsComposite() {
		comp, _ := slot.(*ir.Value[*Composite]).Get()
		if comp == nil {
			return nil
		}
		var results []ir.ValidateResult
		for i, c := range e.Components {
			results = append(results, checkElement(comp.slots[i].Slot, c, path)...)
		}
		return results
	}

	var texts []string
	if slot.Kind() == ir.KindList {
		items, _ := ir.Export(slot)
		for _, item := range items.([]any) {
			text, err := formatScalar(item, e)
			if err != nil {
				return []ir.ValidateResult{ir.Errorf(key, CodeElementLength, "%v", err)}
			}
			texts = append(texts, text)
		}
	} else {
		text, err := encodeScalar(slot, e)
		if err != nil {
			return []ir.ValidateResult{ir.Errorf(key, CodeElementLength, "%v", err)}
		}
		texts = append(texts, text)
	}

	var results []ir.ValidateResult
	for _, text := range texts {
		n := dataLength(text, e.Type)
		if (e.MinLength > 0 && n < e.MinLength) || (e.MaxLength > 0 && n > e.MaxLength) {
			results = append(results, ir.Errorf(key, CodeElementLength,
				"%s length %d outside %d..%d", e.Ref, n, e.MinLength, e.MaxLength))
		}
	}
	return results
}

// checkControls compares trailer counts and control numbers with the
// headers and the content they close.
func checkControls(doc *Document) []ir.ValidateResult {
	root := doc.Root
	var results []ir.ValidateResult
	isa, iea := root.Segment("ISA"), root.Segment("IEA")
	groups := nonEmptyLayouts(root.Loops(schema.GroupRef))

	if isa != nil && iea != nil {
		results = append(results, compareCount("IEA/IEA01", iea, "IEA01", len(groups))...)
		results = append(results, compareControl("IEA/IEA02", iea, "IEA02", isa, "ISA13")...)
	}

	for gi, group := range groups {
		gpath := fmt.Sprintf("%s[%d]", schema.GroupRef, gi)
		gs, ge := group.Segment("GS"), group.Segment("GE")
		txs := transactionsIn(group)
		if gs != nil && ge != nil {
			results = append(results, compareCount(gpath+"/GE/GE01", ge, "GE01", len(txs))...)
			results = append(results, compareControl(gpath+"/GE/GE02", ge, "GE02", gs, "GS06")...)
		}
		for ti, tx := range txs {
			tpath := fmt.Sprintf("%s/%s[%d]", gpath, tx.desc.ID, ti)
			st, se := tx.Segment("ST"), tx.Segment("SE")
			if st == nil || se == nil {
				results = append(results, ir.Errorf(ir.FieldKey(tpath), CodeEnvelopeIncomplete, "transaction set lacks ST or SE"))
				continue
			}
			results = append(results, compareCount(tpath+"/SE/SE01", se, "SE01", countSegments(tx))...)
			results = append(results, compareText(tpath+"/SE/SE02", se, "SE02", st, "ST02")...)
		}
	}
	return results
}

func compareCount(key string, trailer *Segment, ref string, want int) []ir.ValidateResult {
	got, ok := ir.Get[int64](trailer, ir.FieldKey(ref)).Get()
	if !ok {
		return nil
	}
	if got != int64(want) {
		return []ir.ValidateResult{ir.Errorf(ir.FieldKey(key), CodeControlCount, "%s is %d, expected %d", ref, got, want)}
	}
	return nil
}

func compareControl(key string, trailer *Segment, ref string, header *Segment, headerRef string) []ir.ValidateResult {
	got, ok1 := ir.Get[int64](trailer, ir.FieldKey(ref)).Get()
	want, ok2 := ir.Get[int64](header, ir.FieldKey(headerRef)).Get()
	if !ok1 || !ok2 || got == want {
		return nil
	}
	return []ir.ValidateResult{ir.Errorf(ir.FieldKey(key), CodeControlNumber, "%s is %d, %s is %d", ref, got, headerRef, want)}
}

func compareText(key string, trailer *Segment, ref string, header *Segment, headerRef string) []ir.ValidateResult {
	got, ok1 := trailer.Text(ref).Get()
	want, ok2 := header.Text(headerRef).Get()
	if !ok1 || !ok2 || got == want {
		return nil
	}
	return []ir.ValidateResult{ir.Errorf(ir.FieldKey(key), CodeControlNumber, "%s is %q, %s is %q", ref, got, headerRef, want)}
}

// transactionsIn returns the ST loops of a functional group in document
// order within each transaction type.
func transactionsIn(group *Layout) []*Layout {
	var out []*Layout
	for i, ref := range group.desc.Children {
		if ref.IsLoop() {
			out = append(out, nonEmptyLayouts(layoutsIn(group.slots[i].Slot))...)
		}
	}
	return out
}

// countSegments returns the number of segments l would write.
func countSegments(l *Layout) int {
	n := 0
	walkSegments(l, "", func(*Segment, string) { n++ })
	return n
}

// SealEnvelope sets the trailer counts and control numbers from the
// content: SE01 and SE02, GE01 and GE02, IEA01 and IEA02. Use it on
// authored documents before writing.
func SealEnvelope(doc *Document) error {
	root := doc.Root
	groups := nonEmptyLayouts(root.Loops(schema.GroupRef))
	for _, group := range groups {
		txs := transactionsIn(group)
		for _, tx := range txs {
			st := tx.Segment("ST")
			if st == nil {
				return fmt.Errorf("transaction set %s has no ST segment", tx.desc.ID)
			}
			se, err := ensureSegment(tx, "SE")
			if err != nil {
				return err
			}
			if err := ir.Put(se, "SE02", st.Text("ST02")); err != nil {
				return err
			}
			// SE01 counts itself, so it must be present before counting.
			if err := ir.Put(se, "SE01", ir.Present[int64](0)); err != nil {
				return err
			}
			if err := ir.Put(se, "SE01", ir.Present(int64(countSegments(tx)))); err != nil {
				return err
			}
		}

		gs := group.Segment("GS")
		if gs == nil {
			return fmt.Errorf("functional group has no GS segment")
		}
		ge, err := ensureSegment(group, "GE")
		if err != nil {
			return err
		}
		if err := ir.Put(ge, "GE01", ir.Present(int64(len(txs)))); err != nil {
			return err
		}
		if err := ir.Put(ge, "GE02", ir.Get[int64](gs, "GS06")); err != nil {
			return err
		}
	}

	isa := root.Segment("ISA")
	if isa == nil {
		return fmt.Errorf("interchange has no ISA segment")
	}
	iea, err := ensureSegment(root, "IEA")
	if err != nil {
		return err
	}
	if err := ir.Put(iea, "IEA01", ir.Present(int64(len(groups)))); err != nil {
		return err
	}
	return ir.Put(iea, "IEA02", ir.Get[int64](isa, "ISA13"))
}

func ensureSegment(l *Layout, name string) (*Segment, error) {
	if seg := l.Segment(name); seg != nil {
		return seg, nil
	}
	return l.NewSegment(name)
}

// ControlNumber formats a control number the way ST02 carries it.
func ControlNumber(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
