package document

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/GeekSage/Machete/internal/ir"
)

// pendingLevel is a level bound in document order and not yet linked.
type pendingLevel struct {
	layout *Layout
	index  int
	path   string
}

// link builds the level tree of scope f: each level goes under the
// previously bound level its HL02 names, or under the scope itself when
// HL02 is Missing. Siblings keep document order.
func (b *binder) link(f *frame) error {
	f.linked = true
	if f.lastLevel > f.pos {
		f.pos = f.lastLevel
	}

	byID := make(map[int64]pendingLevel, len(f.levels))
	for _, lv := range f.levels {
		id, ok := lv.layout.LevelID().Get()
		if !ok {
			e := newError(ErrCodeInvalidElementValue, lv.path, "hierarchical level has no ID")
			e.Tag, e.Index = "HL", lv.index
			return e
		}
		code := lv.layout.LevelCode()

		if prev, dup := byID[id]; dup {
			e := newError(ErrCodeDuplicateHierarchicalLevel, lv.path,
				"level ID %d already used by the level at segment %d", id, prev.index)
			e.Tag, e.Index = "HL", lv.index
			e.Details = map[string]string{
				"level":  strconv.FormatInt(id, 10),
				"first":  strconv.Itoa(prev.index),
				"second": strconv.Itoa(lv.index),
			}
			return e
		}

		parentLayout := f.layout
		if parentID, ok := lv.layout.ParentID().Get(); ok {
			parent, found := byID[parentID]
			if !found {
				e := newError(ErrCodeDanglingHierarchicalParent, lv.path,
					"level %d names parent %d, which is not a preceding level", id, parentID)
				e.Tag, e.Index = "HL", lv.index
				e.Details = map[string]string{
					"level":  strconv.FormatInt(id, 10),
					"parent": strconv.FormatInt(parentID, 10),
				}
				return e
			}
			parentLayout = parent.layout
		}

		ref, i, ok := levelRef(parentLayout.desc, code)
		if !ok {
			where := "at the root"
			if parentLayout != f.layout {
				where = "under level " + parentLayout.LevelID().String() + " (" + parentLayout.LevelCode() + ")"
			}
			e := newError(ErrCodeUnexpectedHierarchicalLevel, lv.path,
				"level %d with code %q is not allowed %s", id, code, where)
			e.Tag, e.Index = "HL", lv.index
			e.Details = map[string]string{"level": strconv.FormatInt(id, 10), "code": code}
			return e
		}
		if ref.Single() && parentLayout.countAt(ref, i) > 0 {
			e := newError(ErrCodeCardinalityExceeded, lv.path, "%s occurs more than once", ref.Name)
			e.Tag, e.Index = "HL", lv.index
			e.Details = map[string]string{"max": ref.MaxString()}
			return e
		}
		if err := parentLayout.attach(ref, i, nil, lv.layout); err != nil {
			return err
		}
		byID[id] = lv
		slog.Debug("link level", "id", id, "code", code, "parent", lv.layout.ParentID().String())
	}

	if err := checkLevelCounts(f.layout, f.path); err != nil {
		return err
	}
	for _, lv := range f.levels {
		if err := checkLevelCounts(lv.layout, lv.path); err != nil {
			return err
		}
	}
	return nil
}

// checkLevelCounts enforces the cardinality of the level references of l
// once linking is done.
func checkLevelCounts(l *Layout, path string) error {
	for i, ref := range l.desc.Children {
		if !isLevelRef(ref) {
			continue
		}
		n := l.countAt(ref, i)
		switch {
		case n < ref.Min:
			e := newError(ErrCodeRequiredSegmentMissing, path+"/"+ref.Name,
				"%s requires %d %s level(s), found %d", l.desc.ID, ref.Min, ref.Loop.Level, n)
			e.Tag = "HL"
			e.Details = map[string]string{"min": strconv.Itoa(ref.Min), "found": strconv.Itoa(n)}
			return e
		case !ref.Allows(n):
			e := newError(ErrCodeCardinalityExceeded, path+"/"+ref.Name,
				"%s allows at most %s %s level(s), found %d", l.desc.ID, ref.MaxString(), ref.Loop.Level, n)
			e.Tag = "HL"
			e.Details = map[string]string{"max": ref.MaxString(), "found": strconv.Itoa(n)}
			return e
		}
	}
	return nil
}

// Levels returns every hierarchical level under l in pre-order: each level
// followed by its descendants.
func Levels(l *Layout) []*Layout {
	var out []*Layout
	var visit func(*Layout)
	visit = func(cur *Layout) {
		for _, child := range cur.Children() {
			out = append(out, child)
			visit(child)
		}
	}
	visit(l)
	return out
}

// FindLevel returns the level with HL01 id under l.
func FindLevel(l *Layout, id int64) (*Layout, bool) {
	for _, lv := range Levels(l) {
		if got, ok := lv.LevelID().Get(); ok && got == id {
			return lv, true
		}
	}
	return nil, false
}

// NumberLevels assigns HL01 in pre-order starting at 1, HL02 from the
// enclosing level and HL04 from whether a level has children. Levels
// without an HL segment get one. Use it on authored layouts before
// writing.
func NumberLevels(l *Layout) error {
	next := int64(1)
	var visit func(cur *Layout, parent ir.Value[int64]) error
	visit = func(cur *Layout, parent ir.Value[int64]) error {
		for _, child := range cur.Children() {
			first := child.desc.First()
			if first == nil || first.IsLoop() {
				return fmt.Errorf("level %s has no HL reference", child.desc.ID)
			}
			hl, err := ensureSegment(child, first.Name)
			if err != nil {
				return err
			}
			id := next
			next++
			childCode := "0"
			if len(child.Children()) > 0 {
				childCode = "1"
			}
			if err := ir.Put(hl, "HL01", ir.Present(id)); err != nil {
				return err
			}
			if err := ir.Put(hl, "HL02", parent); err != nil {
				return err
			}
			if err := ir.Put(hl, "HL03", ir.Present(child.LevelCode())); err != nil {
				return err
			}
			if err := ir.Put(hl, "HL04", ir.Present(childCode)); err != nil {
				return err
			}
			if err := visit(child, ir.Present(id)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(l, ir.Missing[int64]()); err != nil {
		return err
	}
	slog.Debug("numbered levels", "loop", l.desc.ID, "levels", next-1)
	return nil
}
