package document

import (
	"fmt"
	"log/slog"

	"github.com/GeekSage/Machete/internal/schema"
	"github.com/GeekSage/Machete/internal/x12"
)

// frame is one open loop during binding.
type frame struct {
	layout *Layout
	loop   *schema.Loop
	path   string

	// pos is the child reference the loop has advanced to; references
	// before it are closed.
	pos    int
	counts []int

	// level marks a frame opened for an HL segment. Level frames never
	// take HL segments themselves; the scope frame below them does.
	level bool

	// scope state, for non-level frames whose loop has level references.
	firstLevel int
	lastLevel  int
	levels     []pendingLevel
	linked     bool
}

func newFrame(layout *Layout, path string, level bool) *frame {
	return &frame{
		layout:     layout,
		loop:       layout.desc,
		path:       path,
		counts:     make([]int, len(layout.desc.Children)),
		level:      level,
		firstLevel: firstLevelRef(layout.desc),
		lastLevel:  lastLevelRef(layout.desc),
	}
}

// isScope reports whether HL levels bound under this frame are linked here.
func (f *frame) isScope() bool {
	return !f.level && f.firstLevel >= 0
}

// takesLevels reports whether an HL segment may open a level here.
func (f *frame) takesLevels() bool {
	return f.isScope() && !f.linked && f.pos <= f.lastLevel
}

type binder struct {
	root  *Layout
	stack []*frame
	index int
}

func newBinder(root *schema.Loop) *binder {
	l := NewLayout(root)
	return &binder{root: l, stack: []*frame{newFrame(l, root.ID, false)}}
}

func (b *binder) top() *frame {
	return b.stack[len(b.stack)-1]
}

// bind places one raw segment.
func (b *binder) bind(seg x12.Segment) error {
	b.index = seg.Index
	depth, i, err := b.locate(seg)
	if err != nil {
		return err
	}
	if i < 0 {
		return b.openLevel(depth, seg)
	}
	return b.place(depth, i, seg)
}

// locate finds the innermost frame with a reference that can take seg.
// It returns index -1 when the frame takes seg as a new HL level.
func (b *binder) locate(seg x12.Segment) (int, int, error) {
	var excess *Error
	for d := len(b.stack) - 1; d >= 0; d-- {
		f := b.stack[d]
		if seg.Tag == "HL" && f.takesLevels() {
			return d, -1, nil
		}
		for i := f.pos; i < len(f.loop.Children); i++ {
			ref := f.loop.Children[i]
			if isLevelRef(ref) || !ref.Matches(seg) {
				continue
			}
			if ref.Allows(f.counts[i] + 1) {
				return d, i, nil
			}
			if excess == nil {
				excess = b.errorAt(ErrCodeCardinalityExceeded, f.path+"/"+ref.Name, seg,
					"%s occurs more than %s times", ref.Name, ref.MaxString())
				excess.Details = map[string]string{"max": ref.MaxString()}
			}
		}
	}
	if excess != nil {
		return 0, 0, excess
	}
	return 0, 0, b.errorAt(ErrCodeUnexpectedSegment, b.top().path, seg,
		"segment %s has no place in the open loops", seg.Tag)
}

// place binds seg to reference i of the frame at depth, closing every
// frame above it first.
func (b *binder) place(depth, i int, seg x12.Segment) error {
	if err := b.popTo(depth); err != nil {
		return err
	}
	f := b.top()
	if err := b.advance(f, i); err != nil {
		return err
	}
	ref := f.loop.Children[i]
	f.counts[i]++
	path := f.path + "/" + ref.Name

	if !ref.IsLoop() {
		bound, err := decodeSegment(ref.Segment, seg)
		if err != nil {
			return b.errorAt(ErrCodeInvalidElementValue, path, seg, "%v", err)
		}
		return f.layout.attach(ref, i, bound, nil)
	}

	child := NewLayout(ref.Loop)
	if err := f.layout.attach(ref, i, nil, child); err != nil {
		return err
	}
	if !ref.Single() {
		path = fmt.Sprintf("%s[%d]", path, f.counts[i]-1)
	}
	slog.Debug("enter loop", "loop", ref.Loop.ID, "path", path, "segment", seg.Index)
	b.stack = append(b.stack, newFrame(child, path, false))
	return b.place(len(b.stack)-1, 0, seg)
}

// openLevel binds an HL segment as a new level under the scope frame at
// depth. Levels are linked into a tree when the scope closes.
func (b *binder) openLevel(depth int, seg x12.Segment) error {
	if err := b.popTo(depth); err != nil {
		return err
	}
	scope := b.top()
	if scope.pos < scope.firstLevel {
		if err := b.advance(scope, scope.firstLevel); err != nil {
			return err
		}
	}

	code := seg.Value(3)
	loop, ok := levelLoop(scope.loop, code)
	if !ok {
		e := b.errorAt(ErrCodeUnexpectedHierarchicalLevel, scope.path, seg,
			"level code %q is not declared under %s", code, scope.loop.ID)
		e.Details = map[string]string{"level": seg.Value(1), "code": code}
		return e
	}

	layout := NewLayout(loop)
	path := fmt.Sprintf("%s/%s[%d]", scope.path, loop.ID, len(scope.levels))
	scope.levels = append(scope.levels, pendingLevel{layout: layout, index: seg.Index, path: path})
	slog.Debug("open level", "loop", loop.ID, "id", seg.Value(1), "parent", seg.Value(2), "segment", seg.Index)

	b.stack = append(b.stack, newFrame(layout, path, true))
	return b.place(len(b.stack)-1, 0, seg)
}

// advance moves frame f to reference i, checking the minimum of every
// reference it passes.
func (b *binder) advance(f *frame, i int) error {
	if f.isScope() && !f.linked && i > f.lastLevel {
		if err := b.link(f); err != nil {
			return err
		}
	}
	if i == f.pos {
		return nil
	}
	if err := b.checkMinimums(f, f.pos, i); err != nil {
		return err
	}
	f.pos = i
	return nil
}

// popTo closes frames until the frame at depth is on top.
func (b *binder) popTo(depth int) error {
	for len(b.stack)-1 > depth {
		if err := b.close(b.top()); err != nil {
			return err
		}
		b.stack = b.stack[:len(b.stack)-1]
	}
	return nil
}

// close checks the frame's remaining references.
func (b *binder) close(f *frame) error {
	if f.isScope() && !f.linked {
		if err := b.link(f); err != nil {
			return err
		}
	}
	return b.checkMinimums(f, f.pos, len(f.loop.Children))
}

func (b *binder) checkMinimums(f *frame, from, to int) error {
	for j := from; j < to; j++ {
		ref := f.loop.Children[j]
		if isLevelRef(ref) {
			continue
		}
		if f.counts[j] < ref.Min {
			e := newError(ErrCodeRequiredSegmentMissing, f.path+"/"+ref.Name,
				"%s requires %d occurrence(s) of %s, found %d", f.loop.ID, ref.Min, ref.Name, f.counts[j])
			e.Tag = ref.Tag()
			e.Index = b.index
			e.Details = map[string]string{"min": fmt.Sprint(ref.Min), "found": fmt.Sprint(f.counts[j])}
			return e
		}
	}
	return nil
}

// finish closes every open frame at end of input.
func (b *binder) finish() error {
	b.index = -1
	if err := b.popTo(0); err != nil {
		return err
	}
	return b.close(b.stack[0])
}

func (b *binder) errorAt(code ErrorCode, path string, seg x12.Segment, format string, args ...any) *Error {
	e := newError(code, path, format, args...)
	e.Tag = seg.Tag
	e.Index = seg.Index
	return e
}

// levelLoop finds the level loop for code anywhere below scope's level
// references.
func levelLoop(scope *schema.Loop, code string) (*schema.Loop, bool) {
	var found *schema.Loop
	seen := make(map[*schema.Loop]bool)
	var visit func(*schema.Loop)
	visit = func(l *schema.Loop) {
		for _, ref := range l.Children {
			if found != nil || !isLevelRef(ref) || seen[ref.Loop] {
				continue
			}
			seen[ref.Loop] = true
			if ref.Loop.Level == code {
				found = ref.Loop
				return
			}
			visit(ref.Loop)
		}
	}
	visit(scope)
	return found, found != nil
}
