package translate

import "github.com/GeekSage/Machete/internal/ir"

type record struct {
	A ir.Value[string]
	B ir.Value[string]
	C ir.Value[string]
}

func newRecord() *record { return &record{} }

func (r *record) Slots() []ir.FieldSlot {
	return []ir.FieldSlot{
		{Key: "A", Slot: &r.A},
		{Key: "B", Slot: &r.B},
		{Key: "C", Slot: &r.C},
	}
}

type counted struct {
	Name  ir.Value[string]
	Count ir.Value[int64]
	Tags  ir.ValueList[string]
}

func newCounted() *counted { return &counted{} }

func (c *counted) Slots() []ir.FieldSlot {
	return []ir.FieldSlot{
		{Key: "Name", Slot: &c.Name},
		{Key: "Count", Slot: &c.Count},
		{Key: "Tags", Slot: &c.Tags},
	}
}

// tree is a nested input; node is the nested output built from it.
type tree struct {
	Name     ir.Value[string]
	Child    ir.Value[*tree]
	Children ir.ValueList[*tree]
}

func newTree() *tree { return &tree{} }

func (t *tree) Slots() []ir.FieldSlot {
	return []ir.FieldSlot{
		{Key: "Name", Slot: &t.Name},
		{Key: "Child", Slot: &t.Child},
		{Key: "Children", Slot: &t.Children},
	}
}

type node struct {
	Label ir.Value[string]
	Sub   ir.Value[*node]
	Subs  ir.ValueList[*node]
}

func newNode() *node { return &node{} }

func (n *node) Slots() []ir.FieldSlot {
	return []ir.FieldSlot{
		{Key: "Label", Slot: &n.Label},
		{Key: "Sub", Slot: &n.Sub},
		{Key: "Subs", Slot: &n.Subs},
	}
}

func leaf(name string) *tree {
	t := newTree()
	t.Name.Set(name)
	return t
}

func codes(results []ir.ValidateResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = string(r.Key) + ":" + r.Code
	}
	return out
}
