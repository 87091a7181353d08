package ir

import (
	"fmt"
	"reflect"
)

// FieldKey identifies a field on an entity type. Keys are stable across
// releases: X12 reference designators ("NM103", "CLM05-01") for document
// entities, business names ("ClaimID") for application entities.
type FieldKey string

// SlotKind distinguishes single values from repetitions.
type SlotKind int

const (
	KindValue SlotKind = iota
	KindList
)

// String returns the kind name.
func (k SlotKind) String() string {
	if k == KindList {
		return "list"
	}
	return "value"
}

// Slot is an addressable field holding a *Value[T] or *ValueList[T].
// Only the two container types in this package implement it.
type Slot interface {
	IsMissing() bool
	SetMissing()
	Kind() SlotKind
	TypeName() string

	assign(src Slot) bool
	export() (any, bool)
}

// FieldSlot pairs a key with the slot it addresses.
type FieldSlot struct {
	Key  FieldKey
	Slot Slot
}

// FieldDescriptor describes one field of an entity type.
type FieldDescriptor struct {
	Key  FieldKey `json:"key"`
	Kind SlotKind `json:"kind"`
	Type string   `json:"type"`
}

// Entity is any structured record: a bound segment, a loop, or an
// application object.
//
// Slots must return the same keys in the same order on every call for a
// given entity type, and every slot must point into the entity so writes
// through it are visible.
type Entity interface {
	Slots() []FieldSlot
}

// Fields enumerates the field descriptors of e.
func Fields(e Entity) []FieldDescriptor {
	slots := e.Slots()
	out := make([]FieldDescriptor, len(slots))
	for i, fs := range slots {
		out[i] = FieldDescriptor{Key: fs.Key, Kind: fs.Slot.Kind(), Type: fs.Slot.TypeName()}
	}
	return out
}

// Lookup returns the slot for key.
func Lookup(e Entity, key FieldKey) (Slot, bool) {
	for _, fs := range e.Slots() {
		if fs.Key == key {
			return fs.Slot, true
		}
	}
	return nil, false
}

// IndexOf returns the position of key in e.Slots(), or -1.
func IndexOf(e Entity, key FieldKey) int {
	for i, fs := range e.Slots() {
		if fs.Key == key {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether every field of e is Missing. A nil entity is
// empty.
func IsEmpty(e Entity) bool {
	if e == nil {
		return true
	}
	for _, fs := range e.Slots() {
		if !fs.Slot.IsMissing() {
			return false
		}
	}
	return true
}

// Assign copies src into dst when both slots hold the same value type.
func Assign(dst, src Slot) error {
	if !dst.assign(src) {
		return fmt.Errorf("cannot assign %s to %s", src.TypeName(), dst.TypeName())
	}
	return nil
}

// SameType reports whether two slots hold identical value types.
func SameType(a, b Slot) bool {
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

// Export returns the payload of a slot: the T of a present Value, a []any
// of a present list, or false when Missing.
func Export(s Slot) (any, bool) {
	return s.export()
}
