package ir

import (
	"fmt"
	"reflect"
)

// Value holds at most one value of type T.
//
// A Value is either Missing (the field was not transmitted) or Present. The
// zero Value is Missing, so a struct of Values starts out empty. Present
// with the zero T (for example an empty string) is a different state from
// Missing and must stay distinguishable through a round trip.
type Value[T any] struct {
	v       T
	present bool
}

// Missing returns a Value with no content.
func Missing[T any]() Value[T] {
	return Value[T]{}
}

// Present returns a Value holding v.
func Present[T any](v T) Value[T] {
	return Value[T]{v: v, present: true}
}

// Get returns the held value and whether it is present.
func (v Value[T]) Get() (T, bool) {
	return v.v, v.present
}

// OrElse returns the held value, or def when Missing.
func (v Value[T]) OrElse(def T) T {
	if !v.present {
		return def
	}
	return v.v
}

// IsPresent reports whether the value was transmitted.
func (v Value[T]) IsPresent() bool {
	return v.present
}

// IsMissing reports whether the value is absent.
func (v Value[T]) IsMissing() bool {
	return !v.present
}

// Set stores x and marks the value present.
func (v *Value[T]) Set(x T) {
	v.v = x
	v.present = true
}

// SetMissing clears the value.
func (v *Value[T]) SetMissing() {
	var zero T
	v.v = zero
	v.present = false
}

// Kind implements Slot.
func (v *Value[T]) Kind() SlotKind {
	return KindValue
}

// TypeName implements Slot.
func (v *Value[T]) TypeName() string {
	return typeName[T]()
}

// String renders the value for diagnostics.
func (v Value[T]) String() string {
	if !v.present {
		return "<missing>"
	}
	return fmt.Sprint(v.v)
}

func (v *Value[T]) assign(src Slot) bool {
	s, ok := src.(*Value[T])
	if !ok {
		return false
	}
	*v = *s
	return true
}

func (v *Value[T]) export() (any, bool) {
	if !v.present {
		return nil, false
	}
	return v.v, true
}

// ValueList is an ordered repetition of values.
//
// Missing applies to the list as a whole; an individual item is never
// Missing inside a present list.
type ValueList[T any] struct {
	items   []T
	present bool
}

// MissingList returns an absent list.
func MissingList[T any]() ValueList[T] {
	return ValueList[T]{}
}

// PresentList returns a present list holding items. A present list may be
// empty.
func PresentList[T any](items ...T) ValueList[T] {
	cp := make([]T, len(items))
	copy(cp, items)
	return ValueList[T]{items: cp, present: true}
}

// IsPresent reports whether the list was transmitted.
func (l ValueList[T]) IsPresent() bool {
	return l.present
}

// IsMissing reports whether the list is absent.
func (l ValueList[T]) IsMissing() bool {
	return !l.present
}

// Len returns the number of items; zero when Missing.
func (l ValueList[T]) Len() int {
	return len(l.items)
}

// At returns item i as a Value. Out-of-range indexes yield Missing.
func (l ValueList[T]) At(i int) Value[T] {
	if i < 0 || i >= len(l.items) {
		return Missing[T]()
	}
	return Present(l.items[i])
}

// Items returns a copy of the items.
func (l ValueList[T]) Items() []T {
	cp := make([]T, len(l.items))
	copy(cp, l.items)
	return cp
}

// Append adds items and marks the list present.
func (l *ValueList[T]) Append(items ...T) {
	l.items = append(l.items, items...)
	l.present = true
}

// SetItems replaces the content and marks the list present.
func (l *ValueList[T]) SetItems(items []T) {
	l.items = make([]T, len(items))
	copy(l.items, items)
	l.present = true
}

// SetMissing clears the list.
func (l *ValueList[T]) SetMissing() {
	l.items = nil
	l.present = false
}

// Kind implements Slot.
func (l *ValueList[T]) Kind() SlotKind {
	return KindList
}

// TypeName implements Slot.
func (l *ValueList[T]) TypeName() string {
	return "[]" + typeName[T]()
}

func (l *ValueList[T]) assign(src Slot) bool {
	s, ok := src.(*ValueList[T])
	if !ok {
		return false
	}
	l.SetItems(s.items)
	l.present = s.present
	return true
}

func (l *ValueList[T]) export() (any, bool) {
	if !l.present {
		return nil, false
	}
	out := make([]any, len(l.items))
	for i, item := range l.items {
		out[i] = item
	}
	return out, true
}

// typeName returns a stable name for T, used in field descriptors and in
// type-identity diagnostics.
func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
