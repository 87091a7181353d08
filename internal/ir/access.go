package ir

import "fmt"

// Get returns the Value[T] stored under key. It is Missing when the key is
// unknown or the slot holds another type.
func Get[T any](e Entity, key FieldKey) Value[T] {
	slot, ok := Lookup(e, key)
	if !ok {
		return Missing[T]()
	}
	v, ok := slot.(*Value[T])
	if !ok {
		return Missing[T]()
	}
	return *v
}

// GetList returns the ValueList[T] stored under key, or a Missing list.
func GetList[T any](e Entity, key FieldKey) ValueList[T] {
	slot, ok := Lookup(e, key)
	if !ok {
		return MissingList[T]()
	}
	l, ok := slot.(*ValueList[T])
	if !ok {
		return MissingList[T]()
	}
	return *l
}

// Put stores v under key.
func Put[T any](e Entity, key FieldKey, v Value[T]) error {
	slot, ok := Lookup(e, key)
	if !ok {
		return fmt.Errorf("no field %q", key)
	}
	dst, ok := slot.(*Value[T])
	if !ok {
		return fmt.Errorf("field %q holds %s, not %s", key, slot.TypeName(), typeName[T]())
	}
	*dst = v
	return nil
}

// PutList stores l under key.
func PutList[T any](e Entity, key FieldKey, l ValueList[T]) error {
	slot, ok := Lookup(e, key)
	if !ok {
		return fmt.Errorf("no field %q", key)
	}
	dst, ok := slot.(*ValueList[T])
	if !ok {
		return fmt.Errorf("field %q holds %s, not []%s", key, slot.TypeName(), typeName[T]())
	}
	dst.SetItems(l.items)
	dst.present = l.present
	return nil
}
