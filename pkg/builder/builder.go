package builder

import (
	"fmt"
	"reflect"
)

// State describes how far a builder has been filled.
type State int

const (
	StateEmpty State = iota
	StatePartiallyFilled
	StateFilled
	StateBuilt
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePartiallyFilled:
		return "partially-filled"
	case StateFilled:
		return "filled"
	case StateBuilt:
		return "built"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type slotValue struct {
	value any
	set   bool
}

// Builder accumulates field values for one record instance. The zero value is
// not usable; obtain builders from a Factory.
type Builder struct {
	decl  *Declaration
	slots []slotValue
	built bool
}

// Declaration returns the declaration this builder was created from.
func (b *Builder) Declaration() *Declaration {
	return b.decl
}

// Set assigns the named field and returns b for chaining. Setting a field
// that the record does not declare panics, like calling a method that does
// not exist.
func (b *Builder) Set(name string, value any) *Builder {
	slot, ok := b.decl.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("builder: %s has no field %q", b.decl.Record, name))
	}
	return Setter{Field: slot.Field, Index: slot.Index, decl: b.decl}.Apply(b, value)
}

// Build finalizes the builder. See Finalizer.Build.
func (b *Builder) Build() (Instance, error) {
	return Finalizer{decl: b.decl}.Build(b)
}

// IsSet reports whether the named field has been supplied.
func (b *Builder) IsSet(name string) bool {
	slot, ok := b.decl.Lookup(name)
	if !ok {
		return false
	}
	return b.slots[slot.Index].set
}

// Missing lists every unset field in declaration order. Build only reports
// the first of them.
func (b *Builder) Missing() []string {
	var out []string
	for i, slot := range b.slots {
		if !slot.set {
			out = append(out, b.decl.Slots[i].Field.Name)
		}
	}
	return out
}

// State reports the builder's position in the empty → filled → built
// progression.
func (b *Builder) State() State {
	set := 0
	for _, slot := range b.slots {
		if slot.set {
			set++
		}
	}
	switch {
	case b.built && set == len(b.slots):
		return StateBuilt
	case set == len(b.slots):
		return StateFilled
	case set == 0:
		return StateEmpty
	default:
		return StatePartiallyFilled
	}
}

// coerce checks value against t. A nil t means the declared type could not
// be resolved and any value is stored as given.
func coerce(record, field string, t reflect.Type, value any) any {
	if t == nil {
		return value
	}
	if value == nil {
		switch t.Kind() {
		case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Interface, reflect.Chan, reflect.Func:
			return reflect.Zero(t).Interface()
		}
		panic(fmt.Sprintf("builder: %s.%s: cannot use nil as %s", record, field, t))
	}
	vt := reflect.TypeOf(value)
	if !vt.AssignableTo(t) {
		panic(fmt.Sprintf("builder: %s.%s: cannot use %s as %s", record, field, vt, t))
	}
	return value
}

// copyValue detaches slices and maps from the builder's storage so later
// writes through the builder do not alias a built instance.
func copyValue(value any) any {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return value
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(out, rv)
		return out.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return value
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out.Interface()
	default:
		return value
	}
}
