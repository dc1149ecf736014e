package builder

import (
	"fmt"
	"reflect"

	"github.com/goliatone/go-buildergen/pkg/schema"
)

// Of holds the synthesized artifacts for the Go struct type T.
type Of[T any] struct {
	synthesis *Synthesis
	typ       reflect.Type
}

// For describes T and synthesizes its builder. T must be a struct whose
// fields are all exported; other kinds fail with schema.ErrUnsupportedShape.
func For[T any](opts ...Option) (*Of[T], error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	record, err := schema.Describe(typ)
	if err != nil {
		return nil, fmt.Errorf("builder: %w", err)
	}
	syn, err := Synthesize(record, opts...)
	if err != nil {
		return nil, err
	}
	return &Of[T]{synthesis: syn, typ: typ}, nil
}

// MustFor panics when For fails.
func MustFor[T any](opts ...Option) *Of[T] {
	of, err := For[T](opts...)
	if err != nil {
		panic(err)
	}
	return of
}

// Synthesis exposes the untyped artifacts.
func (o *Of[T]) Synthesis() *Synthesis {
	return o.synthesis
}

// Builder returns an empty typed builder.
func (o *Of[T]) Builder() *Typed[T] {
	return &Typed[T]{b: o.synthesis.Builder(), typ: o.typ}
}

// Typed wraps a Builder and materializes T on Build.
type Typed[T any] struct {
	b   *Builder
	typ reflect.Type
}

// Set assigns the named struct field and returns t for chaining.
func (t *Typed[T]) Set(name string, value any) *Typed[T] {
	t.b.Set(name, value)
	return t
}

// Build returns a populated T, or a *FieldNotSetError naming the first unset
// field.
func (t *Typed[T]) Build() (T, error) {
	var out T
	inst, err := t.b.Build()
	if err != nil {
		return out, err
	}
	rv := reflect.ValueOf(&out).Elem()
	for i, field := range inst.Fields {
		if field.Value == nil {
			continue
		}
		rv.Field(i).Set(reflect.ValueOf(field.Value))
	}
	return out, nil
}

// Missing lists every unset field in declaration order.
func (t *Typed[T]) Missing() []string {
	return t.b.Missing()
}

// State reports the wrapped builder's state.
func (t *Typed[T]) State() State {
	return t.b.State()
}

// Untyped returns the wrapped builder.
func (t *Typed[T]) Untyped() *Builder {
	return t.b
}
