package builder

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/goliatone/go-buildergen/pkg/schema"
)

// DefaultSuffix is appended to the record name to name its builder.
const DefaultSuffix = "Builder"

// Option customises synthesis.
type Option func(*options)

type options struct {
	suffix string
}

// WithSuffix overrides the builder name suffix ("Builder" by default).
func WithSuffix(suffix string) Option {
	return func(o *options) {
		if trimmed := strings.TrimSpace(suffix); trimmed != "" {
			o.suffix = trimmed
		}
	}
}

// Synthesis bundles the artifacts generated for one record.
type Synthesis struct {
	Declaration *Declaration
	Factory     Factory
	Setters     []Setter
	Finalizer   Finalizer
}

// Synthesize produces the builder artifacts for a named-field record. Any
// other shape fails with a *schema.UnsupportedShapeError and no artifacts.
func Synthesize(record schema.Record, opts ...Option) (*Synthesis, error) {
	cfg := options{suffix: DefaultSuffix}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := schema.CheckShape(record); err != nil {
		return nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("builder: %w", err)
	}

	decl := declare(record, cfg.suffix)
	return &Synthesis{
		Declaration: decl,
		Factory:     Factory{decl: decl},
		Setters:     setters(decl),
		Finalizer:   Finalizer{decl: decl},
	}, nil
}

// MustSynthesize panics when synthesis fails. Useful for package-level
// variables over records known to be valid.
func MustSynthesize(record schema.Record, opts ...Option) *Synthesis {
	syn, err := Synthesize(record, opts...)
	if err != nil {
		panic(err)
	}
	return syn
}

// Builder is shorthand for s.Factory.New().
func (s *Synthesis) Builder() *Builder {
	return s.Factory.New()
}

// Setter returns the setter for the named field.
func (s *Synthesis) Setter(name string) (Setter, bool) {
	slot, ok := s.Declaration.Lookup(name)
	if !ok {
		return Setter{}, false
	}
	return s.Setters[slot.Index], true
}

// Declaration is the builder type: one slot per record field, in declaration
// order, and nothing else.
type Declaration struct {
	Record string
	Name   string
	Slots  []Slot

	index map[string]int
	types []reflect.Type
}

// Slot is the storage location of one field inside a builder.
type Slot struct {
	Index int
	Field schema.Field
}

// Lookup returns the slot declared for the named field.
func (d *Declaration) Lookup(name string) (Slot, bool) {
	i, ok := d.index[name]
	if !ok {
		return Slot{}, false
	}
	return d.Slots[i], true
}

// Len returns the number of slots.
func (d *Declaration) Len() int {
	return len(d.Slots)
}

func declare(record schema.Record, suffix string) *Declaration {
	decl := &Declaration{
		Record: record.Name,
		Name:   record.Name + suffix,
		Slots:  make([]Slot, len(record.Fields)),
		index:  make(map[string]int, len(record.Fields)),
		types:  make([]reflect.Type, len(record.Fields)),
	}
	for i, field := range record.Fields {
		decl.Slots[i] = Slot{Index: i, Field: field}
		decl.index[field.Name] = i
		decl.types[i] = fieldType(field.Type.Go, field.Type.Expr)
	}
	return decl
}

// Factory creates empty builders.
type Factory struct {
	decl *Declaration
}

// New returns a builder with every slot unset.
func (f Factory) New() *Builder {
	return &Builder{
		decl:  f.decl,
		slots: make([]slotValue, len(f.decl.Slots)),
	}
}

// Setter assigns one field of a builder.
type Setter struct {
	Field schema.Field
	Index int

	decl *Declaration
}

func setters(decl *Declaration) []Setter {
	out := make([]Setter, len(decl.Slots))
	for i, slot := range decl.Slots {
		out[i] = Setter{Field: slot.Field, Index: i, decl: decl}
	}
	return out
}

// Apply stores value into the setter's slot, overwriting any previous value,
// and returns b for chaining. A value that is not assignable to the field's
// type panics, mirroring the compile error generated code would produce. So
// does applying a setter to a builder of another declaration.
func (s Setter) Apply(b *Builder, value any) *Builder {
	if b.decl != s.decl {
		panic(fmt.Sprintf("builder: setter for field %q cannot assign a %s", s.Field.Name, b.decl.Name))
	}
	t := s.decl.types[s.Index]
	b.slots[s.Index] = slotValue{value: coerce(s.decl.Record, s.Field.Name, t, value), set: true}
	b.built = false
	return b
}

// Finalizer validates and materializes builders.
type Finalizer struct {
	decl *Declaration
}

// Build walks the slots in declaration order and fails with a
// *FieldNotSetError on the first unset one. Otherwise it returns a new
// Instance holding copies of the slot values. The builder is not modified
// beyond being marked as built.
func (f Finalizer) Build(b *Builder) (Instance, error) {
	if b.decl != f.decl {
		panic(fmt.Sprintf("builder: %s cannot finalize a %s", f.decl.Name, b.decl.Name))
	}
	for i, slot := range b.slots {
		if !slot.set {
			return Instance{}, &FieldNotSetError{Record: f.decl.Record, Field: f.decl.Slots[i].Field.Name}
		}
	}

	inst := Instance{
		Record: f.decl.Record,
		Fields: make([]Value, len(b.slots)),
	}
	for i, slot := range b.slots {
		inst.Fields[i] = Value{Name: f.decl.Slots[i].Field.Name, Value: copyValue(slot.value)}
	}
	b.built = true
	return inst, nil
}
