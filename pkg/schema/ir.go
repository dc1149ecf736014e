package schema

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Shape classifies the declaration a record description was read from. Only
// ShapeStruct carries named fields a builder can be synthesized for.
type Shape string

const (
	ShapeStruct Shape = "struct"
	ShapeTuple  Shape = "tuple"
	ShapeEnum   Shape = "enum"
	ShapeUnion  Shape = "union"
	ShapeScalar Shape = "scalar"
	ShapeOther  Shape = "other"
)

// ParseShape maps a textual shape name onto a Shape. Empty input means a
// named-field record.
func ParseShape(raw string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "struct", "record", "object":
		return ShapeStruct, nil
	case "tuple", "positional", "array":
		return ShapeTuple, nil
	case "enum", "enumeration":
		return ShapeEnum, nil
	case "union", "oneof", "anyof", "interface":
		return ShapeUnion, nil
	case "scalar":
		return ShapeScalar, nil
	default:
		return "", fmt.Errorf("schema: unknown shape %q", raw)
	}
}

// TypeRef describes the declared type of a field. Expr is always populated
// with a Go type expression; Go is only set when the description was derived
// from a live Go type.
type TypeRef struct {
	Expr string
	Go   reflect.Type `json:"-"`
}

// TypeOf returns a TypeRef for a live Go type.
func TypeOf(t reflect.Type) TypeRef {
	if t == nil {
		return TypeRef{}
	}
	return TypeRef{Expr: t.String(), Go: t}
}

// String returns the type expression.
func (t TypeRef) String() string {
	if t.Expr == "" && t.Go != nil {
		return t.Go.String()
	}
	return t.Expr
}

// Field describes a single named field of a record.
type Field struct {
	Name string
	Type TypeRef
	Doc  string
}

// Record is the canonical record type description consumed by the builder
// synthesizer.
type Record struct {
	Name    string
	Package string
	Shape   Shape
	Fields  []Field
	Doc     string
	// Imports lists import specs (`"time"`, `osexec "os/exec"`) the field
	// types may depend on.
	Imports []string
	// Location points back at the declaration for error messages.
	Location string
}

// Validate checks the invariants of a record description: a name and unique,
// non-empty field names. The shape is not checked here.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("schema: record name is required")
	}
	seen := make(map[string]struct{}, len(r.Fields))
	for i, field := range r.Fields {
		if strings.TrimSpace(field.Name) == "" {
			return fmt.Errorf("schema: record %q field %d has no name", r.Name, i)
		}
		if _, exists := seen[field.Name]; exists {
			return fmt.Errorf("schema: record %q declares field %q more than once", r.Name, field.Name)
		}
		seen[field.Name] = struct{}{}
	}
	return nil
}

// FieldNames returns the field names in declaration order.
func (r Record) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for _, field := range r.Fields {
		names = append(names, field.Name)
	}
	return names
}

// RecordSet is the normalized set of records produced by adapters, kept in
// declaration order.
type RecordSet struct {
	Records []Record
}

// Record looks up a record by name.
func (s RecordSet) Record(name string) (Record, bool) {
	for _, record := range s.Records {
		if record.Name == name {
			return record, true
		}
	}
	return Record{}, false
}

// Names returns the record names sorted alphabetically.
func (s RecordSet) Names() []string {
	names := make([]string, 0, len(s.Records))
	for _, record := range s.Records {
		names = append(names, record.Name)
	}
	sort.Strings(names)
	return names
}

// Select narrows the set to the named records, preserving declaration order.
// Unknown names are reported as an error.
func (s RecordSet) Select(names ...string) (RecordSet, error) {
	if len(names) == 0 {
		return s, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			wanted[trimmed] = false
		}
	}
	var out RecordSet
	for _, record := range s.Records {
		if _, ok := wanted[record.Name]; ok {
			wanted[record.Name] = true
			out.Records = append(out.Records, record)
		}
	}
	var missing []string
	for name, found := range wanted {
		if !found {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return RecordSet{}, fmt.Errorf("schema: record(s) not found: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// NormalizeOptions supplies optional hints to adapters during normalization.
type NormalizeOptions struct {
	// Package overrides the package name recorded on every record.
	Package string
	// Types restricts normalization to the named declarations. When empty,
	// adapters fall back to their own opt-in rule (markers for Go source,
	// every entry for manifests).
	Types []string
}

// RecordAdapter normalizes source documents into record descriptions.
type RecordAdapter interface {
	Name() string
	Detect(src Source, raw []byte) bool
	Load(ctx context.Context, src Source) (Document, error)
	Normalize(ctx context.Context, doc Document, opts NormalizeOptions) (RecordSet, error)
}
