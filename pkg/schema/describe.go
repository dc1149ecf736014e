package schema

import (
	"fmt"
	"reflect"
)

// Describe derives a record description from a live Go type. Struct types
// yield ShapeStruct with one field per struct field; every other kind is
// classified so the synthesizer can reject it with an UnsupportedShapeError.
func Describe(t reflect.Type) (Record, error) {
	if t == nil {
		return Record{}, fmt.Errorf("schema: describe nil type")
	}

	record := Record{
		Name:     t.Name(),
		Package:  t.PkgPath(),
		Location: t.String(),
	}
	if record.Name == "" {
		record.Name = t.String()
	}

	switch t.Kind() {
	case reflect.Struct:
		record.Shape = ShapeStruct
	case reflect.Array, reflect.Slice:
		record.Shape = ShapeTuple
		return record, nil
	case reflect.Interface:
		record.Shape = ShapeUnion
		return record, nil
	case reflect.Map, reflect.Chan, reflect.Func, reflect.Pointer, reflect.UnsafePointer:
		record.Shape = ShapeOther
		return record, nil
	default:
		record.Shape = ShapeScalar
		return record, nil
	}

	record.Fields = make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			return Record{}, fmt.Errorf("schema: %s field %q is unexported and cannot be assigned", t, sf.Name)
		}
		record.Fields = append(record.Fields, Field{
			Name: sf.Name,
			Type: TypeOf(sf.Type),
		})
	}
	return record, nil
}
