package schema

import (
	"errors"
	"fmt"
)

// ErrUnsupportedShape is matched by every UnsupportedShapeError.
var ErrUnsupportedShape = errors.New("unsupported shape")

// UnsupportedShapeError reports a declaration that is not a named-field
// record and therefore cannot get a builder.
type UnsupportedShapeError struct {
	Record string
	Shape  Shape
	// Detail optionally narrows the reason, e.g. the offending field.
	Detail string
}

func (e *UnsupportedShapeError) Error() string {
	msg := fmt.Sprintf("%s: %s %q cannot have a builder, only named-field structs are supported", ErrUnsupportedShape, e.Shape, e.Record)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Is lets errors.Is match against ErrUnsupportedShape.
func (e *UnsupportedShapeError) Is(target error) bool {
	return target == ErrUnsupportedShape
}

// CheckShape returns an UnsupportedShapeError unless the record is a
// named-field struct.
func CheckShape(record Record) error {
	if record.Shape == "" || record.Shape == ShapeStruct {
		return nil
	}
	return &UnsupportedShapeError{Record: record.Name, Shape: record.Shape}
}
