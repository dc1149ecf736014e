package builder

import (
	"go/ast"
	"go/parser"
	"reflect"
)

var predeclared = map[string]reflect.Type{
	"bool":       reflect.TypeOf(false),
	"string":     reflect.TypeOf(""),
	"int":        reflect.TypeOf(int(0)),
	"int8":       reflect.TypeOf(int8(0)),
	"int16":      reflect.TypeOf(int16(0)),
	"int32":      reflect.TypeOf(int32(0)),
	"rune":       reflect.TypeOf(rune(0)),
	"int64":      reflect.TypeOf(int64(0)),
	"uint":       reflect.TypeOf(uint(0)),
	"uint8":      reflect.TypeOf(uint8(0)),
	"byte":       reflect.TypeOf(byte(0)),
	"uint16":     reflect.TypeOf(uint16(0)),
	"uint32":     reflect.TypeOf(uint32(0)),
	"uint64":     reflect.TypeOf(uint64(0)),
	"uintptr":    reflect.TypeOf(uintptr(0)),
	"float32":    reflect.TypeOf(float32(0)),
	"float64":    reflect.TypeOf(float64(0)),
	"complex64":  reflect.TypeOf(complex64(0)),
	"complex128": reflect.TypeOf(complex128(0)),
	"error":      reflect.TypeOf((*error)(nil)).Elem(),
	"any":        reflect.TypeOf((*any)(nil)).Elem(),
}

// exprType resolves a type expression built only from predeclared types
// (slices, pointers and maps of them included). Expressions naming any
// other type resolve to nil and are not checked.
func exprType(expr string) reflect.Type {
	if expr == "" {
		return nil
	}
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return nil
	}
	return astType(node)
}

func astType(node ast.Expr) reflect.Type {
	switch n := node.(type) {
	case *ast.Ident:
		return predeclared[n.Name]
	case *ast.ParenExpr:
		return astType(n.X)
	case *ast.StarExpr:
		if elem := astType(n.X); elem != nil {
			return reflect.PointerTo(elem)
		}
	case *ast.ArrayType:
		if n.Len != nil {
			return nil
		}
		if elem := astType(n.Elt); elem != nil {
			return reflect.SliceOf(elem)
		}
	case *ast.MapType:
		key, value := astType(n.Key), astType(n.Value)
		if key != nil && value != nil && key.Comparable() {
			return reflect.MapOf(key, value)
		}
	case *ast.InterfaceType:
		if n.Methods == nil || len(n.Methods.List) == 0 {
			return predeclared["any"]
		}
	}
	return nil
}

// fieldType returns the Go type values for a field are checked against: the
// live type when the description came from Go, otherwise the resolved
// expression.
func fieldType(t reflect.Type, expr string) reflect.Type {
	if t != nil {
		return t
	}
	return exprType(expr)
}
