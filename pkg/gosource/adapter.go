// Package gosource reads record descriptions from Go source files.
//
// A type opts in to builder generation with a marker comment on its
// declaration:
//
//	//buildergen:builder
//	type Command struct {
//		Executable string
//		Args       []string
//	}
//
// Callers may instead name the types explicitly through
// schema.NormalizeOptions.Types. Every selected declaration is described,
// including shapes that cannot get a builder (arrays, interfaces, enums) so
// synthesis reports them instead of silently skipping them.
package gosource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"strings"

	"github.com/goliatone/go-buildergen/pkg/schema"
)

const (
	// AdapterName is the registry identifier of the Go source adapter.
	AdapterName = "go"
	// Marker opts a type declaration in to builder generation.
	Marker = "//buildergen:builder"
)

// Adapter implements schema.RecordAdapter for Go source files.
type Adapter struct {
	loader schema.Loader
}

var _ schema.RecordAdapter = (*Adapter)(nil)

// NewAdapter constructs a Go source adapter backed by loader.
func NewAdapter(loader schema.Loader) *Adapter {
	return &Adapter{loader: loader}
}

// Name returns the adapter registry identifier.
func (a *Adapter) Name() string {
	return AdapterName
}

// Detect reports whether the payload looks like a Go source file.
func (a *Adapter) Detect(src schema.Source, raw []byte) bool {
	if schema.LocationExt(src) == ".go" {
		return true
	}
	for _, line := range bytes.Split(raw, []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 || bytes.HasPrefix(trimmed, []byte("//")) {
			continue
		}
		return bytes.HasPrefix(trimmed, []byte("package "))
	}
	return false
}

// Load fetches the raw source file.
func (a *Adapter) Load(ctx context.Context, src schema.Source) (schema.Document, error) {
	if a == nil || a.loader == nil {
		return schema.Document{}, errors.New("gosource adapter: loader is nil")
	}
	return a.loader.Load(ctx, src)
}

// Normalize parses the file and describes every selected type declaration.
func (a *Adapter) Normalize(ctx context.Context, doc schema.Document, opts schema.NormalizeOptions) (schema.RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return schema.RecordSet{}, err
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, doc.Location(), doc.Raw(), parser.ParseComments)
	if err != nil {
		return schema.RecordSet{}, fmt.Errorf("gosource adapter: parse %s: %w", doc.Location(), err)
	}

	pkg := file.Name.Name
	if opts.Package != "" {
		pkg = opts.Package
	}

	wanted := make(map[string]bool, len(opts.Types))
	for _, name := range opts.Types {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			wanted[trimmed] = true
		}
	}

	d := describer{
		fset:    fset,
		enums:   constantTypes(file),
		imports: importSpecs(file),
	}

	var set schema.RecordSet
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			doc := typeSpec.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			if len(wanted) > 0 {
				if !wanted[typeSpec.Name.Name] {
					continue
				}
			} else if !hasMarker(doc) {
				continue
			}

			record := d.describe(typeSpec, doc)
			record.Package = pkg
			set.Records = append(set.Records, record)
		}
	}
	if len(wanted) > 0 {
		return set.Select(opts.Types...)
	}
	return set, nil
}

type describer struct {
	fset    *token.FileSet
	enums   map[string]bool
	imports []string
}

func (d describer) describe(spec *ast.TypeSpec, doc *ast.CommentGroup) schema.Record {
	record := schema.Record{
		Name:     spec.Name.Name,
		Doc:      docText(doc),
		Location: d.fset.Position(spec.Pos()).String(),
	}

	if spec.TypeParams != nil && spec.TypeParams.NumFields() > 0 {
		record.Shape = schema.ShapeOther
		return record
	}

	switch t := spec.Type.(type) {
	case *ast.StructType:
		record.Shape = schema.ShapeStruct
		record.Fields = d.fields(t)
		record.Imports = append([]string(nil), d.imports...)
	case *ast.ArrayType:
		if t.Len != nil {
			record.Shape = schema.ShapeTuple
		} else {
			record.Shape = schema.ShapeOther
		}
	case *ast.InterfaceType:
		record.Shape = schema.ShapeUnion
	case *ast.Ident, *ast.SelectorExpr:
		if d.enums[spec.Name.Name] {
			record.Shape = schema.ShapeEnum
		} else {
			record.Shape = schema.ShapeScalar
		}
	default:
		record.Shape = schema.ShapeOther
	}
	return record
}

func (d describer) fields(st *ast.StructType) []schema.Field {
	if st.Fields == nil {
		return nil
	}
	var out []schema.Field
	for _, field := range st.Fields.List {
		typ := schema.TypeRef{Expr: exprString(d.fset, field.Type)}
		doc := docText(field.Doc)
		if doc == "" {
			doc = docText(field.Comment)
		}
		if len(field.Names) == 0 {
			out = append(out, schema.Field{Name: embeddedName(field.Type), Type: typ, Doc: doc})
			continue
		}
		for _, name := range field.Names {
			if name.Name == "_" {
				continue
			}
			out = append(out, schema.Field{Name: name.Name, Type: typ, Doc: doc})
		}
	}
	return out
}

// embeddedName returns the implicit field name of an embedded type: the
// unqualified type name without pointer or type arguments.
func embeddedName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	default:
		return ""
	}
}

// constantTypes collects the named types that have typed constants declared
// in the file, the Go spelling of an enumeration.
func constantTypes(file *ast.File) map[string]bool {
	out := make(map[string]bool)
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.CONST {
			continue
		}
		for _, spec := range gen.Specs {
			value, ok := spec.(*ast.ValueSpec)
			if !ok || value.Type == nil {
				continue
			}
			if ident, ok := value.Type.(*ast.Ident); ok {
				out[ident.Name] = true
			}
		}
	}
	return out
}

func importSpecs(file *ast.File) []string {
	var out []string
	for _, imp := range file.Imports {
		if imp.Path == nil {
			continue
		}
		spec := imp.Path.Value
		if imp.Name != nil {
			if imp.Name.Name == "_" || imp.Name.Name == "." {
				continue
			}
			spec = imp.Name.Name + " " + spec
		}
		out = append(out, spec)
	}
	return out
}

func hasMarker(doc *ast.CommentGroup) bool {
	if doc == nil {
		return false
	}
	for _, comment := range doc.List {
		text := strings.TrimSpace(comment.Text)
		if text == Marker || strings.HasPrefix(text, Marker+" ") || strings.HasPrefix(text, Marker+"\t") {
			return true
		}
	}
	return false
}

// docText returns the comment text without directives such as the marker.
func docText(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}

func exprString(fset *token.FileSet, expr ast.Expr) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, expr); err != nil {
		return ""
	}
	return buf.String()
}
