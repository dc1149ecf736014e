// Package codegen renders builder source code for record descriptions.
//
// For every record the generated file holds the same four artifacts the
// runtime synthesizer produces: a builder struct with one pointer slot per
// field, a Builder factory method on the record type, one setter method per
// field and a Build method that fails with *builder.FieldNotSetError on the
// first unset field.
package codegen

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/goliatone/go-buildergen/pkg/builder"
	"github.com/goliatone/go-buildergen/pkg/render/template"
	"github.com/goliatone/go-buildergen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-buildergen/pkg/schema"
)

//go:embed templates/*.tpl
var templatesFS embed.FS

const (
	templateName = "templates/builder"
	// RuntimeImport is the import spec generated files use for error types.
	RuntimeImport = `"github.com/goliatone/go-buildergen/pkg/builder"`
	// FactoryMethod names the method generated on the record type.
	FactoryMethod = "Builder"
	// DefaultFilename is used when formatting output without a file name.
	DefaultFilename = "builders_gen.go"
)

// Option customises the generator.
type Option func(*Generator)

// WithPackage sets the package clause of the generated file. Without it all
// records must agree on their package.
func WithPackage(name string) Option {
	return func(g *Generator) {
		g.pkg = strings.TrimSpace(name)
	}
}

// WithSuffix overrides the builder type suffix.
func WithSuffix(suffix string) Option {
	return func(g *Generator) {
		if trimmed := strings.TrimSpace(suffix); trimmed != "" {
			g.suffix = trimmed
		}
	}
}

// WithHeader adds a comment block below the generated-code notice.
func WithHeader(header string) Option {
	return func(g *Generator) {
		g.header = strings.TrimSpace(header)
	}
}

// WithDeclareTypes emits the record struct declarations as well. Use it for
// descriptions that do not come from Go source.
func WithDeclareTypes(enabled bool) Option {
	return func(g *Generator) {
		g.declare = enabled
	}
}

// WithFilename names the output file for import resolution and error
// messages.
func WithFilename(name string) Option {
	return func(g *Generator) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			g.filename = trimmed
		}
	}
}

// WithRenderer swaps the template renderer. The renderer must resolve
// "templates/builder".
func WithRenderer(renderer template.TemplateRenderer) Option {
	return func(g *Generator) {
		g.renderer = renderer
	}
}

// Generator renders builder source for records.
type Generator struct {
	pkg      string
	suffix   string
	header   string
	declare  bool
	filename string
	renderer template.TemplateRenderer
}

// New constructs a Generator backed by the embedded pongo2 template unless a
// renderer is supplied.
func New(opts ...Option) (*Generator, error) {
	g := &Generator{
		suffix:   builder.DefaultSuffix,
		filename: DefaultFilename,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if g.renderer == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(templatesFS))
		if err != nil {
			return nil, fmt.Errorf("codegen: %w", err)
		}
		g.renderer = engine
	}
	return g, nil
}

type fileView struct {
	Header  string       `json:"header"`
	Package string       `json:"package"`
	Imports []string     `json:"imports"`
	Records []recordView `json:"records"`
}

type recordView struct {
	Name    string      `json:"name"`
	Quoted  string      `json:"quoted"`
	Builder string      `json:"builder"`
	Factory string      `json:"factory"`
	Declare bool        `json:"declare"`
	Doc     string      `json:"doc"`
	Fields  []fieldView `json:"fields"`
}

type fieldView struct {
	Name   string `json:"name"`
	Quoted string `json:"quoted"`
	Field  string `json:"field"`
	Slot   string `json:"slot"`
	Setter string `json:"setter"`
	Type   string `json:"type"`
	Doc    string `json:"doc"`
}

// Generate renders one Go file holding builders for every record. Records
// that cannot get a builder fail generation with schema.ErrUnsupportedShape.
func (g *Generator) Generate(ctx context.Context, records ...schema.Record) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("codegen: no records to generate")
	}

	pkg, err := g.packageName(records)
	if err != nil {
		return nil, err
	}

	view := fileView{
		Header:  sanitizeDoc(g.header),
		Package: pkg,
	}
	importSet := map[string]bool{RuntimeImport: true}
	for _, record := range records {
		rv, err := g.recordView(record)
		if err != nil {
			return nil, err
		}
		view.Records = append(view.Records, rv)
		for _, spec := range record.Imports {
			importSet[spec] = true
		}
	}
	for spec := range importSet {
		view.Imports = append(view.Imports, spec)
	}
	sort.Strings(view.Imports)

	rendered, err := g.renderer.RenderTemplate(templateName, view)
	if err != nil {
		return nil, fmt.Errorf("codegen: render: %w", err)
	}

	formatted, err := imports.Process(g.filename, []byte(rendered), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("codegen: format %s: %w", g.filename, err)
	}
	return formatted, nil
}

func (g *Generator) packageName(records []schema.Record) (string, error) {
	pkg := g.pkg
	if pkg == "" {
		for _, record := range records {
			switch {
			case record.Package == "":
			case pkg == "":
				pkg = record.Package
			case pkg != record.Package:
				return "", fmt.Errorf("codegen: records span packages %q and %q", pkg, record.Package)
			}
		}
	}
	if pkg == "" {
		return "", errors.New("codegen: package name is required")
	}
	if !token.IsIdentifier(pkg) {
		return "", fmt.Errorf("codegen: invalid package name %q", pkg)
	}
	return pkg, nil
}

func (g *Generator) recordView(record schema.Record) (recordView, error) {
	syn, err := builder.Synthesize(record, builder.WithSuffix(g.suffix))
	if err != nil {
		return recordView{}, fmt.Errorf("codegen: %w", err)
	}
	decl := syn.Declaration
	if !token.IsIdentifier(record.Name) || !token.IsIdentifier(decl.Name) {
		return recordView{}, fmt.Errorf("codegen: record name %q is not a Go identifier", record.Name)
	}

	rv := recordView{
		Name:    record.Name,
		Quoted:  strconv.Quote(record.Name),
		Builder: decl.Name,
		Factory: FactoryMethod,
		Declare: g.declare,
		Doc:     sanitizeDoc(record.Doc),
		Fields:  []fieldView{},
	}
	if rv.Declare && rv.Doc == "" {
		rv.Doc = record.Name + " is generated from " + describeOrigin(record) + "."
	}

	setters := map[string]string{"Build": "Build method"}
	slots := make(map[string]string, len(decl.Slots))
	for _, slot := range decl.Slots {
		field := slot.Field
		setter := exportName(field.Name)
		if setter == "" {
			return recordView{}, fmt.Errorf("codegen: record %q field %q has no usable identifier", record.Name, field.Name)
		}
		if prev, clash := setters[setter]; clash {
			return recordView{}, fmt.Errorf("codegen: record %q field %q collides with %s as %s", record.Name, field.Name, prev, setter)
		}
		setters[setter] = fmt.Sprintf("field %q", field.Name)

		ident := field.Name
		if g.declare {
			ident = setter
		}
		if !token.IsIdentifier(ident) {
			return recordView{}, fmt.Errorf("codegen: record %q field %q is not a Go identifier", record.Name, field.Name)
		}
		if ident == FactoryMethod {
			return recordView{}, fmt.Errorf("codegen: record %q field %q collides with the %s method", record.Name, field.Name, FactoryMethod)
		}

		slot := slotName(field.Name)
		if prev, clash := slots[slot]; clash {
			return recordView{}, fmt.Errorf("codegen: record %q field %q shares builder slot %s with %s", record.Name, field.Name, slot, prev)
		}
		slots[slot] = fmt.Sprintf("field %q", field.Name)

		typ := field.Type.String()
		if _, err := parser.ParseExpr(typ); err != nil || strings.TrimSpace(typ) == "" {
			return recordView{}, fmt.Errorf("codegen: record %q field %q has invalid type %q", record.Name, field.Name, typ)
		}

		rv.Fields = append(rv.Fields, fieldView{
			Name:   field.Name,
			Quoted: strconv.Quote(field.Name),
			Field:  ident,
			Slot:   slot,
			Setter: setter,
			Type:   typ,
			Doc:    sanitizeDoc(field.Doc),
		})
	}
	return rv, nil
}

func describeOrigin(record schema.Record) string {
	if record.Location == "" {
		return "a record description"
	}
	return record.Location
}
