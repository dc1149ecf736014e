package codegen_test

import (
	"context"
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-buildergen/pkg/codegen"
	"github.com/goliatone/go-buildergen/pkg/schema"
	"github.com/goliatone/go-buildergen/pkg/testsupport"
)

func generate(t *testing.T, opts []codegen.Option, records ...schema.Record) string {
	t.Helper()
	gen, err := codegen.New(opts...)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	out, err := gen.Generate(context.Background(), records...)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return string(out)
}

// declarations parses src and returns its top level type and function names,
// methods qualified by receiver type.
func declarations(t *testing.T, src string) []string {
	t.Helper()
	file, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated source does not parse: %v\n%s", err, src)
	}
	var names []string
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok {
					names = append(names, "type "+ts.Name.Name)
				}
			}
		case *ast.FuncDecl:
			recv := ""
			if d.Recv != nil && len(d.Recv.List) > 0 {
				switch rt := d.Recv.List[0].Type.(type) {
				case *ast.StarExpr:
					recv = "*" + rt.X.(*ast.Ident).Name + "."
				case *ast.Ident:
					recv = rt.Name + "."
				}
			}
			names = append(names, "func "+recv+d.Name.Name)
		}
	}
	return names
}

func TestGenerate_CommandArtifacts(t *testing.T) {
	src := generate(t, []codegen.Option{codegen.WithDeclareTypes(true)}, testsupport.CommandRecord())

	want := []string{
		"type Command",
		"type CommandBuilder",
		"func Command.Builder",
		"func *CommandBuilder.Executable",
		"func *CommandBuilder.Args",
		"func *CommandBuilder.Env",
		"func *CommandBuilder.CurrentDir",
		"func *CommandBuilder.Build",
	}
	if diff := cmp.Diff(want, declarations(t, src)); diff != "" {
		t.Fatalf("declarations mismatch (-want +got):\n%s", diff)
	}

	for _, fragment := range []string{
		"// Code generated by buildergen. DO NOT EDIT.",
		"package shell",
		`"github.com/goliatone/go-buildergen/pkg/builder"`,
		"executable *string",
		"args       *[]string",
		"currentDir *string",
		"// Command describes a process to launch.",
		"\t// Program path.\n\tExecutable string",
		`&builder.FieldNotSetError{Record: "Command", Field: "executable"}`,
		"CurrentDir: *b.currentDir,",
	} {
		if !strings.Contains(src, fragment) {
			t.Fatalf("expected generated source to contain %q\n%s", fragment, src)
		}
	}

	// The first declared field is checked first.
	first := strings.Index(src, `Field: "executable"`)
	last := strings.Index(src, `Field: "current_dir"`)
	if first < 0 || last < 0 || first > last {
		t.Fatalf("expected checks in declaration order\n%s", src)
	}
}

func TestGenerate_GoSourceRecordsKeepFieldNames(t *testing.T) {
	record := schema.Record{
		Name:    "Command",
		Package: "shell",
		Shape:   schema.ShapeStruct,
		Fields: []schema.Field{
			{Name: "Executable", Type: schema.TypeRef{Expr: "string"}},
			{Name: "timeout", Type: schema.TypeRef{Expr: "time.Duration"}},
		},
		Imports: []string{`"time"`, `"os"`},
	}
	src := generate(t, nil, record)

	if strings.Contains(src, "type Command struct") {
		t.Fatalf("did not expect the record type to be declared\n%s", src)
	}
	for _, fragment := range []string{
		"Executable: *b.executable,",
		"timeout:    *b.timeout,",
		"func (b *CommandBuilder) Timeout(v time.Duration) *CommandBuilder",
		`"time"`,
	} {
		if !strings.Contains(src, fragment) {
			t.Fatalf("expected generated source to contain %q\n%s", fragment, src)
		}
	}
	if strings.Contains(src, `"os"`) {
		t.Fatalf("expected unused import to be pruned\n%s", src)
	}
}

func TestGenerate_ZeroFieldRecord(t *testing.T) {
	record := schema.Record{Name: "Empty", Package: "shell", Shape: schema.ShapeStruct}
	src := generate(t, []codegen.Option{codegen.WithDeclareTypes(true)}, record)
	if !strings.Contains(src, "return Empty{}, nil") {
		t.Fatalf("expected unconditional build\n%s", src)
	}
	if strings.Contains(src, "go-buildergen/pkg/builder") {
		t.Fatalf("expected runtime import to be pruned\n%s", src)
	}
}

func TestGenerate_OptionsApply(t *testing.T) {
	record := testsupport.CommandRecord()
	src := generate(t, []codegen.Option{
		codegen.WithDeclareTypes(true),
		codegen.WithPackage("launch"),
		codegen.WithSuffix("Assembler"),
		codegen.WithHeader("Source: shell.yaml"),
	}, record)

	for _, fragment := range []string{"package launch", "type CommandAssembler struct", "// Source: shell.yaml"} {
		if !strings.Contains(src, fragment) {
			t.Fatalf("expected generated source to contain %q\n%s", fragment, src)
		}
	}
}

func TestGenerate_SanitizesDocs(t *testing.T) {
	record := testsupport.CommandRecord()
	record.Doc = "Runs a <b>process</b> &amp; waits."
	src := generate(t, []codegen.Option{codegen.WithDeclareTypes(true)}, record)
	if !strings.Contains(src, "// Runs a process & waits.") {
		t.Fatalf("expected sanitized doc\n%s", src)
	}
}

func TestGenerate_Errors(t *testing.T) {
	gen, err := codegen.New(codegen.WithDeclareTypes(true))
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	ctx := context.Background()

	if _, err := gen.Generate(ctx); err == nil {
		t.Fatalf("expected error without records")
	}

	tuple := schema.Record{Name: "Pair", Package: "shell", Shape: schema.ShapeTuple}
	if _, err := gen.Generate(ctx, tuple); !errors.Is(err, schema.ErrUnsupportedShape) {
		t.Fatalf("expected unsupported shape, got %v", err)
	}

	cases := map[string]schema.Record{
		"no package": {Name: "Command", Shape: schema.ShapeStruct},
		"bad type": {Name: "Command", Package: "shell", Fields: []schema.Field{
			{Name: "args", Type: schema.TypeRef{Expr: "[]]string"}},
		}},
		"setter clash": {Name: "Command", Package: "shell", Fields: []schema.Field{
			{Name: "current_dir", Type: schema.TypeRef{Expr: "string"}},
			{Name: "currentDir", Type: schema.TypeRef{Expr: "string"}},
		}},
		"build clash": {Name: "Command", Package: "shell", Fields: []schema.Field{
			{Name: "build", Type: schema.TypeRef{Expr: "string"}},
		}},
		"slot clash": {Name: "Request", Package: "shell", Fields: []schema.Field{
			{Name: "URLPath", Type: schema.TypeRef{Expr: "string"}},
			{Name: "UrlPath", Type: schema.TypeRef{Expr: "string"}},
		}},
		"factory clash": {Name: "Command", Package: "shell", Fields: []schema.Field{
			{Name: "builder", Type: schema.TypeRef{Expr: "string"}},
		}},
	}
	for name, record := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := gen.Generate(ctx, record); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	mixed := []schema.Record{
		{Name: "A", Package: "one", Shape: schema.ShapeStruct},
		{Name: "B", Package: "two", Shape: schema.ShapeStruct},
	}
	if _, err := gen.Generate(ctx, mixed...); err == nil {
		t.Fatalf("expected error for records spanning packages")
	}
}
