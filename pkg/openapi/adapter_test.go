package openapi_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-buildergen/internal/loader"
	"github.com/goliatone/go-buildergen/pkg/builder"
	"github.com/goliatone/go-buildergen/pkg/openapi"
	"github.com/goliatone/go-buildergen/pkg/schema"
	"github.com/goliatone/go-buildergen/pkg/testsupport"
)

func loadDocument(t *testing.T, opts schema.NormalizeOptions) schema.RecordSet {
	t.Helper()
	adapter := openapi.NewAdapter(loader.New(schema.NewLoaderOptions()))
	ctx := context.Background()

	doc, err := adapter.Load(ctx, schema.SourceFromFile(filepath.Join("testdata", "shell.yaml")))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !adapter.Detect(doc.Source(), doc.Raw()) {
		t.Fatalf("expected openapi document to be detected")
	}
	set, err := adapter.Normalize(ctx, doc, opts)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return set
}

func TestNormalize_ComponentSchemas(t *testing.T) {
	set := loadDocument(t, schema.NormalizeOptions{})

	var got []string
	for _, record := range set.Records {
		got = append(got, record.Name+":"+string(record.Shape))
	}
	want := []string{
		"Command:struct",
		"Job:struct",
		"TimedCommand:struct",
		"Signal:enum",
		"Output:union",
		"Pair:tuple",
		"Name:scalar",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}

	command, _ := set.Record("Command")
	wantFields := []schema.Field{
		{Name: "executable", Type: schema.TypeRef{Expr: "string"}, Doc: "Program path."},
		{Name: "args", Type: schema.TypeRef{Expr: "[]string"}},
		{Name: "env", Type: schema.TypeRef{Expr: "[]string"}},
		{Name: "current_dir", Type: schema.TypeRef{Expr: "string"}},
	}
	if diff := cmp.Diff(wantFields, command.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if command.Doc != "Command describes a process to launch." {
		t.Fatalf("unexpected doc %q", command.Doc)
	}
	if command.Package != "api" {
		t.Fatalf("expected default package api, got %q", command.Package)
	}
	if command.Imports != nil {
		t.Fatalf("expected no imports, got %v", command.Imports)
	}
}

func TestNormalize_TypeMapping(t *testing.T) {
	set := loadDocument(t, schema.NormalizeOptions{Package: "jobs", Types: []string{"Job"}})
	if len(set.Records) != 1 {
		t.Fatalf("expected a single record, got %d", len(set.Records))
	}
	job := set.Records[0]

	got := map[string]string{}
	var order []string
	for _, field := range job.Fields {
		got[field.Name] = field.Type.Expr
		order = append(order, field.Name)
	}
	want := map[string]string{
		"command":    "Command",
		"started_at": "time.Time",
		"retries":    "int32",
		"labels":     "map[string]string",
		"weight":     "float64",
		"exit_code":  "*int64",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"command", "started_at", "retries", "labels", "weight", "exit_code"}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{`"time"`}, job.Imports); diff != "" {
		t.Fatalf("imports mismatch (-want +got):\n%s", diff)
	}
	if job.Package != "jobs" {
		t.Fatalf("expected package override, got %q", job.Package)
	}
}

func TestNormalize_AllOfMergesMembers(t *testing.T) {
	set := loadDocument(t, schema.NormalizeOptions{Types: []string{"TimedCommand"}})
	want := []string{"executable", "args", "env", "current_dir", "timeout_ms", "detached"}
	if diff := cmp.Diff(want, set.Records[0].FieldNames()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_UnknownType(t *testing.T) {
	adapter := openapi.NewAdapter(loader.New(schema.NewLoaderOptions()))
	ctx := context.Background()
	doc, err := adapter.Load(ctx, schema.SourceFromFile(filepath.Join("testdata", "shell.yaml")))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := adapter.Normalize(ctx, doc, schema.NormalizeOptions{Types: []string{"Missing"}}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestNormalize_NoComponents(t *testing.T) {
	adapter := openapi.NewAdapter(nil)
	raw := []byte("openapi: 3.0.3\ninfo: {title: x, version: '1'}\npaths: {}\n")
	doc := schema.MustNewDocument(schema.SourceFromFile("empty.yaml"), raw)
	if _, err := adapter.Normalize(context.Background(), doc, schema.NormalizeOptions{}); err == nil {
		t.Fatalf("expected error for document without component schemas")
	}
}

func TestSynthesis_RejectsNonObjectSchemas(t *testing.T) {
	set := loadDocument(t, schema.NormalizeOptions{})
	for _, name := range []string{"Signal", "Output", "Pair", "Name"} {
		record, _ := set.Record(name)
		if _, err := builder.Synthesize(record); !errors.Is(err, schema.ErrUnsupportedShape) {
			t.Fatalf("%s: expected unsupported shape, got %v", name, err)
		}
	}
	command, _ := set.Record("Command")
	if _, err := builder.Synthesize(command); err != nil {
		t.Fatalf("command synthesis: %v", err)
	}
}

func TestDetect(t *testing.T) {
	adapter := openapi.NewAdapter(nil)
	cases := map[string]struct {
		raw  string
		want bool
	}{
		"yaml":     {raw: "openapi: 3.1.0\n", want: true},
		"json":     {raw: `{"openapi":"3.0.0"}`, want: true},
		"swagger":  {raw: `{"swagger":"2.0"}`, want: true},
		"manifest": {raw: "records: []\n", want: false},
		"empty":    {raw: "", want: false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := adapter.Detect(nil, []byte(tc.raw)); got != tc.want {
				t.Fatalf("Detect() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNormalize_PreloadedDocument(t *testing.T) {
	path := filepath.Join("testdata", "shell.yaml")
	doc := testsupport.LoadDocument(t, path)

	set, err := openapi.NewAdapter(nil).Normalize(testsupport.Context(), doc, schema.NormalizeOptions{Types: []string{"Command"}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got, want := set.Records[0].Location, path+"#/components/schemas/Command"; got != want {
		t.Fatalf("location = %q, want %q", got, want)
	}
}
