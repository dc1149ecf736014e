package orchestrator_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-buildergen/pkg/orchestrator"
	"github.com/goliatone/go-buildergen/pkg/schema"
)

func fileRequest(name string) orchestrator.Request {
	return orchestrator.Request{Source: schema.SourceFromFile(filepath.Join("testdata", name))}
}

func TestGenerate_GoSourceDetected(t *testing.T) {
	o := orchestrator.New()
	out, err := o.Generate(context.Background(), fileRequest("command.go"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	src := string(out)

	for _, fragment := range []string{
		"package shell",
		"func (Command) Builder() *CommandBuilder",
		"func (b *CommandBuilder) CurrentDir(v string) *CommandBuilder",
		"CurrentDir: *b.currentDir,",
	} {
		if !strings.Contains(src, fragment) {
			t.Fatalf("expected %q in output\n%s", fragment, src)
		}
	}
	if strings.Contains(src, "type Command struct") {
		t.Fatalf("go source types must not be redeclared\n%s", src)
	}
	if strings.Contains(src, "Unmarked") {
		t.Fatalf("unmarked type should be ignored\n%s", src)
	}
}

func TestGenerate_ManifestDeclaresTypes(t *testing.T) {
	o := orchestrator.New()
	req := fileRequest("shell.yaml")
	req.Types = []string{"Command"}
	req.Package = "launch"
	req.Header = "Source: shell.yaml"

	out, err := o.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	src := string(out)
	for _, fragment := range []string{
		"package launch",
		"// Source: shell.yaml",
		"type Command struct",
		"CurrentDir string",
		"type CommandBuilder struct",
	} {
		if !strings.Contains(src, fragment) {
			t.Fatalf("expected %q in output\n%s", fragment, src)
		}
	}
}

func TestGenerate_UnsupportedShapeFails(t *testing.T) {
	o := orchestrator.New()
	_, err := o.Generate(context.Background(), fileRequest("shell.yaml"))
	if !errors.Is(err, schema.ErrUnsupportedShape) {
		t.Fatalf("expected unsupported shape error, got %v", err)
	}
	if !strings.Contains(err.Error(), "enum") {
		t.Fatalf("expected error to name the shape, got %v", err)
	}
}

func TestGenerate_OpenAPISkipUnsupported(t *testing.T) {
	o := orchestrator.New()
	req := fileRequest("shell.openapi.yaml")
	req.SkipUnsupported = true

	out, err := o.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	src := string(out)
	if !strings.Contains(src, "package api") || !strings.Contains(src, "type CommandBuilder struct") {
		t.Fatalf("unexpected output\n%s", src)
	}
	if strings.Contains(src, "Signal") {
		t.Fatalf("enum should have been skipped\n%s", src)
	}

	req.Types = []string{"Signal"}
	if _, err := o.Generate(context.Background(), req); !errors.Is(err, schema.ErrUnsupportedShape) {
		t.Fatalf("explicitly requested enum must fail, got %v", err)
	}
}

func TestGenerate_InMemoryDocument(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "command.go"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	doc := schema.MustNewDocument(schema.SourceFromFile("command.go"), raw)

	o := orchestrator.New()
	out, err := o.Generate(context.Background(), orchestrator.Request{Document: &doc, Format: "go"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(string(out), "type CommandBuilder struct") {
		t.Fatalf("unexpected output\n%s", out)
	}
}

func TestRecords_PresetTransformer(t *testing.T) {
	transformer, err := orchestrator.NewPresetTransformerFromFS(os.DirFS("testdata"), "preset.yaml")
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	o := orchestrator.New(orchestrator.WithSchemaTransformer(transformer))

	req := fileRequest("shell.yaml")
	req.Types = []string{"Command"}
	set, err := o.Records(context.Background(), req)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	command := set.Records[0]
	if diff := cmp.Diff([]string{"executable", "args", "env", "dir"}, command.FieldNames()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if command.Doc != "Command launches a process." || command.Fields[3].Doc != "Working directory." {
		t.Fatalf("expected docs to be patched, got %+v", command)
	}
}

func TestPresetTransformer_UnknownField(t *testing.T) {
	transformer, err := orchestrator.NewPresetTransformer([]byte(`{"records": {"Command": {"fields": {"nope": {"doc": "x"}}}}}`))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	set := schema.RecordSet{Records: []schema.Record{{Name: "Command", Shape: schema.ShapeStruct}}}
	if err := transformer.Transform(context.Background(), &set); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if _, err := orchestrator.NewPresetTransformer(nil); err == nil {
		t.Fatalf("expected empty document error")
	}
}

func TestSynthesize_Declarations(t *testing.T) {
	o := orchestrator.New()
	req := fileRequest("shell.yaml")
	req.SkipUnsupported = true
	req.Suffix = "Assembler"

	syns, err := o.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if len(syns) != 1 {
		t.Fatalf("expected one synthesis, got %d", len(syns))
	}
	decl := syns[0].Declaration
	if decl.Name != "CommandAssembler" || decl.Len() != 4 {
		t.Fatalf("unexpected declaration %s with %d slots", decl.Name, decl.Len())
	}
}

type claimAll struct{}

func (claimAll) Name() string                         { return "everything" }
func (claimAll) Detect(schema.Source, []byte) bool    { return true }
func (claimAll) Load(context.Context, schema.Source) (schema.Document, error) {
	return schema.Document{}, errors.New("not implemented")
}
func (claimAll) Normalize(context.Context, schema.Document, schema.NormalizeOptions) (schema.RecordSet, error) {
	return schema.RecordSet{}, nil
}

func TestResolve_AmbiguousDetection(t *testing.T) {
	o := orchestrator.New(orchestrator.WithAdapters(claimAll{}))
	_, err := o.Generate(context.Background(), fileRequest("command.go"))
	if err == nil || !strings.Contains(err.Error(), "multiple adapters") {
		t.Fatalf("expected ambiguity error, got %v", err)
	}

	req := fileRequest("command.go")
	req.Format = "go"
	if _, err := o.Generate(context.Background(), req); err != nil {
		t.Fatalf("explicit format should bypass detection: %v", err)
	}
}

func TestResolve_Errors(t *testing.T) {
	o := orchestrator.New()
	ctx := context.Background()

	if _, err := o.Generate(ctx, orchestrator.Request{}); err == nil {
		t.Fatalf("expected error without source")
	}
	req := fileRequest("command.go")
	req.Format = "protobuf"
	if _, err := o.Generate(ctx, req); err == nil {
		t.Fatalf("expected unknown format error")
	}
	if diff := cmp.Diff([]string{"go", "jsonschema", "openapi", "yaml"}, o.Adapters()); diff != "" {
		t.Fatalf("adapters mismatch (-want +got):\n%s", diff)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := o.Generate(cancelled, fileRequest("command.go")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestNew_DuplicateAdapter(t *testing.T) {
	o := orchestrator.New(orchestrator.WithAdapters(claimAll{}, claimAll{}))
	if _, err := o.Records(context.Background(), fileRequest("command.go")); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestGenerate_JSONSchemaDetected(t *testing.T) {
	o := orchestrator.New()
	req := fileRequest("shell.schema.json")
	req.SkipUnsupported = true

	out, err := o.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	src := string(out)
	for _, fragment := range []string{
		"package schema",
		"type Job struct",
		"StartedAt time.Time",
		"func (b *TimedCommandBuilder) TimeoutMs(v int64) *TimedCommandBuilder",
	} {
		if !strings.Contains(src, fragment) {
			t.Fatalf("expected %q in output\n%s", fragment, src)
		}
	}
	if strings.Contains(src, "SignalBuilder") {
		t.Fatalf("enum should have been skipped\n%s", src)
	}
}
