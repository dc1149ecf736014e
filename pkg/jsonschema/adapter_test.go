package jsonschema_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-buildergen/pkg/builder"
	"github.com/goliatone/go-buildergen/pkg/jsonschema"
	"github.com/goliatone/go-buildergen/pkg/schema"
	"github.com/goliatone/go-buildergen/pkg/testsupport"
)

type failingLoader struct{}

func (failingLoader) Load(context.Context, schema.Source) (schema.Document, error) {
	return schema.Document{}, errors.New("unexpected loader call")
}

func normalizeFixture(t *testing.T, opts schema.NormalizeOptions) schema.RecordSet {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", "shell.schema.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	doc := schema.MustNewDocument(schema.SourceFromFS("shell.schema.json"), raw)
	set, err := jsonschema.NewAdapter(failingLoader{}).Normalize(context.Background(), doc, opts)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return set
}

func TestNormalize_ShapesAndOrder(t *testing.T) {
	set := normalizeFixture(t, schema.NormalizeOptions{})

	var got []string
	for _, record := range set.Records {
		got = append(got, record.Name+":"+string(record.Shape))
	}
	want := []string{
		"Job:struct",
		"Command:struct",
		"TimedCommand:struct",
		"Signal:enum",
		"Output:union",
		"Pair:tuple",
		"Metadata:other",
		"Name:scalar",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}

	command, _ := set.Record("Command")
	if diff := cmp.Diff([]string{"executable", "args", "env", "current_dir"}, command.FieldNames()); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
	if command.Package != jsonschema.DefaultPackage {
		t.Fatalf("expected default package, got %q", command.Package)
	}
	if command.Fields[0].Doc != "Program path." {
		t.Fatalf("expected property doc, got %q", command.Fields[0].Doc)
	}
	if command.Location != "shell.schema.json#/$defs/Command" {
		t.Fatalf("unexpected location %q", command.Location)
	}
}

func TestNormalize_Golden(t *testing.T) {
	set := normalizeFixture(t, schema.NormalizeOptions{Types: []string{"Job", "Command"}})

	golden := filepath.Join("testdata", "records.golden.json")
	testsupport.WriteGolden(t, golden, set.Records)

	var want []schema.Record
	if err := json.Unmarshal(testsupport.MustReadGolden(t, golden), &want); err != nil {
		t.Fatalf("decode golden: %v", err)
	}
	if diff := testsupport.CompareGolden(want, set.Records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_TypeMapping(t *testing.T) {
	set := normalizeFixture(t, schema.NormalizeOptions{Package: "launch", Types: []string{"Job"}})
	if len(set.Records) != 1 {
		t.Fatalf("expected one record, got %v", set.Names())
	}
	job := set.Records[0]

	got := make(map[string]string)
	for _, field := range job.Fields {
		got[field.Name] = field.Type.String()
	}
	want := map[string]string{
		"command":    "Command",
		"started_at": "time.Time",
		"retries":    "int32",
		"labels":     "map[string]string",
		"exit_code":  "*int64",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{`"time"`}, job.Imports); diff != "" {
		t.Fatalf("imports mismatch (-want +got):\n%s", diff)
	}
	if job.Package != "launch" || job.Doc != "Job schedules a command." {
		t.Fatalf("unexpected record %+v", job)
	}
}

func TestNormalize_AllOfMergesReferencedFields(t *testing.T) {
	set := normalizeFixture(t, schema.NormalizeOptions{Types: []string{"TimedCommand"}})
	timed := set.Records[0]

	want := []string{"executable", "args", "env", "current_dir", "timeout_ms"}
	if diff := cmp.Diff(want, timed.FieldNames()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if timed.Fields[1].Type.String() != "[]string" {
		t.Fatalf("first declaration should win, got %s", timed.Fields[1].Type)
	}

	syn, err := builder.Synthesize(timed)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if syn.Declaration.Len() != 5 {
		t.Fatalf("expected five slots, got %d", syn.Declaration.Len())
	}
}

func TestNormalize_Errors(t *testing.T) {
	adapter := jsonschema.NewAdapter(failingLoader{})
	cases := map[string]string{
		"missing dialect":     `{"title":"Command","type":"object"}`,
		"unsupported dialect": `{"$schema":"http://json-schema.org/draft-07/schema#","title":"Command","type":"object"}`,
		"no records":          `{"$schema":"https://json-schema.org/draft/2020-12/schema","type":"object"}`,
		"external ref": `{"$schema":"https://json-schema.org/draft/2020-12/schema","title":"Command","type":"object",
			"properties":{"env":{"$ref":"env.json#/$defs/Env"}}}`,
		"undeclared ref": `{"$schema":"https://json-schema.org/draft/2020-12/schema","title":"Command","type":"object",
			"properties":{"env":{"$ref":"#/$defs/Env"}}}`,
		"cyclic allOf": `{"$schema":"https://json-schema.org/draft/2020-12/schema",
			"$defs":{"A":{"allOf":[{"$ref":"#/$defs/B"}]},"B":{"allOf":[{"$ref":"#/$defs/A"}]}}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			doc := schema.MustNewDocument(schema.SourceFromFS("root.json"), []byte(raw))
			if _, err := adapter.Normalize(context.Background(), doc, schema.NormalizeOptions{}); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestNormalize_RootNameFromTitle(t *testing.T) {
	raw := `{"$schema":"https://json-schema.org/draft/2020-12/schema","title":"launch request","type":"object",
		"properties":{"name":{"type":"string"}}}`
	doc := schema.MustNewDocument(schema.SourceFromFS("root.json"), []byte(raw))
	set, err := jsonschema.NewAdapter(failingLoader{}).Normalize(context.Background(), doc, schema.NormalizeOptions{})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if diff := cmp.Diff([]string{"LaunchRequest"}, set.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestDetect(t *testing.T) {
	adapter := jsonschema.NewAdapter(nil)
	cases := map[string]bool{
		`{"$schema":"https://json-schema.org/draft/2020-12/schema"}`: true,
		`{"type":"object","properties":{}}`:                          true,
		`{"openapi":"3.1.0","components":{}}`:                        false,
		`{"records":[{"name":"Command"}]}`:                           false,
		"records:\n  - name: Command\n":                              false,
		`{"name":"not a schema"}`:                                    false,
	}
	for raw, want := range cases {
		if got := adapter.Detect(schema.SourceFromFS("x.json"), []byte(raw)); got != want {
			t.Fatalf("Detect(%s) = %v, want %v", strings.TrimSpace(raw), got, want)
		}
	}
}
