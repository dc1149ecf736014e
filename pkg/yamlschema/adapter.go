// Package yamlschema reads record descriptions from YAML (or JSON) manifests:
//
//	package: shell
//	imports: ["time"]
//	records:
//	  - name: Command
//	    doc: Command describes a process to launch.
//	    fields:
//	      - {name: executable, type: string}
//	      - {name: args, type: "[]string"}
//	      - {name: timeout, type: time.Duration}
//
// A record may declare `shape: tuple|enum|union` to describe a declaration
// that has no named fields; synthesis rejects those records.
package yamlschema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-buildergen/pkg/schema"
)

// AdapterName is the registry identifier of the manifest adapter.
const AdapterName = "yaml"

// Adapter implements schema.RecordAdapter for record manifests.
type Adapter struct {
	loader schema.Loader
}

var _ schema.RecordAdapter = (*Adapter)(nil)

// NewAdapter constructs a manifest adapter backed by loader.
func NewAdapter(loader schema.Loader) *Adapter {
	return &Adapter{loader: loader}
}

// Name returns the adapter registry identifier.
func (a *Adapter) Name() string {
	return AdapterName
}

// Detect reports whether the payload is a manifest: a YAML or JSON mapping
// with a top-level records key.
func (a *Adapter) Detect(_ schema.Source, raw []byte) bool {
	var probe map[string]any
	if err := yaml.Unmarshal(raw, &probe); err != nil {
		return false
	}
	_, hasRecords := probe["records"]
	_, hasOpenAPI := probe["openapi"]
	return hasRecords && !hasOpenAPI
}

// Load fetches the raw manifest.
func (a *Adapter) Load(ctx context.Context, src schema.Source) (schema.Document, error) {
	if a == nil || a.loader == nil {
		return schema.Document{}, errors.New("yamlschema adapter: loader is nil")
	}
	return a.loader.Load(ctx, src)
}

type manifestFile struct {
	Package string       `yaml:"package"`
	Imports []string     `yaml:"imports"`
	Records []recordFile `yaml:"records"`
}

type recordFile struct {
	Name   string      `yaml:"name"`
	Doc    string      `yaml:"doc"`
	Shape  string      `yaml:"shape"`
	Fields []fieldFile `yaml:"fields"`
}

type fieldFile struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Doc  string `yaml:"doc"`
}

// Normalize decodes the manifest into records, keeping declaration order.
func (a *Adapter) Normalize(ctx context.Context, doc schema.Document, opts schema.NormalizeOptions) (schema.RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return schema.RecordSet{}, err
	}

	raw := doc.Raw()
	if len(strings.TrimSpace(string(raw))) == 0 {
		return schema.RecordSet{}, fmt.Errorf("yamlschema: file %s is empty", doc.Location())
	}

	var manifest manifestFile
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return schema.RecordSet{}, fmt.Errorf("yamlschema: parse %s: %w", doc.Location(), err)
	}

	pkg := strings.TrimSpace(manifest.Package)
	if opts.Package != "" {
		pkg = opts.Package
	}
	imports := make([]string, 0, len(manifest.Imports))
	for _, imp := range manifest.Imports {
		imports = append(imports, quoteImport(imp))
	}

	var set schema.RecordSet
	for idx, entry := range manifest.Records {
		record, err := normaliseRecord(entry, doc.Location(), idx)
		if err != nil {
			return schema.RecordSet{}, err
		}
		record.Package = pkg
		if record.Shape == schema.ShapeStruct {
			record.Imports = append([]string(nil), imports...)
		}
		set.Records = append(set.Records, record)
	}
	return set.Select(opts.Types...)
}

func normaliseRecord(entry recordFile, source string, idx int) (schema.Record, error) {
	name := strings.TrimSpace(entry.Name)
	if name == "" {
		return schema.Record{}, fmt.Errorf("yamlschema: file %s record %d has no name", source, idx)
	}
	shape, err := schema.ParseShape(entry.Shape)
	if err != nil {
		return schema.Record{}, fmt.Errorf("yamlschema: file %s record %q: %w", source, name, err)
	}

	record := schema.Record{
		Name:     name,
		Shape:    shape,
		Doc:      strings.TrimSpace(entry.Doc),
		Location: fmt.Sprintf("%s#records[%d]", source, idx),
	}
	for fidx, field := range entry.Fields {
		fieldName := strings.TrimSpace(field.Name)
		typ := strings.TrimSpace(field.Type)
		if fieldName == "" {
			return schema.Record{}, fmt.Errorf("yamlschema: file %s record %q field %d has no name", source, name, fidx)
		}
		if typ == "" {
			return schema.Record{}, fmt.Errorf("yamlschema: file %s record %q field %q has no type", source, name, fieldName)
		}
		record.Fields = append(record.Fields, schema.Field{
			Name: fieldName,
			Type: schema.TypeRef{Expr: typ},
			Doc:  strings.TrimSpace(field.Doc),
		})
	}
	if err := record.Validate(); err != nil {
		return schema.Record{}, fmt.Errorf("yamlschema: file %s: %w", source, err)
	}
	return record, nil
}

// quoteImport accepts `time`, `"time"` or `alias path` and returns a Go
// import spec.
func quoteImport(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parts := strings.Fields(trimmed)
	if len(parts) == 2 {
		return parts[0] + " " + quotePath(parts[1])
	}
	return quotePath(trimmed)
}

func quotePath(path string) string {
	return `"` + strings.Trim(path, `"`) + `"`
}
