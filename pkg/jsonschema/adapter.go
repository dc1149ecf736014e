// Package jsonschema reads record descriptions from a JSON Schema (draft
// 2020-12) document. Every entry under $defs becomes a record, as does the
// root schema when it carries a title or $id.
package jsonschema

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-buildergen/pkg/schema"
)

const DefaultAdapterName = "jsonschema"

// DefaultPackage is recorded on every record when the caller does not supply
// one.
const DefaultPackage = "schema"

// Adapter wraps JSON Schema parsing and normalization behind the record
// adapter interface.
type Adapter struct {
	loader schema.Loader
}

var _ schema.RecordAdapter = (*Adapter)(nil)

// NewAdapter constructs a JSON Schema adapter with the supplied loader.
func NewAdapter(loader schema.Loader) *Adapter {
	return &Adapter{loader: loader}
}

// Name returns the adapter registry identifier.
func (a *Adapter) Name() string {
	return DefaultAdapterName
}

// Detect reports whether the raw payload appears to be JSON Schema.
func (a *Adapter) Detect(_ schema.Source, raw []byte) bool {
	return detectJSONSchema(raw)
}

// Load fetches the raw JSON Schema document.
func (a *Adapter) Load(ctx context.Context, src schema.Source) (schema.Document, error) {
	if a == nil || a.loader == nil {
		return schema.Document{}, errors.New("jsonschema adapter: loader is nil")
	}
	return a.loader.Load(ctx, src)
}

// Normalize converts the root schema and its $defs into records.
func (a *Adapter) Normalize(ctx context.Context, doc schema.Document, opts schema.NormalizeOptions) (schema.RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return schema.RecordSet{}, err
	}
	root, err := parseJSONSchema(doc.Raw())
	if err != nil {
		return schema.RecordSet{}, err
	}
	if err := validateDialect(root); err != nil {
		return schema.RecordSet{}, err
	}

	records, err := newConverter(root, doc.Location()).records()
	if err != nil {
		return schema.RecordSet{}, err
	}

	pkg := opts.Package
	if pkg == "" {
		pkg = DefaultPackage
	}
	set := schema.RecordSet{Records: records}
	for i := range set.Records {
		set.Records[i].Package = pkg
	}
	return set.Select(opts.Types...)
}

// parseJSONSchema decodes raw into a yaml.v3 node tree so property order
// survives. JSON is valid YAML.
func parseJSONSchema(raw []byte) (*yaml.Node, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("jsonschema: raw schema is empty")
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("jsonschema: parse schema: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("jsonschema: schema must be an object")
	}
	return doc.Content[0], nil
}

func validateDialect(root *yaml.Node) error {
	value := strings.TrimSpace(scalar(root, "$schema"))
	if value == "" {
		return errors.New("jsonschema: $schema is required")
	}
	if !isDraft202012(value) {
		return fmt.Errorf("jsonschema: unsupported $schema %q", value)
	}
	return nil
}

func isDraft202012(value string) bool {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimSuffix(trimmed, "#")
	switch trimmed {
	case "https://json-schema.org/draft/2020-12/schema", "http://json-schema.org/draft/2020-12/schema":
		return true
	default:
		return false
	}
}

func detectJSONSchema(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var payload map[string]any
	if err := json.Unmarshal(trimmed, &payload); err != nil || payload == nil {
		return false
	}
	for _, key := range []string{"openapi", "swagger", "records"} {
		if _, ok := payload[key]; ok {
			return false
		}
	}
	for _, key := range []string{"$schema", "$id", "$defs", "properties", "type", "items"} {
		if _, ok := payload[key]; ok {
			return true
		}
	}
	return false
}
