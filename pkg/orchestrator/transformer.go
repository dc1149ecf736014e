package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-buildergen/pkg/schema"
)

// Transformer mutates normalized records before synthesis. Implementations
// can rename records or fields, override field types, or rewrite docs.
type Transformer interface {
	Transform(ctx context.Context, set *schema.RecordSet) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, set *schema.RecordSet) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, set *schema.RecordSet) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, set)
}

// PresetTransformer applies declarative overrides read from a YAML or JSON
// document:
//
//	records:
//	  Command:
//	    doc: Command launches a process.
//	    fields:
//	      current_dir: {rename: dir, doc: Working directory.}
//	      env: {type: "map[string]string"}
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Records map[string]recordPatch `yaml:"records"`
}

type recordPatch struct {
	Rename string                `yaml:"rename"`
	Doc    string                `yaml:"doc"`
	Fields map[string]fieldPatch `yaml:"fields"`
}

type fieldPatch struct {
	Rename string `yaml:"rename"`
	Type   string `yaml:"type"`
	Doc    string `yaml:"doc"`
}

// NewPresetTransformer constructs a transformer from raw YAML or JSON bytes.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from the provided
// filesystem path.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the patches. Patches naming records that are not in the
// set are ignored so one preset can serve several selections; patches naming
// unknown fields of a present record are errors.
func (t *PresetTransformer) Transform(ctx context.Context, set *schema.RecordSet) error {
	if set == nil {
		return errors.New("preset transformer: record set is nil")
	}
	for idx := range set.Records {
		if err := ctx.Err(); err != nil {
			return err
		}
		record := &set.Records[idx]
		patch, ok := t.document.Records[record.Name]
		if !ok {
			continue
		}
		if err := applyRecordPatch(record, patch); err != nil {
			return err
		}
	}
	return nil
}

func applyRecordPatch(record *schema.Record, patch recordPatch) error {
	for name, fp := range patch.Fields {
		field := findField(record.Fields, name)
		if field == nil {
			return fmt.Errorf("preset transformer: record %q has no field %q", record.Name, name)
		}
		if typ := strings.TrimSpace(fp.Type); typ != "" {
			field.Type = schema.TypeRef{Expr: typ}
		}
		if fp.Doc != "" {
			field.Doc = strings.TrimSpace(fp.Doc)
		}
		if rename := strings.TrimSpace(fp.Rename); rename != "" {
			field.Name = rename
		}
	}
	if patch.Doc != "" {
		record.Doc = strings.TrimSpace(patch.Doc)
	}
	if rename := strings.TrimSpace(patch.Rename); rename != "" {
		record.Name = rename
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("preset transformer: %w", err)
	}
	return nil
}

func findField(fields []schema.Field, name string) *schema.Field {
	for idx := range fields {
		if fields[idx].Name == name {
			return &fields[idx]
		}
	}
	return nil
}
