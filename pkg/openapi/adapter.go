// Package openapi reads record descriptions from the component schemas of an
// OpenAPI 3 document. Object schemas become struct records whose fields keep
// the property order of the document; enum, oneOf/anyOf and array schemas are
// described with their own shapes so synthesis can reject them.
package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-buildergen/internal/openapi/parser"
	"github.com/goliatone/go-buildergen/pkg/schema"
)

const DefaultAdapterName = "openapi"

// Option customises the adapter.
type Option func(*Adapter)

// WithExternalRefs allows $ref targets outside the document to be resolved.
func WithExternalRefs(enabled bool) Option {
	return func(a *Adapter) {
		a.externalRefs = enabled
	}
}

// Adapter wraps the kin-openapi backed parser behind the record adapter
// interface.
type Adapter struct {
	loader       schema.Loader
	externalRefs bool
}

var _ schema.RecordAdapter = (*Adapter)(nil)

// NewAdapter constructs an OpenAPI adapter with the supplied loader.
func NewAdapter(loader schema.Loader, opts ...Option) *Adapter {
	a := &Adapter{loader: loader}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Name returns the adapter registry identifier.
func (a *Adapter) Name() string {
	return DefaultAdapterName
}

// Detect reports whether the raw payload appears to be OpenAPI.
func (a *Adapter) Detect(_ schema.Source, raw []byte) bool {
	return detectOpenAPI(raw)
}

// Load fetches the raw OpenAPI document.
func (a *Adapter) Load(ctx context.Context, src schema.Source) (schema.Document, error) {
	if a == nil || a.loader == nil {
		return schema.Document{}, errors.New("openapi adapter: loader is nil")
	}
	return a.loader.Load(ctx, src)
}

// Normalize converts components.schemas into records.
func (a *Adapter) Normalize(ctx context.Context, doc schema.Document, opts schema.NormalizeOptions) (schema.RecordSet, error) {
	p := parser.New(parser.Options{ResolveReferences: a.externalRefs})
	records, err := p.Records(ctx, doc.Raw(), doc.Location())
	if err != nil {
		return schema.RecordSet{}, fmt.Errorf("openapi adapter: %w", err)
	}

	pkg := opts.Package
	if pkg == "" {
		pkg = "api"
	}
	set := schema.RecordSet{Records: records}
	for i := range set.Records {
		set.Records[i].Package = pkg
	}
	return set.Select(opts.Types...)
}

func detectOpenAPI(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	if trimmed[0] == '{' {
		var payload map[string]any
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			if _, ok := payload["openapi"]; ok {
				return true
			}
			if _, ok := payload["swagger"]; ok {
				return true
			}
		}
	}
	lower := strings.ToLower(string(trimmed))
	return strings.Contains(lower, "openapi:") || strings.Contains(lower, "swagger:")
}
