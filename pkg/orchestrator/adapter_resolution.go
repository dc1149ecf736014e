package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-buildergen/pkg/schema"
)

// resolve picks the adapter for req and returns the document it should
// normalize. An explicit format wins over detection; a payload claimed by
// several adapters is an error.
func (o *Orchestrator) resolve(ctx context.Context, req Request) (schema.RecordAdapter, schema.Document, error) {
	if o.adapterRegistry == nil {
		return nil, schema.Document{}, errors.New("orchestrator: adapter registry is nil")
	}

	if format := strings.TrimSpace(req.Format); format != "" {
		adapter, err := o.adapterRegistry.Get(format)
		if err != nil {
			return nil, schema.Document{}, err
		}
		if req.Document != nil {
			return adapter, *req.Document, nil
		}
		if req.Source == nil {
			return nil, schema.Document{}, errors.New("orchestrator: source or document is required")
		}
		doc, err := adapter.Load(ctx, req.Source)
		if err != nil {
			return nil, schema.Document{}, fmt.Errorf("orchestrator: load document: %w", err)
		}
		return adapter, doc, nil
	}

	doc, err := o.documentForDetection(ctx, req)
	if err != nil {
		return nil, schema.Document{}, err
	}

	matches := o.adapterRegistry.Detect(doc.Source(), doc.Raw())
	switch len(matches) {
	case 0:
		if o.defaultAdapter == "" {
			return nil, schema.Document{}, fmt.Errorf("orchestrator: unable to detect format of %s", doc.Location())
		}
		adapter, err := o.adapterRegistry.Get(o.defaultAdapter)
		return adapter, doc, err
	case 1:
		return matches[0], doc, nil
	default:
		return nil, schema.Document{}, fmt.Errorf("orchestrator: multiple adapters matched payload (%s), specify format", adapterNames(matches))
	}
}

func (o *Orchestrator) documentForDetection(ctx context.Context, req Request) (schema.Document, error) {
	switch {
	case req.Document != nil:
		return *req.Document, nil
	case req.Source != nil:
		if o.loader == nil {
			return schema.Document{}, errors.New("orchestrator: loader is nil")
		}
		doc, err := o.loader.Load(ctx, req.Source)
		if err != nil {
			return schema.Document{}, fmt.Errorf("orchestrator: load document for detection: %w", err)
		}
		return doc, nil
	default:
		return schema.Document{}, errors.New("orchestrator: source or document is required")
	}
}

func adapterNames(adapters []schema.RecordAdapter) string {
	names := make([]string, 0, len(adapters))
	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		if name := strings.TrimSpace(adapter.Name()); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}
