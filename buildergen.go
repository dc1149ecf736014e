// Package buildergen generates fluent, type-state checked builders for record
// declarations. The root package re-exports the common entry points; the
// pipeline itself lives in pkg/orchestrator.
package buildergen

import (
	"context"

	"github.com/goliatone/go-buildergen/internal/loader"
	"github.com/goliatone/go-buildergen/pkg/builder"
	"github.com/goliatone/go-buildergen/pkg/orchestrator"
	"github.com/goliatone/go-buildergen/pkg/schema"
)

// Request aliases orchestrator.Request for callers that only import the root
// package.
type Request = orchestrator.Request

// ErrFieldNotSet is reported by Build when a field was never assigned.
var ErrFieldNotSet = builder.ErrFieldNotSet

// ErrUnsupportedShape is reported for records that cannot get a builder.
var ErrUnsupportedShape = schema.ErrUnsupportedShape

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Generate loads source, detects its format and returns formatted builder
// source for every record it describes.
func Generate(ctx context.Context, source schema.Source, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{Source: source})
}

// GenerateFromDocument renders builders for a pre-loaded document, bypassing
// the loader stage.
func GenerateFromDocument(ctx context.Context, doc schema.Document, format string, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Document: &doc,
		Format:   format,
	})
}

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options ...schema.LoaderOption) schema.Loader {
	return loader.New(schema.NewLoaderOptions(options...))
}
