package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-buildergen/internal/loader"
	"github.com/goliatone/go-buildergen/pkg/builder"
	"github.com/goliatone/go-buildergen/pkg/codegen"
	"github.com/goliatone/go-buildergen/pkg/gosource"
	"github.com/goliatone/go-buildergen/pkg/jsonschema"
	"github.com/goliatone/go-buildergen/pkg/openapi"
	"github.com/goliatone/go-buildergen/pkg/schema"
	"github.com/goliatone/go-buildergen/pkg/yamlschema"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom document loader. Built-in adapters share it.
func WithLoader(l schema.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = l
	}
}

// WithLoaderOptions configures the default loader. Ignored when WithLoader
// is supplied.
func WithLoaderOptions(options ...schema.LoaderOption) Option {
	return func(o *Orchestrator) {
		o.loaderOptions = append(o.loaderOptions, options...)
	}
}

// WithAdapterRegistry replaces the adapter registry. The built-in adapters are
// only registered into the default registry.
func WithAdapterRegistry(registry *AdapterRegistry) Option {
	return func(o *Orchestrator) {
		o.adapterRegistry = registry
	}
}

// WithAdapters registers extra adapters alongside the built-in ones.
func WithAdapters(adapters ...schema.RecordAdapter) Option {
	return func(o *Orchestrator) {
		o.extraAdapters = append(o.extraAdapters, adapters...)
	}
}

// WithDefaultAdapter names the adapter used when detection finds no match.
func WithDefaultAdapter(name string) Option {
	return func(o *Orchestrator) {
		o.defaultAdapter = name
	}
}

// WithGeneratorOptions appends code generator options applied to every
// request.
func WithGeneratorOptions(options ...codegen.Option) Option {
	return func(o *Orchestrator) {
		o.generatorOptions = append(o.generatorOptions, options...)
	}
}

// WithSchemaTransformer registers a Transformer that runs on normalized
// records before synthesis.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// Orchestrator coordinates the pipeline from a description document to
// generated builder source. Missing dependencies default to the built-in
// loader and the go, yaml, openapi and jsonschema adapters.
type Orchestrator struct {
	loader           schema.Loader
	loaderOptions    []schema.LoaderOption
	adapterRegistry  *AdapterRegistry
	extraAdapters    []schema.RecordAdapter
	defaultAdapter   string
	generatorOptions []codegen.Option
	transformer      Transformer
	initialiseErr    error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one generation run.
type Request struct {
	// Source identifies where the description lives. Optional when Document
	// is supplied.
	Source schema.Source

	// Document bypasses the loader when the payload is already in memory.
	Document *schema.Document

	// Format names the adapter ("go", "yaml", "openapi", "jsonschema"). Empty means detect.
	Format string

	// Types restricts generation to the named records.
	Types []string

	// Package overrides the package clause of the generated file.
	Package string

	// Suffix overrides the builder type suffix.
	Suffix string

	// Header is rendered as a comment below the generated-code notice.
	Header string

	// SkipUnsupported drops records whose shape cannot get a builder instead
	// of failing. Only honoured when Types is empty.
	SkipUnsupported bool
}

// Records loads and normalizes the description, then applies the configured
// transformer.
func (o *Orchestrator) Records(ctx context.Context, req Request) (schema.RecordSet, error) {
	set, _, err := o.records(ctx, req)
	return set, err
}

func (o *Orchestrator) records(ctx context.Context, req Request) (schema.RecordSet, schema.RecordAdapter, error) {
	if ctx == nil {
		return schema.RecordSet{}, nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return schema.RecordSet{}, nil, err
	}
	if err := o.initialiseErr; err != nil {
		return schema.RecordSet{}, nil, err
	}

	adapter, doc, err := o.resolve(ctx, req)
	if err != nil {
		return schema.RecordSet{}, nil, err
	}

	set, err := adapter.Normalize(ctx, doc, schema.NormalizeOptions{
		Package: req.Package,
		Types:   req.Types,
	})
	if err != nil {
		return schema.RecordSet{}, nil, fmt.Errorf("orchestrator: normalize %s: %w", adapter.Name(), err)
	}
	if len(set.Records) == 0 {
		return schema.RecordSet{}, nil, fmt.Errorf("orchestrator: %s describes no records", doc.Location())
	}

	if o.transformer != nil {
		if err := o.transformer.Transform(ctx, &set); err != nil {
			return schema.RecordSet{}, nil, fmt.Errorf("orchestrator: transform records: %w", err)
		}
	}
	return set, adapter, nil
}

// Synthesize returns the runtime builder artifacts for every record. Records
// with unsupported shapes fail unless SkipUnsupported applies.
func (o *Orchestrator) Synthesize(ctx context.Context, req Request) ([]*builder.Synthesis, error) {
	set, _, err := o.records(ctx, req)
	if err != nil {
		return nil, err
	}
	set = filterSupported(set, req)

	var opts []builder.Option
	if req.Suffix != "" {
		opts = append(opts, builder.WithSuffix(req.Suffix))
	}
	out := make([]*builder.Synthesis, 0, len(set.Records))
	for _, record := range set.Records {
		syn, err := builder.Synthesize(record, opts...)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: %w", err)
		}
		out = append(out, syn)
	}
	return out, nil
}

// Generate executes the load → normalize → transform → generate sequence
// and returns formatted Go source.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	set, adapter, err := o.records(ctx, req)
	if err != nil {
		return nil, err
	}
	set = filterSupported(set, req)
	if len(set.Records) == 0 {
		return nil, errors.New("orchestrator: no record can get a builder")
	}

	opts := append([]codegen.Option(nil), o.generatorOptions...)
	opts = append(opts,
		codegen.WithDeclareTypes(adapter.Name() != gosource.AdapterName),
		codegen.WithPackage(req.Package),
		codegen.WithSuffix(req.Suffix),
	)
	if req.Header != "" {
		opts = append(opts, codegen.WithHeader(req.Header))
	}

	gen, err := codegen.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	out, err := gen.Generate(ctx, set.Records...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return out, nil
}

func filterSupported(set schema.RecordSet, req Request) schema.RecordSet {
	if !req.SkipUnsupported || len(req.Types) > 0 {
		return set
	}
	var out schema.RecordSet
	for _, record := range set.Records {
		if schema.CheckShape(record) == nil {
			out.Records = append(out.Records, record)
		}
	}
	return out
}

func (o *Orchestrator) applyDefaults() {
	if o.loader == nil {
		o.loader = loader.New(schema.NewLoaderOptions(o.loaderOptions...))
	}
	if o.adapterRegistry == nil {
		o.adapterRegistry = NewAdapterRegistry()
		for _, adapter := range []schema.RecordAdapter{
			gosource.NewAdapter(o.loader),
			yamlschema.NewAdapter(o.loader),
			openapi.NewAdapter(o.loader),
			jsonschema.NewAdapter(o.loader),
		} {
			if err := o.adapterRegistry.Register(adapter); err != nil {
				o.initialiseErr = err
				return
			}
		}
	}
	for _, adapter := range o.extraAdapters {
		if err := o.adapterRegistry.Register(adapter); err != nil {
			o.initialiseErr = err
			return
		}
	}
}

// Adapters lists the registered adapter names.
func (o *Orchestrator) Adapters() []string {
	if o.adapterRegistry == nil {
		return nil
	}
	return o.adapterRegistry.List()
}
