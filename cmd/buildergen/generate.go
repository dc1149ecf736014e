package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-buildergen/internal/prompt"
	"github.com/goliatone/go-buildergen/pkg/config"
	"github.com/goliatone/go-buildergen/pkg/orchestrator"
	"github.com/goliatone/go-buildergen/pkg/schema"
)

type generateFlags struct {
	configPath  string
	preset      string
	interactive bool
	overrides   config.Config
}

func newGenerateCmd(a *app) *cobra.Command {
	flags := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "generate [source]",
		Short: "Generate builder source for the records of a description",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				flags.overrides.Source = args[0]
			}
			return runGenerate(cmd, a, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.overrides.Source, "source", "s", "", "description file path or URL")
	f.StringVarP(&flags.overrides.Format, "format", "f", "", "adapter name: go, yaml, openapi or jsonschema (detected when empty)")
	f.StringSliceVarP(&flags.overrides.Types, "type", "t", nil, "record names to generate (repeatable)")
	f.StringVarP(&flags.overrides.Output, "output", "o", "", "output file (stdout if empty)")
	f.StringVarP(&flags.overrides.Package, "package", "p", "", "package clause of the generated file")
	f.StringVar(&flags.overrides.Suffix, "suffix", "", "builder type suffix (default \"Builder\")")
	f.StringVar(&flags.preset, "preset", "", "YAML or JSON preset renaming or retyping fields")
	f.BoolVar(&flags.overrides.SkipUnsupported, "skip-unsupported", false, "skip records that cannot get a builder instead of failing")
	f.DurationVar(&flags.overrides.HTTPTimeout, "http-timeout", 0, "timeout for URL sources")
	f.StringVarP(&flags.configPath, "config", "c", "", "config file (default "+config.DefaultFilename+" when present)")
	f.BoolVarP(&flags.interactive, "interactive", "i", false, "choose records and confirm overwrites interactively")
	return cmd
}

func loadConfig(flags *generateFlags) (config.Config, error) {
	var (
		base config.Config
		err  error
	)
	if flags.configPath != "" {
		base, err = config.Load(flags.configPath)
	} else {
		base, err = config.LoadOptional(config.DefaultFilename)
	}
	if err != nil {
		return config.Config{}, err
	}
	overrides := flags.overrides
	overrides.Preset = flags.preset
	cfg := base.Merge(overrides)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newOrchestrator(a *app, cfg config.Config) (*orchestrator.Orchestrator, error) {
	opts := append([]orchestrator.Option(nil), a.options...)
	if cfg.HTTPTimeout > 0 || strings.HasPrefix(cfg.Source, "http") {
		opts = append(opts, orchestrator.WithLoaderOptions(schema.WithHTTPFallback(cfg.HTTPTimeout)))
	}
	if cfg.Preset != "" {
		raw, err := os.ReadFile(cfg.Preset)
		if err != nil {
			return nil, fmt.Errorf("read preset: %w", err)
		}
		transformer, err := orchestrator.NewPresetTransformer(raw)
		if err != nil {
			return nil, err
		}
		opts = append(opts, orchestrator.WithSchemaTransformer(transformer))
	}
	return orchestrator.New(opts...), nil
}

func requestFor(cfg config.Config) (orchestrator.Request, error) {
	src, ok := parseSource(cfg.Source)
	if !ok {
		return orchestrator.Request{}, fmt.Errorf("invalid source: %q", cfg.Source)
	}
	return orchestrator.Request{
		Source:          src,
		Format:          cfg.Format,
		Types:           cfg.Types,
		Package:         cfg.Package,
		Suffix:          cfg.Suffix,
		Header:          "Source: " + cfg.Source,
		SkipUnsupported: cfg.SkipUnsupported,
	}, nil
}

func runGenerate(cmd *cobra.Command, a *app, flags *generateFlags) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	gen, err := newOrchestrator(a, cfg)
	if err != nil {
		return err
	}
	req, err := requestFor(cfg)
	if err != nil {
		return err
	}

	if flags.interactive {
		types, err := chooseRecords(cmd, a, gen, req)
		if err != nil {
			return err
		}
		req.Types = types
	}

	out, err := gen.Generate(ctx, req)
	if err != nil {
		return err
	}

	if cfg.Output == "" {
		_, err := cmd.OutOrStdout().Write(out)
		return err
	}

	if flags.interactive {
		if _, statErr := os.Stat(cfg.Output); statErr == nil {
			ok, err := a.prompts.Confirm(ctx, prompt.ConfirmConfig{
				Message: fmt.Sprintf("Overwrite %s?", cfg.Output),
				Default: true,
			})
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "left %s unchanged\n", cfg.Output)
				return nil
			}
		}
	}

	if err := os.WriteFile(cfg.Output, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "builders written to %s\n", cfg.Output)
	return nil
}

// chooseRecords lists every described record and asks which ones to
// generate. Records that can get a builder are preselected.
func chooseRecords(cmd *cobra.Command, a *app, gen *orchestrator.Orchestrator, req orchestrator.Request) ([]string, error) {
	listing := req
	listing.Types = nil
	set, err := gen.Records(cmd.Context(), listing)
	if err != nil {
		return nil, err
	}

	options := make([]string, 0, len(set.Records))
	var defaults []int
	wanted := make(map[string]bool, len(req.Types))
	for _, name := range req.Types {
		wanted[name] = true
	}
	for idx, record := range set.Records {
		options = append(options, fmt.Sprintf("%s (%s)", record.Name, record.Shape))
		supported := schema.CheckShape(record) == nil
		if (len(wanted) == 0 && supported) || wanted[record.Name] {
			defaults = append(defaults, idx)
		}
	}

	picked, err := a.prompts.MultiSelect(cmd.Context(), prompt.SelectConfig{
		Message:  "Records to generate builders for",
		Options:  options,
		Defaults: defaults,
	})
	if err != nil {
		return nil, err
	}
	if len(picked) == 0 {
		return nil, errors.New("no records selected")
	}
	types := make([]string, 0, len(picked))
	for _, idx := range picked {
		types = append(types, set.Records[idx].Name)
	}
	return types, nil
}
