package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-buildergen/pkg/builder"
	"github.com/goliatone/go-buildergen/pkg/orchestrator"
	"github.com/goliatone/go-buildergen/pkg/schema"
)

func newInspectCmd(a *app) *cobra.Command {
	var req orchestrator.Request
	cmd := &cobra.Command{
		Use:   "inspect <source>",
		Short: "Print the builder declaration synthesized for each record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, ok := parseSource(args[0])
			if !ok {
				return fmt.Errorf("invalid source: %q", args[0])
			}
			req.Source = src
			return runInspect(cmd, a, req)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&req.Format, "format", "f", "", "adapter name: go, yaml, openapi or jsonschema (detected when empty)")
	f.StringSliceVarP(&req.Types, "type", "t", nil, "record names to inspect (repeatable)")
	f.StringVar(&req.Suffix, "suffix", "", "builder type suffix")
	return cmd
}

func runInspect(cmd *cobra.Command, a *app, req orchestrator.Request) error {
	gen := orchestrator.New(a.options...)
	set, err := gen.Records(cmd.Context(), req)
	if err != nil {
		return err
	}

	var opts []builder.Option
	if req.Suffix != "" {
		opts = append(opts, builder.WithSuffix(req.Suffix))
	}

	out := cmd.OutOrStdout()
	for _, record := range set.Records {
		syn, err := builder.Synthesize(record, opts...)
		if errors.Is(err, schema.ErrUnsupportedShape) {
			fmt.Fprintf(out, "%s (%s): no builder\n", record.Name, record.Shape)
			continue
		}
		if err != nil {
			return err
		}
		decl := syn.Declaration
		fmt.Fprintf(out, "%s builds %s (%d slots)\n", decl.Name, record.Name, decl.Len())
		for _, slot := range decl.Slots {
			fmt.Fprintf(out, "  %d %s %s\n", slot.Index, slot.Field.Name, slot.Field.Type)
		}
	}
	return nil
}
