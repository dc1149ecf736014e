package main

import (
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-buildergen/internal/prompt"
	"github.com/goliatone/go-buildergen/pkg/orchestrator"
	"github.com/goliatone/go-buildergen/pkg/schema"
)

// app carries the collaborators commands need so tests can swap them.
type app struct {
	out     io.Writer
	prompts prompt.Driver
	options []orchestrator.Option
}

func defaultApp() *app {
	return &app{
		out:     os.Stdout,
		prompts: prompt.Survey(),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "buildergen",
		Short: "Generate builder types for record declarations.",
		Long: `buildergen reads record declarations from Go source (types marked with ` +
			`//buildergen:builder), YAML manifests, OpenAPI component schemas or JSON ` +
			`Schema documents and ` +
			`generates a builder per record: a factory, one setter per field and a ` +
			`Build method that reports the first unset field.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(a.out)
	root.AddCommand(newGenerateCmd(a), newInspectCmd(a))
	return root
}

func parseSource(raw string) (schema.Source, bool) {
	path := strings.TrimSpace(raw)
	if path == "" {
		return nil, false
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		if _, err := url.ParseRequestURI(path); err != nil {
			return nil, false
		}
		return schema.SourceFromURL(path), true
	}
	return schema.SourceFromFile(path), true
}
