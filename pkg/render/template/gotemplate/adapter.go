package gotemplate

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/flosch/pongo2/v6"
	gotemplatepkg "github.com/goliatone/go-template"

	"github.com/goliatone/go-buildergen/pkg/render/template"
)

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	templates fs.FS
}

// WithFS loads templates from an fs.FS, typically an embed.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// Engine renders Go source templates through a go-template engine with the
// gocomment filter installed. Templates turn HTML escaping off themselves.
type Engine struct {
	*gotemplatepkg.Engine
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New constructs an Engine over the configured template files.
func New(options ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.templates == nil {
		return nil, errors.New("gotemplate: templates fs.FS required")
	}

	engine, err := gotemplatepkg.NewRenderer(
		gotemplatepkg.WithFS(cfg.templates),
		gotemplatepkg.WithTemplateFunc(map[string]any{
			"gocomment": filterGoComment,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: %w", err)
	}
	return &Engine{Engine: engine}, nil
}

// filterGoComment renders text as a block of // line comments, indented by
// the optional tab count parameter.
func filterGoComment(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	text := strings.TrimSpace(in.String())
	if text == "" {
		return pongo2.AsValue(""), nil
	}
	indent := ""
	if param != nil && param.IsInteger() {
		indent = strings.Repeat("\t", param.Integer())
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			lines[i] = indent + "//"
			continue
		}
		lines[i] = indent + "// " + line
	}
	return pongo2.AsValue(strings.Join(lines, "\n") + "\n"), nil
}
