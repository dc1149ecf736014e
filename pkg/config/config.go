// Package config reads .buildergen.yaml project files. Command line flags
// are merged on top with Config.Merge.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFilename is looked up in the working directory when no explicit
// config path is given.
const DefaultFilename = ".buildergen.yaml"

// Config holds generation settings.
type Config struct {
	Source          string        `yaml:"source"`
	Format          string        `yaml:"format"`
	Types           []string      `yaml:"types"`
	Output          string        `yaml:"output"`
	Package         string        `yaml:"package"`
	Suffix          string        `yaml:"suffix"`
	Preset          string        `yaml:"preset"`
	SkipUnsupported bool          `yaml:"skip_unsupported"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`
}

// Parse decodes a config document.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// Load reads the config at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, errors.Unwrap(err))
	}
	return cfg, nil
}

// LoadFS reads the config at path inside fsys.
func LoadFS(fsys fs.FS, path string) (Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadOptional behaves like Load but returns an empty Config when the file
// does not exist.
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	return cfg, err
}

// Merge returns c with every non-zero field of override applied on top.
func (c Config) Merge(override Config) Config {
	out := c
	if override.Source != "" {
		out.Source = override.Source
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if len(override.Types) > 0 {
		out.Types = append([]string(nil), override.Types...)
	}
	if override.Output != "" {
		out.Output = override.Output
	}
	if override.Package != "" {
		out.Package = override.Package
	}
	if override.Suffix != "" {
		out.Suffix = override.Suffix
	}
	if override.Preset != "" {
		out.Preset = override.Preset
	}
	if override.SkipUnsupported {
		out.SkipUnsupported = true
	}
	if override.HTTPTimeout > 0 {
		out.HTTPTimeout = override.HTTPTimeout
	}
	return out
}

// Validate checks the settings required to run generation.
func (c Config) Validate() error {
	if c.Source == "" {
		return errors.New("config: source is required")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("config: http_timeout must not be negative, got %s", c.HTTPTimeout)
	}
	return nil
}

func (c *Config) normalize() {
	c.Source = strings.TrimSpace(c.Source)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.Output = strings.TrimSpace(c.Output)
	c.Package = strings.TrimSpace(c.Package)
	c.Suffix = strings.TrimSpace(c.Suffix)
	c.Preset = strings.TrimSpace(c.Preset)
	types := c.Types[:0]
	for _, name := range c.Types {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			types = append(types, trimmed)
		}
	}
	c.Types = types
}
