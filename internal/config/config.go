// Package config loads the optional odfgen.yaml project file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"odf-codegen/internal/codegen"
	"odf-codegen/internal/schema"
)

// DefaultFile is the project file looked up in the working directory when no
// path is given.
const DefaultFile = "odfgen.yaml"

// MarkdownLanguage names the reference documentation output. It is accepted
// wherever a code generation language is.
const MarkdownLanguage = "markdown"

// Config is the content of odfgen.yaml.
type Config struct {
	LogLevel   string   `yaml:"log_level,omitempty" json:"log_level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	SchemasDir string   `yaml:"schemas_dir,omitempty" json:"schemas_dir,omitempty" jsonschema:"description=Schema directory relative to this file"`
	Layout     string   `yaml:"layout,omitempty" json:"layout,omitempty" jsonschema:"enum=kinds,enum=flat,enum=recursive"`
	Skip       []string `yaml:"skip,omitempty" json:"skip,omitempty" jsonschema:"description=Schema names no notation renders"`
	Roots      []string `yaml:"roots,omitempty" json:"roots,omitempty" jsonschema:"description=Entry points for the lint reachability check"`

	Docs      DocsConfig                `yaml:"docs,omitempty" json:"docs,omitempty"`
	Lint      LintConfig                `yaml:"lint,omitempty" json:"lint,omitempty"`
	Notations map[string]NotationConfig `yaml:"notations,omitempty" json:"notations,omitempty"`
	// Outputs maps a language name to the file it is generated into.
	Outputs map[string]string `yaml:"outputs,omitempty" json:"outputs,omitempty"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-" json:"-"`
	// Warnings collects non-fatal problems found while loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string `yaml:"-" json:"-"`
}

// DocsConfig configures the reference documentation.
type DocsConfig struct {
	SchemaBase      string `yaml:"schema_base,omitempty" json:"schema_base,omitempty"`
	FlatbuffersLink string `yaml:"flatbuffers_link,omitempty" json:"flatbuffers_link,omitempty"`
}

// LintConfig holds per-rule severity overrides.
type LintConfig struct {
	Rules map[string]string `yaml:"rules,omitempty" json:"rules,omitempty" jsonschema:"description=Rule ID to error/warning/off"`
}

// NotationConfig tunes a single language.
type NotationConfig struct {
	Package string `yaml:"package,omitempty" json:"package,omitempty"`
	Title   string `yaml:"title,omitempty" json:"title,omitempty"`
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
	// Overrides maps a schema name to a file whose content replaces the
	// generated declaration.
	Overrides map[string]string `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}

// Load reads the project file at path. An empty path looks for DefaultFile in
// the working directory and falls back to defaults when it does not exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by the caller
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Path = path
	cfg.Validate()
	return cfg, nil
}

// Parse decodes a project file. Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

// Validate records warnings for values no command understands.
func (c *Config) Validate() {
	if c.Layout != "" {
		if _, err := schema.ParseLayout(c.Layout); err != nil {
			c.Warnings = append(c.Warnings, err.Error())
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		c.Warnings = append(c.Warnings, fmt.Sprintf("unknown log_level %q, using info", c.LogLevel))
	}
	for _, name := range sortedKeys(c.Notations) {
		if !KnownLanguage(name) {
			c.Warnings = append(c.Warnings, fmt.Sprintf("notations: unknown language %q", name))
		}
	}
	for _, name := range sortedKeys(c.Outputs) {
		if !KnownLanguage(name) {
			c.Warnings = append(c.Warnings, fmt.Sprintf("outputs: unknown language %q", name))
		}
	}
	for _, id := range sortedKeys(c.Lint.Rules) {
		switch c.Lint.Rules[id] {
		case "error", "warning", "off":
		default:
			c.Warnings = append(c.Warnings, fmt.Sprintf("lint: rule %s has unknown severity %q", id, c.Lint.Rules[id]))
		}
	}
}

// KnownLanguage reports whether name is a generator or the markdown output.
func KnownLanguage(name string) bool {
	return name == MarkdownLanguage || slices.Contains(codegen.Languages(), name)
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	return ParseLevel(c.LogLevel)
}

// ParseLevel maps a level name to an slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Resolve makes p relative to the directory of the config file. Absolute
// paths and defaults-only configs return p unchanged.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.Path), p)
}

// LayoutOrDefault parses the configured layout.
func (c *Config) LayoutOrDefault() schema.Layout {
	l, err := schema.ParseLayout(c.Layout)
	if err != nil {
		return schema.LayoutKinds
	}
	return l
}

// Notation returns the settings for name, or zero settings.
func (c *Config) Notation(name string) NotationConfig {
	return c.Notations[name]
}

// ReadOverrides loads the override files of a notation, keyed by schema name.
func (c *Config) ReadOverrides(name string) (map[string]string, error) {
	files := c.Notations[name].Overrides
	if len(files) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(files))
	for _, schemaName := range sortedKeys(files) {
		p := c.Resolve(files[schemaName])
		data, err := os.ReadFile(p) //nolint:gosec // path comes from the project file
		if err != nil {
			return nil, fmt.Errorf("read override for %s: %w", schemaName, err)
		}
		out[schemaName] = strings.TrimRight(string(data), "\n")
	}
	return out, nil
}

// JSONSchema returns the JSON Schema describing odfgen.yaml.
func JSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		FieldNameTag:   "yaml",
	}
	s := r.Reflect(&Config{})
	s.Title = "odfgen project file"
	s.Description = "Configuration for the Open Data Fabric schema code generator."

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal config schema: %w", err)
	}
	return append(data, '\n'), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
