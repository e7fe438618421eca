package darkroom

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the file form of EditorOptions. It decodes from YAML or TOML
// with the same keys.
type Config struct {
	Backend      string          `yaml:"backend" toml:"backend"`
	LogLevel     string          `yaml:"logLevel" toml:"logLevel"`
	MaxBatchSize int             `yaml:"maxBatchSize" toml:"maxBatchSize"`
	HistoryLimit int             `yaml:"historyLimit" toml:"historyLimit"`
	Export       ExportConfig    `yaml:"export" toml:"export"`
	Zoom         ZoomConfig      `yaml:"zoom" toml:"zoom"`
	Features     map[string]bool `yaml:"features" toml:"features"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	RenderType string  `yaml:"renderType" toml:"renderType"`
	Format     string  `yaml:"format" toml:"format"`
	Quality    float64 `yaml:"quality" toml:"quality"`
}

// ZoomConfig holds the initial zoom and its animation settings.
type ZoomConfig struct {
	Initial  float64 `yaml:"initial" toml:"initial"`
	Duration float64 `yaml:"duration" toml:"duration"`
	Min      float64 `yaml:"min" toml:"min"`
	Max      float64 `yaml:"max" toml:"max"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	def := DefaultExportOptions()
	return Config{
		Backend:      BackendWebGL.String(),
		LogLevel:     LogLevelWarn.String(),
		MaxBatchSize: DefaultMaxBatchSize,
		HistoryLimit: 100,
		Export: ExportConfig{
			RenderType: string(def.RenderType),
			Format:     string(def.Format),
			Quality:    def.Quality,
		},
		Zoom: ZoomConfig{Initial: 1, Duration: 0.25, Min: 0.05, Max: 16},
	}
}

// LoadConfig reads path and decodes it by extension: .toml is TOML,
// anything else YAML. Missing keys keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("darkroom: load config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data, formatOf(path))
	if err != nil {
		return Config{}, fmt.Errorf("darkroom: load config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes data as "yaml" or "toml" on top of DefaultConfig and
// validates the result.
func ParseConfig(data []byte, format string) (Config, error) {
	cfg := DefaultConfig()
	if err := unmarshal(data, format, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the enumerated fields.
func (c Config) Validate() error {
	switch strings.ToLower(c.Backend) {
	case "webgl", "canvas":
	default:
		return &ValidationError{Field: "backend", Value: c.Backend, Allowed: []string{"webgl", "canvas"}}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error", "silent":
	default:
		return &ValidationError{Field: "logLevel", Value: c.LogLevel, Allowed: []string{"debug", "info", "warn", "error", "silent"}}
	}
	return c.ExportOptions().Validate()
}

// ExportOptions returns the export defaults.
func (c Config) ExportOptions() ExportOptions {
	return ExportOptions{
		RenderType: RenderType(c.Export.RenderType),
		Format:     ImageFormat(strings.ToLower(c.Export.Format)),
		Quality:    c.Export.Quality,
	}
}

// Logger builds a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	return NewLogger(w, ParseLogLevel(c.LogLevel))
}

// EditorOptions converts c. log may be nil.
func (c Config) EditorOptions(log *slog.Logger) EditorOptions {
	return EditorOptions{
		Backend:      ParseBackendKind(c.Backend),
		MaxBatchSize: c.MaxBatchSize,
		Logger:       log,
		Features:     c.Features,
		Zoom:         c.Zoom.Initial,
		ZoomMin:      c.Zoom.Min,
		ZoomMax:      c.Zoom.Max,
		ZoomDuration: float32(c.Zoom.Duration),
		HistoryLimit: c.HistoryLimit,
		Export:       c.ExportOptions(),
	}
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

func unmarshal(data []byte, format string, v any) error {
	switch strings.ToLower(format) {
	case "toml":
		if err := toml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("darkroom: decode toml: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("darkroom: decode yaml: %w", err)
		}
	default:
		return &ValidationError{Field: "config format", Value: format, Allowed: []string{"yaml", "toml"}}
	}
	return nil
}

// Recipe is an ordered list of operations to build on an editor.
//
//	operations:
//	  - identifier: crop
//	    options: {start: [0.1, 0.1], end: [0.9, 0.9]}
//	  - identifier: filters
//	    options: {filter: sepia}
type Recipe struct {
	Operations []RecipeStep `yaml:"operations" toml:"operations"`
	// BaseDir resolves relative texture paths. LoadRecipe sets it to the
	// recipe's directory.
	BaseDir string `yaml:"-" toml:"-"`
}

// RecipeStep is one operation of a recipe.
type RecipeStep struct {
	Identifier string         `yaml:"identifier" toml:"identifier"`
	Enabled    *bool          `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Options    map[string]any `yaml:"options" toml:"options"`
}

// LoadRecipe reads a YAML or TOML recipe, chosen by extension.
func LoadRecipe(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("darkroom: load recipe %s: %w", path, err)
	}
	r, err := ParseRecipe(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("darkroom: load recipe %s: %w", path, err)
	}
	r.BaseDir = filepath.Dir(path)
	return r, nil
}

// ParseRecipe decodes a recipe as "yaml" or "toml".
func ParseRecipe(data []byte, format string) (*Recipe, error) {
	var r Recipe
	if err := unmarshal(data, format, &r); err != nil {
		return nil, err
	}
	for i, st := range r.Operations {
		if st.Identifier == "" {
			return nil, fmt.Errorf("darkroom: recipe step %d: missing identifier", i)
		}
	}
	return &r, nil
}

// Apply creates every step on e in order and returns the new operations.
// The first failure stops the recipe.
func (r *Recipe) Apply(e *Editor) ([]Operation, error) {
	ops := make([]Operation, 0, len(r.Operations))
	for i, st := range r.Operations {
		options := st.Options
		if r.BaseDir != "" {
			options, _ = resolvePaths(options, r.BaseDir).(map[string]any)
		}
		op, err := e.CreateOperation(st.Identifier, options)
		if err != nil {
			return ops, fmt.Errorf("darkroom: recipe step %d: %w", i, err)
		}
		if st.Enabled != nil && !*st.Enabled {
			op.SetEnabled(false)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// resolvePaths rewrites relative "texture" strings, at any depth, against
// dir.
func resolvePaths(v any, dir string) any {
	switch v := v.(type) {
	case map[string]any:
		if v == nil {
			return v
		}
		out := make(map[string]any, len(v))
		for k, x := range v {
			if s, ok := x.(string); ok && k == "texture" && s != "" && !filepath.IsAbs(s) {
				out[k] = filepath.Join(dir, s)
				continue
			}
			out[k] = resolvePaths(x, dir)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = resolvePaths(x, dir)
		}
		return out
	default:
		return v
	}
}
