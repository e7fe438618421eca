package darkroom

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const yamlConfig = `
backend: canvas
logLevel: debug
historyLimit: 20
export:
  format: jpeg
  quality: 0.9
zoom:
  initial: 2
features:
  border: false
`

const tomlConfig = `
backend = "canvas"
logLevel = "debug"
historyLimit = 20

[export]
format = "jpeg"
quality = 0.9

[zoom]
initial = 2.0

[features]
border = false
`

func TestParseConfigFormatsAgree(t *testing.T) {
	y, err := ParseConfig([]byte(yamlConfig), "yaml")
	if err != nil {
		t.Fatal(err)
	}
	tm, err := ParseConfig([]byte(tomlConfig), "toml")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(y, tm) {
		t.Errorf("yaml and toml differ:\n%+v\n%+v", y, tm)
	}
}

func TestParseConfigKeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(yamlConfig), "yaml")
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultConfig()
	if cfg.Export.RenderType != def.Export.RenderType {
		t.Errorf("renderType = %q, want default %q", cfg.Export.RenderType, def.Export.RenderType)
	}
	if cfg.Zoom.Duration != def.Zoom.Duration || cfg.Zoom.Max != def.Zoom.Max {
		t.Errorf("zoom = %+v, want default duration and max", cfg.Zoom)
	}
	if cfg.MaxBatchSize != DefaultMaxBatchSize {
		t.Errorf("maxBatchSize = %d, want %d", cfg.MaxBatchSize, DefaultMaxBatchSize)
	}
	if cfg.Zoom.Initial != 2 || cfg.HistoryLimit != 20 {
		t.Errorf("overrides lost: %+v", cfg)
	}
}

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"backend", "backend: metal", "backend"},
		{"log level", "logLevel: loud", "logLevel"},
		{"render type", "export: {renderType: svg}", "renderType"},
		{"format", "export: {format: gif}", "imageFormat"},
		{"quality", "export: {quality: 2}", "quality"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml), "yaml")
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("err = %v, want %s validation error", err, tt.field)
			}
		})
	}
}

func TestParseConfigBadInput(t *testing.T) {
	if _, err := ParseConfig([]byte("backend: [unclosed"), "yaml"); err == nil {
		t.Error("malformed yaml should fail")
	}
	if _, err := ParseConfig([]byte("backend = "), "toml"); err == nil {
		t.Error("malformed toml should fail")
	}
	_, err := ParseConfig(nil, "ini")
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "config format" {
		t.Errorf("unknown format = %v, want config format validation error", err)
	}
}

func TestLoadConfigByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "editor.toml")
	if err := os.WriteFile(path, []byte(tomlConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "canvas" {
		t.Errorf("backend = %q, want canvas", cfg.Backend)
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file = %v, want ErrNotExist", err)
	}
}

func TestConfigEditorOptions(t *testing.T) {
	cfg, err := ParseConfig([]byte(yamlConfig), "yaml")
	if err != nil {
		t.Fatal(err)
	}
	opts := cfg.EditorOptions(nil)
	if opts.Backend != BackendCanvas {
		t.Errorf("backend = %v, want canvas", opts.Backend)
	}
	if opts.Zoom != 2 || opts.ZoomDuration != 0.25 || opts.HistoryLimit != 20 {
		t.Errorf("options = %+v", opts)
	}
	if opts.Export.Format != FormatJPEG || opts.Export.Quality != 0.9 {
		t.Errorf("export = %+v, want jpeg 0.9", opts.Export)
	}
	if on, ok := opts.Features["border"]; !ok || on {
		t.Errorf("features = %v, want border disabled", opts.Features)
	}
}

func TestConfigLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.LogLevel = "info"
	log := cfg.Logger(&buf)
	log.Debug("hidden")
	log.Info("shown", "key", "value")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("log output = %q", out)
	}
}

// --- Recipes ---

const yamlRecipe = `
operations:
  - identifier: crop
    options: {start: [0.25, 0.25], end: [0.75, 0.75]}
  - identifier: orientation
    options: {rotation: 90}
  - identifier: filters
    enabled: false
    options: {filter: sepia}
`

const tomlRecipe = `
[[operations]]
identifier = "crop"
options = { start = [0.25, 0.25], end = [0.75, 0.75] }

[[operations]]
identifier = "orientation"
options = { rotation = 90 }

[[operations]]
identifier = "filters"
enabled = false
options = { filter = "sepia" }
`

func TestRecipeApply(t *testing.T) {
	for _, format := range []string{"yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			data := yamlRecipe
			if format == "toml" {
				data = tomlRecipe
			}
			r, err := ParseRecipe([]byte(data), format)
			if err != nil {
				t.Fatal(err)
			}
			e := newTestEditor(t, solidImage(40, 20, opaqueRed))
			ops, err := r.Apply(e)
			if err != nil {
				t.Fatal(err)
			}
			if len(ops) != 3 || len(e.Operations()) != 3 {
				t.Fatalf("created %d operations, stack has %d", len(ops), len(e.Operations()))
			}
			for i, id := range []string{"crop", "orientation", "filters"} {
				if e.Stack().At(i).Identifier() != id {
					t.Errorf("slot %d = %s, want %s", i, e.Stack().At(i).Identifier(), id)
				}
			}
			if ops[2].Enabled() {
				t.Error("filters step should be disabled")
			}
			if got := ops[1].Options().Number("rotation"); got != 90 {
				t.Errorf("rotation = %v, want 90", got)
			}
			res := mustExport(t, e)
			if res.Width != 10 || res.Height != 20 {
				t.Errorf("export = %dx%d, want 10x20", res.Width, res.Height)
			}
		})
	}
}

func TestRecipeApplyStopsAtFirstFailure(t *testing.T) {
	r := &Recipe{Operations: []RecipeStep{
		{Identifier: "border"},
		{Identifier: "lasers"},
		{Identifier: "crop"},
	}}
	e := newTestEditor(t, solidImage(4, 4, opaqueRed))
	ops, err := r.Apply(e)
	var unknown *UnknownOperationError
	if !errors.As(err, &unknown) || unknown.Identifier != "lasers" {
		t.Fatalf("err = %v, want unknown lasers", err)
	}
	if !strings.Contains(err.Error(), "step 1") {
		t.Errorf("error %q should name the step", err)
	}
	if len(ops) != 1 || len(e.Operations()) != 1 {
		t.Errorf("operations = %d, stack %d, want 1 each", len(ops), len(e.Operations()))
	}
}

func TestParseRecipeMissingIdentifier(t *testing.T) {
	_, err := ParseRecipe([]byte("operations:\n  - options: {}\n"), "yaml")
	if err == nil || !strings.Contains(err.Error(), "missing identifier") {
		t.Errorf("err = %v, want missing identifier", err)
	}
}

func TestLoadRecipeSetsBaseDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edit.yaml")
	if err := os.WriteFile(path, []byte(yamlRecipe), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := LoadRecipe(path)
	if err != nil {
		t.Fatal(err)
	}
	if r.BaseDir != dir || len(r.Operations) != 3 {
		t.Errorf("recipe = %+v, want 3 steps in %s", r, dir)
	}
}

func TestResolvePaths(t *testing.T) {
	abs, err := filepath.Abs("logo.png")
	if err != nil {
		t.Fatal(err)
	}
	in := map[string]any{
		"texture": "mark.png",
		"text":    "mark.png",
		"sprites": []any{
			map[string]any{"type": "sticker", "texture": "stickers/star.png"},
			map[string]any{"type": "sticker", "texture": abs},
		},
	}
	got := resolvePaths(in, "/recipes").(map[string]any)
	if got["texture"] != filepath.Join("/recipes", "mark.png") {
		t.Errorf("texture = %v", got["texture"])
	}
	if got["text"] != "mark.png" {
		t.Errorf("non-texture keys must not change, got %v", got["text"])
	}
	sprites := got["sprites"].([]any)
	if p := sprites[0].(map[string]any)["texture"]; p != filepath.Join("/recipes", "stickers/star.png") {
		t.Errorf("nested texture = %v", p)
	}
	if p := sprites[1].(map[string]any)["texture"]; p != abs {
		t.Errorf("absolute texture = %v, want unchanged", p)
	}
	if in["texture"] != "mark.png" {
		t.Error("resolvePaths must not modify its input")
	}
}
