package darkroom

import (
	"errors"
	"math"
	"testing"
)

func testSchema() Schema {
	return Schema{
		NumberOption("amount", 0.5, 0, 1),
		StringOption("mode", "soft", "soft", "hard"),
		BoolOption("on", false),
		ColorOption("tint", ColorWhite),
		Vector2Option("point", Vector2{0.5, 0.5}),
		{Name: "items", Type: OptionArray, Default: []any{}, Schema: Schema{NumberOption("size", 1, 0, 10)}},
		{Name: "nested", Type: OptionConfigurable, Default: map[string]any{}, Schema: Schema{BoolOption("deep", true)}},
	}
}

func newTestConfigurable(t *testing.T, values map[string]any) *Configurable {
	t.Helper()
	c, err := NewConfigurable("test", testSchema(), values)
	if err != nil {
		t.Fatalf("NewConfigurable: %v", err)
	}
	return c
}

func TestConfigurableDefaults(t *testing.T) {
	c := newTestConfigurable(t, nil)
	if c.Number("amount") != 0.5 || c.Str("mode") != "soft" || c.Bool("on") {
		t.Errorf("defaults = %v %v %v", c.Number("amount"), c.Str("mode"), c.Bool("on"))
	}
	if c.Color("tint") != ColorWhite {
		t.Errorf("tint = %v, want white", c.Color("tint"))
	}
	nested, _ := c.Value("nested").(*Configurable)
	if nested == nil || !nested.Bool("deep") {
		t.Errorf("nested = %v, want configurable with deep=true", c.Value("nested"))
	}
}

func TestCoerceNumbers(t *testing.T) {
	tests := []struct {
		raw  any
		want float64
	}{
		{1, 1},
		{int64(0), 0},
		{float32(0.25), 0.25},
		{uint8(1), 1},
		{0.75, 0.75},
	}
	for _, tt := range tests {
		c := newTestConfigurable(t, map[string]any{"amount": tt.raw})
		if got := c.Number("amount"); got != tt.want {
			t.Errorf("amount(%T %v) = %v, want %v", tt.raw, tt.raw, got, tt.want)
		}
	}
}

func TestCoerceRejects(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"amount", 1.5},
		{"amount", -0.1},
		{"amount", math.NaN()},
		{"amount", "0.5"},
		{"mode", "medium"},
		{"mode", 3},
		{"on", "true"},
		{"tint", "#zzz"},
		{"tint", []any{1, 0}},
		{"point", []any{1}},
		{"point", map[string]any{"x": 1}},
		{"items", "x"},
		{"items", []any{map[string]any{"size": 11}}},
		{"nested", 5},
	}
	for _, tt := range tests {
		_, err := NewConfigurable("test", testSchema(), map[string]any{tt.name: tt.value})
		var oe *OptionError
		if !errors.As(err, &oe) {
			t.Errorf("%s = %#v: err = %v, want *OptionError", tt.name, tt.value, err)
		}
	}
}

func TestCoerceVectorAndColorForms(t *testing.T) {
	c := newTestConfigurable(t, nil)
	vectors := []any{
		Vector2{0.1, 0.2},
		[]any{0.1, 0.2},
		[]float64{0.1, 0.2},
		map[string]any{"x": 0.1, "y": 0.2},
	}
	for _, v := range vectors {
		if err := c.SetOption("point", Vector2{}); err != nil {
			t.Fatal(err)
		}
		if err := c.SetOption("point", v); err != nil {
			t.Fatalf("point %#v: %v", v, err)
		}
		if got := c.Vector2("point"); got != (Vector2{0.1, 0.2}) {
			t.Errorf("point %#v = %v", v, got)
		}
	}

	colors := []struct {
		raw  any
		want Color
	}{
		{"#ff0000", Color{1, 0, 0, 1}},
		{"#00f", Color{0, 0, 1, 1}},
		{[]any{0, 1, 0}, Color{0, 1, 0, 1}},
		{[]any{0, 1, 0, 0.5}, Color{0, 1, 0, 0.5}},
		{map[string]any{"r": 1, "g": 1, "b": 0}, Color{1, 1, 0, 1}},
	}
	for _, tt := range colors {
		if err := c.SetOption("tint", tt.raw); err != nil {
			t.Fatalf("tint %#v: %v", tt.raw, err)
		}
		if got := c.Color("tint"); got != tt.want {
			t.Errorf("tint %#v = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestCoerceArrayOfConfigurables(t *testing.T) {
	c := newTestConfigurable(t, map[string]any{
		"items": []any{map[string]any{"size": 3}, map[string]any{}},
	})
	items := c.Configurables("items")
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].Number("size") != 3 || items[1].Number("size") != 1 {
		t.Errorf("sizes = %v, %v, want 3, 1", items[0].Number("size"), items[1].Number("size"))
	}
}

func TestSetUnknownOption(t *testing.T) {
	c := newTestConfigurable(t, nil)
	err := c.Set(map[string]any{"bogus": 1})
	var oe *OptionError
	if !errors.As(err, &oe) || oe.Option != "bogus" || oe.Reason != "unknown option" {
		t.Errorf("Set(bogus) = %v, want unknown option error", err)
	}
}

func TestSetIsAtomic(t *testing.T) {
	c := newTestConfigurable(t, nil)
	err := c.Set(map[string]any{"amount": 0.9, "mode": "medium"})
	if err == nil {
		t.Fatal("Set with one invalid value should fail")
	}
	if c.Number("amount") != 0.5 {
		t.Errorf("amount = %v, want unchanged 0.5", c.Number("amount"))
	}
}

func TestAssignReportsChanges(t *testing.T) {
	c := newTestConfigurable(t, nil)
	changed, previous, err := c.assign(map[string]any{"amount": 0.5, "on": true})
	if err != nil {
		t.Fatal(err)
	}
	if len(changed) != 1 || changed[0] != "on" {
		t.Errorf("changed = %v, want [on]", changed)
	}
	if previous["on"] != false {
		t.Errorf("previous on = %v, want false", previous["on"])
	}
}

func TestRequiredOption(t *testing.T) {
	schema := Schema{{Name: "must", Type: OptionString, Required: true}}
	if _, err := NewConfigurable("req", schema, nil); err == nil {
		t.Error("missing required option should fail")
	}
	if _, err := NewConfigurable("req", schema, map[string]any{"must": "x"}); err != nil {
		t.Errorf("required option set: %v", err)
	}
}

func TestValidatorSeesPending(t *testing.T) {
	c, err := NewCropOperation(nil)
	if err != nil {
		t.Fatal(err)
	}
	// Moving both corners together passes even though either alone would
	// invert the rectangle.
	if err := c.Set(map[string]any{"start": []any{0.6, 0.6}, "end": []any{0.9, 0.9}}); err != nil {
		t.Errorf("joint move: %v", err)
	}
	if err := c.SetOption("end", []any{0.5, 0.5}); err == nil {
		t.Error("end above start should fail")
	}
}

func TestSnapshotRestore(t *testing.T) {
	c := newTestConfigurable(t, map[string]any{"items": []any{map[string]any{"size": 2}}})
	snap := c.Snapshot()

	c.Set(map[string]any{"amount": 1, "mode": "hard"})
	c.Configurables("items")[0].SetOption("size", 9)

	changed := c.Restore(snap)
	if c.Number("amount") != 0.5 || c.Str("mode") != "soft" {
		t.Errorf("restored = %v %v", c.Number("amount"), c.Str("mode"))
	}
	if got := c.Configurables("items")[0].Number("size"); got != 2 {
		t.Errorf("nested size = %v, want 2 (snapshot must deep copy)", got)
	}
	if len(changed) < 2 {
		t.Errorf("changed = %v, want at least amount and mode", changed)
	}
}

func TestTextureOptionResolves(t *testing.T) {
	bt := NewBaseTexture(solidImage(2, 2, opaqueRed))
	schema := Schema{TextureOption("texture")}
	for _, v := range []any{bt, NewTexture(bt), solidImage(2, 2, opaqueRed), NewRenderTexture(2, 2)} {
		c, err := NewConfigurable("tex", schema, map[string]any{"texture": v})
		if err != nil {
			t.Errorf("texture %T: %v", v, err)
			continue
		}
		if c.Texture("texture") == nil {
			t.Errorf("texture %T resolved to nil", v)
		}
	}
	if _, err := NewConfigurable("tex", schema, map[string]any{"texture": 12}); err == nil {
		t.Error("non-texture value should fail")
	}
	if _, err := NewConfigurable("tex", schema, map[string]any{"texture": "/does/not/exist.png"}); err == nil {
		t.Error("missing file should fail")
	}
}

func TestOptionTypeString(t *testing.T) {
	if OptionVector2.String() != "vector2" || OptionConfigurable.String() != "configurable" {
		t.Error("unexpected OptionType names")
	}
}
