package darkroom

import (
	"fmt"
	"image"
	"math"
	"slices"
	"strings"
)

// OptionType is the declared type of an operation option.
type OptionType uint8

const (
	OptionNumber OptionType = iota
	OptionString
	OptionBoolean
	OptionColor
	OptionVector2
	OptionArray
	OptionObject
	OptionConfigurable
)

// String returns the lowercase type name.
func (t OptionType) String() string {
	switch t {
	case OptionNumber:
		return "number"
	case OptionString:
		return "string"
	case OptionBoolean:
		return "boolean"
	case OptionColor:
		return "color"
	case OptionVector2:
		return "vector2"
	case OptionArray:
		return "array"
	case OptionObject:
		return "object"
	case OptionConfigurable:
		return "configurable"
	default:
		return fmt.Sprintf("OptionType(%d)", t)
	}
}

// OptionSpec declares one option of a schema.
//
// Values are coerced to the canonical Go type of Type when assigned:
//
//	number        float64
//	string        string
//	boolean       bool
//	color         Color
//	vector2       Vector2
//	array         []any, or []*Configurable when Schema is set
//	object        any (Setter usually narrows it)
//	configurable  *Configurable
type OptionSpec struct {
	Name     string
	Type     OptionType
	Default  any
	Required bool

	// Available restricts string options to a fixed set.
	Available []string
	// HasRange bounds number options to [Min, Max].
	HasRange bool
	Min, Max float64

	// Schema describes nested configurables and array elements.
	Schema Schema

	// Setter converts a coerced value before validation, e.g. to resolve a
	// texture reference.
	Setter func(v any) (any, error)
	// Validator checks a coerced value against the other pending values.
	Validator func(v any, pending map[string]any) error
}

// Schema is an ordered option declaration list.
type Schema []OptionSpec

// Lookup returns the spec named name.
func (s Schema) Lookup(name string) (OptionSpec, bool) {
	for _, o := range s {
		if o.Name == name {
			return o, true
		}
	}
	return OptionSpec{}, false
}

// Names returns the option names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, o := range s {
		names[i] = o.Name
	}
	return names
}

// --- Spec constructors ---

// NumberOption declares a number bounded to [lo, hi].
func NumberOption(name string, def, lo, hi float64) OptionSpec {
	return OptionSpec{Name: name, Type: OptionNumber, Default: def, HasRange: true, Min: lo, Max: hi}
}

// StringOption declares a string limited to available (if non-empty).
func StringOption(name, def string, available ...string) OptionSpec {
	return OptionSpec{Name: name, Type: OptionString, Default: def, Available: available}
}

// BoolOption declares a boolean.
func BoolOption(name string, def bool) OptionSpec {
	return OptionSpec{Name: name, Type: OptionBoolean, Default: def}
}

// ColorOption declares a color.
func ColorOption(name string, def Color) OptionSpec {
	return OptionSpec{Name: name, Type: OptionColor, Default: def}
}

// Vector2Option declares a vector.
func Vector2Option(name string, def Vector2) OptionSpec {
	return OptionSpec{Name: name, Type: OptionVector2, Default: def}
}

// --- Coercion ---

// coerce converts raw to the canonical type of spec and runs its Setter.
// owner names the operation in errors.
func (spec OptionSpec) coerce(owner string, raw any) (any, error) {
	fail := func(reason string) error {
		return &OptionError{Operation: owner, Option: spec.Name, Value: raw, Reason: reason}
	}
	var v any
	switch spec.Type {
	case OptionNumber:
		n, ok := toFloat(raw)
		if !ok {
			return nil, fail("expected a number")
		}
		if math.IsNaN(n) {
			return nil, fail("NaN is not allowed")
		}
		if spec.HasRange && (n < spec.Min || n > spec.Max) {
			return nil, fail(fmt.Sprintf("out of range [%g, %g]", spec.Min, spec.Max))
		}
		v = n
	case OptionString:
		s, ok := raw.(string)
		if !ok {
			return nil, fail("expected a string")
		}
		if len(spec.Available) > 0 && !slices.Contains(spec.Available, s) {
			return nil, fail("must be one of " + strings.Join(spec.Available, ", "))
		}
		v = s
	case OptionBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, fail("expected a boolean")
		}
		v = b
	case OptionColor:
		c, err := toColor(raw)
		if err != nil {
			return nil, fail(err.Error())
		}
		v = c
	case OptionVector2:
		p, ok := toVector2(raw)
		if !ok {
			return nil, fail("expected a vector2")
		}
		v = p
	case OptionArray:
		items, ok := toSlice(raw)
		if !ok {
			return nil, fail("expected an array")
		}
		if spec.Schema == nil {
			v = items
			break
		}
		out := make([]*Configurable, 0, len(items))
		for i, item := range items {
			c, err := toConfigurable(fmt.Sprintf("%s.%s[%d]", owner, spec.Name, i), spec.Schema, item)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		v = out
	case OptionObject:
		if raw == nil {
			return nil, fail("expected an object")
		}
		v = raw
	case OptionConfigurable:
		c, err := toConfigurable(owner+"."+spec.Name, spec.Schema, raw)
		if err != nil {
			return nil, err
		}
		v = c
	default:
		return nil, fail("unknown option type " + spec.Type.String())
	}

	if spec.Setter != nil {
		out, err := spec.Setter(v)
		if err != nil {
			return nil, fail(err.Error())
		}
		v = out
	}
	return v, nil
}

func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func toSlice(raw any) ([]any, bool) {
	switch s := raw.(type) {
	case []any:
		return s, true
	case []float64:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	case []*Configurable:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	}
	return nil, false
}

func toVector2(raw any) (Vector2, bool) {
	switch p := raw.(type) {
	case Vector2:
		return p, true
	case *Vector2:
		if p != nil {
			return *p, true
		}
	case map[string]any:
		x, okx := toFloat(p["x"])
		y, oky := toFloat(p["y"])
		return Vector2{x, y}, okx && oky
	default:
		items, ok := toSlice(raw)
		if !ok || len(items) != 2 {
			return Vector2{}, false
		}
		x, okx := toFloat(items[0])
		y, oky := toFloat(items[1])
		return Vector2{x, y}, okx && oky
	}
	return Vector2{}, false
}

func toColor(raw any) (Color, error) {
	switch c := raw.(type) {
	case Color:
		return c, nil
	case string:
		return ParseColor(c)
	case map[string]any:
		var out Color
		var ok [4]bool
		out.R, ok[0] = toFloat(c["r"])
		out.G, ok[1] = toFloat(c["g"])
		out.B, ok[2] = toFloat(c["b"])
		out.A, ok[3] = toFloat(c["a"])
		if !ok[3] {
			out.A, ok[3] = 1, true
		}
		if !ok[0] || !ok[1] || !ok[2] {
			return Color{}, fmt.Errorf("color map needs r, g and b")
		}
		return out, nil
	}
	items, ok := toSlice(raw)
	if !ok || (len(items) != 3 && len(items) != 4) {
		return Color{}, fmt.Errorf("expected a color")
	}
	comps := []float64{0, 0, 0, 1}
	for i, it := range items {
		f, ok := toFloat(it)
		if !ok {
			return Color{}, fmt.Errorf("color component %d is not a number", i)
		}
		comps[i] = f
	}
	return Color{comps[0], comps[1], comps[2], comps[3]}, nil
}

func toConfigurable(owner string, schema Schema, raw any) (*Configurable, error) {
	switch c := raw.(type) {
	case *Configurable:
		return c, nil
	case map[string]any:
		return NewConfigurable(owner, schema, c)
	case nil:
		return NewConfigurable(owner, schema, nil)
	}
	return nil, &OptionError{Operation: owner, Value: raw, Reason: "expected an option map"}
}

// TextureOption declares an object option holding a *Texture. Assigned
// values may be a *Texture, *RenderTexture, *BaseTexture, decoded
// image.Image or a file path, which starts loading in the background.
func TextureOption(name string) OptionSpec {
	return OptionSpec{Name: name, Type: OptionObject, Setter: resolveTexture}
}

func resolveTexture(v any) (any, error) {
	switch t := v.(type) {
	case *Texture:
		return t, nil
	case *RenderTexture:
		return t.AsTexture(), nil
	case *BaseTexture:
		return NewTexture(t), nil
	case image.Image:
		return NewTexture(NewBaseTexture(t)), nil
	case string:
		bt, err := LoadBaseTextureFile(t)
		if err != nil {
			return nil, err
		}
		return NewTexture(bt), nil
	}
	return NewTextureFrom(v)
}
