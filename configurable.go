package darkroom

import "maps"

// Configurable holds option values validated against a Schema. Operations
// embed one; array and configurable options nest them.
type Configurable struct {
	owner  string
	schema Schema
	values map[string]any
}

// NewConfigurable builds a Configurable from raw values. Missing options take
// their defaults; a missing required option is an *OptionError.
func NewConfigurable(owner string, schema Schema, values map[string]any) (*Configurable, error) {
	c := &Configurable{owner: owner, schema: schema, values: make(map[string]any, len(schema))}
	for _, spec := range schema {
		if spec.Default == nil {
			continue
		}
		v, err := spec.coerce(owner, spec.Default)
		if err != nil {
			return nil, err
		}
		c.values[spec.Name] = v
	}
	if _, _, err := c.assign(values); err != nil {
		return nil, err
	}
	for _, spec := range schema {
		if _, ok := c.values[spec.Name]; spec.Required && !ok {
			return nil, &OptionError{Operation: owner, Option: spec.Name, Reason: "required"}
		}
	}
	return c, nil
}

// Schema returns the declared options.
func (c *Configurable) Schema() Schema { return c.schema }

// Set assigns several options atomically: either all values pass coercion
// and validation or none are stored.
func (c *Configurable) Set(values map[string]any) error {
	_, _, err := c.assign(values)
	return err
}

// SetOption assigns one option.
func (c *Configurable) SetOption(name string, v any) error {
	return c.Set(map[string]any{name: v})
}

// assign coerces and validates values, then stores them. It reports which
// options changed and their previous values.
func (c *Configurable) assign(values map[string]any) (changed []string, previous map[string]any, err error) {
	if len(values) == 0 {
		return nil, nil, nil
	}
	pending := maps.Clone(c.values)
	coerced := make(map[string]any, len(values))
	for _, spec := range c.schema {
		raw, ok := values[spec.Name]
		if !ok {
			continue
		}
		v, err := spec.coerce(c.owner, raw)
		if err != nil {
			return nil, nil, err
		}
		coerced[spec.Name] = v
		pending[spec.Name] = v
	}
	for name, raw := range values {
		if _, ok := coerced[name]; !ok {
			return nil, nil, &OptionError{Operation: c.owner, Option: name, Value: raw, Reason: "unknown option"}
		}
	}
	for _, spec := range c.schema {
		v, ok := coerced[spec.Name]
		if !ok || spec.Validator == nil {
			continue
		}
		if err := spec.Validator(v, pending); err != nil {
			return nil, nil, &OptionError{Operation: c.owner, Option: spec.Name, Value: values[spec.Name], Reason: err.Error()}
		}
	}

	previous = make(map[string]any)
	for _, spec := range c.schema {
		v, ok := coerced[spec.Name]
		if !ok {
			continue
		}
		old, had := c.values[spec.Name]
		if had && optionEqual(old, v) {
			continue
		}
		changed = append(changed, spec.Name)
		previous[spec.Name] = old
		c.values[spec.Name] = v
	}
	return changed, previous, nil
}

// put stores already-canonical values without validation, for corrections
// computed by the package itself.
func (c *Configurable) put(name string, v any) {
	c.values[name] = v
}

func optionEqual(a, b any) bool {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case Color:
		y, ok := b.(Color)
		return ok && x == y
	case Vector2:
		y, ok := b.(Vector2)
		return ok && x == y
	}
	return false
}

// Value returns the raw stored value of name.
func (c *Configurable) Value(name string) any { return c.values[name] }

// Has reports whether name holds a value.
func (c *Configurable) Has(name string) bool {
	_, ok := c.values[name]
	return ok
}

func (c *Configurable) Number(name string) float64 {
	v, _ := c.values[name].(float64)
	return v
}

// Str returns a string option.
func (c *Configurable) Str(name string) string {
	v, _ := c.values[name].(string)
	return v
}

func (c *Configurable) Bool(name string) bool {
	v, _ := c.values[name].(bool)
	return v
}

func (c *Configurable) Color(name string) Color {
	v, _ := c.values[name].(Color)
	return v
}

func (c *Configurable) Vector2(name string) Vector2 {
	v, _ := c.values[name].(Vector2)
	return v
}

// Texture returns a texture option, or nil when unset.
func (c *Configurable) Texture(name string) *Texture {
	v, _ := c.values[name].(*Texture)
	return v
}

// Configurables returns an array option holding nested configurables.
func (c *Configurable) Configurables(name string) []*Configurable {
	v, _ := c.values[name].([]*Configurable)
	return v
}

// Snapshot copies every value, cloning nested configurables.
func (c *Configurable) Snapshot() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = cloneOption(v)
	}
	return out
}

// Restore replaces every value with a snapshot taken by Snapshot and
// returns the names that differ.
func (c *Configurable) Restore(snap map[string]any) []string {
	var changed []string
	for _, spec := range c.schema {
		old, had := c.values[spec.Name]
		v, ok := snap[spec.Name]
		if !ok {
			if had {
				delete(c.values, spec.Name)
				changed = append(changed, spec.Name)
			}
			continue
		}
		if !had || !optionEqual(old, v) {
			changed = append(changed, spec.Name)
		}
		c.values[spec.Name] = cloneOption(v)
	}
	return changed
}

// Clone returns a deep copy.
func (c *Configurable) Clone() *Configurable {
	return &Configurable{owner: c.owner, schema: c.schema, values: c.Snapshot()}
}

func cloneOption(v any) any {
	switch x := v.(type) {
	case *Configurable:
		return x.Clone()
	case []*Configurable:
		out := make([]*Configurable, len(x))
		for i, item := range x {
			out[i] = item.Clone()
		}
		return out
	case []any:
		return append([]any(nil), x...)
	}
	return v
}
