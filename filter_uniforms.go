package darkroom

import "fmt"

// UniformType is the GPU type an option is uploaded as.
type UniformType uint8

const (
	UniformFloat UniformType = iota // float
	UniformVec2                     // vec2
	UniformVec4                     // vec4
	UniformArray                    // [N]float
)

// size returns the number of components, or -1 for arrays.
func (t UniformType) size() int {
	switch t {
	case UniformFloat:
		return 1
	case UniformVec2:
		return 2
	case UniformVec4:
		return 4
	default:
		return -1
	}
}

// FilterOption declares one typed parameter of a shader filter.
type FilterOption struct {
	Name string
	// Uniform is the shader variable the value is uploaded to. Empty means
	// the option is CPU-side only.
	Uniform string
	Type    UniformType
	Default []float64
}

// ShaderFilter carries the declared options, current values and uniform
// buffer shared by every built-in filter.
type ShaderFilter struct {
	name    string
	program string
	source  string
	padding int

	options  []FilterOption
	values   map[string][]float64
	uniforms map[string]any
}

func newShaderFilter(name, program, source string, opts ...FilterOption) ShaderFilter {
	f := ShaderFilter{
		name:     name,
		program:  program,
		source:   source,
		options:  opts,
		values:   make(map[string][]float64, len(opts)),
		uniforms: make(map[string]any, len(opts)),
	}
	for _, o := range opts {
		f.values[o.Name] = append([]float64(nil), o.Default...)
	}
	return f
}

// Name returns the filter name.
func (f *ShaderFilter) Name() string { return f.name }

// Options returns the declared options.
func (f *ShaderFilter) Options() []FilterOption { return f.options }

// Padding returns the extra pixels the filter needs around its input.
func (f *ShaderFilter) Padding() int { return f.padding }

func (f *ShaderFilter) option(name string) (FilterOption, bool) {
	for _, o := range f.options {
		if o.Name == name {
			return o, true
		}
	}
	return FilterOption{}, false
}

// Set assigns an option value. The number of components must match the
// option's type; arrays must match the default's length.
func (f *ShaderFilter) Set(name string, v ...float64) error {
	o, ok := f.option(name)
	if !ok {
		return fmt.Errorf("darkroom: filter %s has no option %q", f.name, name)
	}
	want := o.Type.size()
	if want < 0 {
		want = len(o.Default)
	}
	if len(v) != want {
		return fmt.Errorf("darkroom: filter %s option %q takes %d values, got %d", f.name, name, want, len(v))
	}
	copy(f.values[name], v)
	return nil
}

// Get returns the current value of an option. The slice must not be mutated.
func (f *ShaderFilter) Get(name string) []float64 {
	return f.values[name]
}

// Float returns the first component of an option.
func (f *ShaderFilter) Float(name string) float64 {
	if v := f.values[name]; len(v) > 0 {
		return v[0]
	}
	return 0
}

// Vec2 returns an option as a vector.
func (f *ShaderFilter) Vec2(name string) Vector2 {
	if v := f.values[name]; len(v) >= 2 {
		return Vector2{v[0], v[1]}
	}
	return Vector2{}
}

// syncUniforms copies every uniform-backed option into the uniform map.
func (f *ShaderFilter) syncUniforms() map[string]any {
	for _, o := range f.options {
		if o.Uniform == "" {
			continue
		}
		v := f.values[o.Name]
		if o.Type == UniformFloat {
			f.uniforms[o.Uniform] = float32(v[0])
			continue
		}
		buf, _ := f.uniforms[o.Uniform].([]float32)
		if len(buf) != len(v) {
			buf = make([]float32, len(v))
		}
		for i, x := range v {
			buf[i] = float32(x)
		}
		f.uniforms[o.Uniform] = buf
	}
	return f.uniforms
}
