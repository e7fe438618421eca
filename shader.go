package darkroom

import (
	"log/slog"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// --- Kage shader sources ---
// All shaders use //kage:unit pixels. Ebitengine images are premultiplied;
// shaders that work on straight color un-premultiply first and
// re-premultiply on output. Neighbor sampling clamps to the source edge.

const identityShaderSrc = `//kage:unit pixels
package main

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	return imageSrc0At(src) * color.a
}
`

const colorMatrixShaderSrc = `//kage:unit pixels
package main

var Matrix [20]float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a > 0 {
		c.rgb /= c.a
	}
	// 4x5 color matrix, row-major, offsets in elements 4, 9, 14, 19.
	r := Matrix[0]*c.r + Matrix[1]*c.g + Matrix[2]*c.b + Matrix[3]*c.a + Matrix[4]
	g := Matrix[5]*c.r + Matrix[6]*c.g + Matrix[7]*c.b + Matrix[8]*c.a + Matrix[9]
	b := Matrix[10]*c.r + Matrix[11]*c.g + Matrix[12]*c.b + Matrix[13]*c.a + Matrix[14]
	a := Matrix[15]*c.r + Matrix[16]*c.g + Matrix[17]*c.b + Matrix[18]*c.a + Matrix[19]
	r = clamp(r, 0, 1)
	g = clamp(g, 0, 1)
	b = clamp(b, 0, 1)
	a = clamp(a, 0, 1)
	return vec4(r*a, g*a, b*a, a) * color.a
}
`

// blurShaderSrc is one directional pass of a 25-tap gaussian. Tap i sits at
// t = (i-12)/12 of the radius, rounded to the nearest pixel.
const blurShaderSrc = `//kage:unit pixels
package main

var Direction vec2
var Radius float

func sampleClamped(p vec2) vec4 {
	q := clamp(p, vec2(0), imageSrc0Size()-vec2(1))
	return imageSrc0UnsafeAt(q + imageSrc0Origin() + vec2(0.5))
}

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	local := floor(src - imageSrc0Origin())
	sum := vec4(0)
	total := 0.0
	for i := 0; i < 25; i++ {
		t := (float(i) - 12.0) / 12.0
		w := exp(-2.0 * t * t)
		off := floor(t*Radius + 0.5)
		sum += sampleClamped(local+Direction*off) * w
		total += w
	}
	return sum / total
}
`

// focusShaderSrc blurs in one direction with a radius scaled per pixel by
// the distance from a focus point (Mode 0) or focus line (Mode 1).
const focusShaderSrc = `//kage:unit pixels
package main

var Direction vec2
var Radius float
var Mode float
var Point0 vec2
var Point1 vec2
var Size float
var Gradient float
var TargetOrigin vec2

func sampleClamped(p vec2) vec4 {
	q := clamp(p, vec2(0), imageSrc0Size()-vec2(1))
	return imageSrc0UnsafeAt(q + imageSrc0Origin() + vec2(0.5))
}

func strength(p vec2) float {
	d := length(p - Point0)
	if Mode > 0.5 {
		dir := Point1 - Point0
		l := length(dir)
		if l > 0 {
			n := vec2(-dir.y, dir.x) / l
			d = abs(dot(p-Point0, n))
		}
	}
	return clamp((d-Size)/max(Gradient, 1.0), 0, 1)
}

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	local := floor(src - imageSrc0Origin())
	s := strength(local + TargetOrigin + vec2(0.5))
	sum := vec4(0)
	total := 0.0
	for i := 0; i < 25; i++ {
		t := (float(i) - 12.0) / 12.0
		w := exp(-2.0 * t * t)
		off := floor(t*Radius*s + 0.5)
		sum += sampleClamped(local+Direction*off) * w
		total += w
	}
	return sum / total
}
`

// builtinPrograms are compiled eagerly when a GPU context is created so a
// broken program fails construction instead of the first render.
var builtinPrograms = []struct{ name, source string }{
	{"identity", identityShaderSrc},
	{"colormatrix", colorMatrixShaderSrc},
	{"blur", blurShaderSrc},
	{"focus", focusShaderSrc},
}

// shaderCache compiles Kage programs lazily, once per GPU context.
type shaderCache struct {
	programs map[string]*ebiten.Shader
	log      *slog.Logger
	compiles int
}

func newShaderCache(log *slog.Logger) *shaderCache {
	return &shaderCache{programs: make(map[string]*ebiten.Shader), log: log}
}

// get returns the compiled program, compiling it on first use.
func (c *shaderCache) get(name, source string) (*ebiten.Shader, error) {
	if s, ok := c.programs[name]; ok {
		return s, nil
	}
	s, err := ebiten.NewShader([]byte(source))
	if err != nil {
		buildErr := &ShaderBuildError{
			Backend: BackendWebGL,
			Shader:  name,
			Stage:   shaderStage(err.Error()),
			Log:     err.Error(),
		}
		c.log.Error("darkroom: shader build failed", "shader", name, "stage", buildErr.Stage, "err", err)
		return nil, buildErr
	}
	c.programs[name] = s
	c.compiles++
	return s, nil
}

// compileBuiltins builds every built-in program.
func (c *shaderCache) compileBuiltins() error {
	for _, p := range builtinPrograms {
		if _, err := c.get(p.name, p.source); err != nil {
			return err
		}
	}
	return nil
}

// reset drops every compiled program.
func (c *shaderCache) reset() {
	for name, s := range c.programs {
		s.Deallocate()
		delete(c.programs, name)
	}
}

// shaderStage guesses the failing stage from a compiler diagnostic.
func shaderStage(log string) string {
	if strings.Contains(strings.ToLower(log), "vertex") {
		return "vertex"
	}
	return "fragment"
}
