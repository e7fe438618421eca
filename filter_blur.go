package darkroom

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
)

// blurTaps is the fixed tap count of the gaussian kernels; tap i samples at
// t = (i-12)/12 of the radius.
const blurTaps = 25

// blurTapWeights returns the normalized gaussian weight of every tap.
func blurTapWeights() [blurTaps]float64 {
	var w [blurTaps]float64
	var total float64
	for i := range w {
		t := blurTapT(i)
		w[i] = math.Exp(-2 * t * t)
		total += w[i]
	}
	for i := range w {
		w[i] /= total
	}
	return w
}

func blurTapT(i int) float64 {
	return (float64(i) - 12) / 12
}

// tapOffset rounds a tap position to the nearest pixel, halves up.
func tapOffset(t, radius float64) int {
	return int(math.Floor(t*radius + 0.5))
}

// Direction of a one-dimensional blur pass.
var (
	BlurHorizontal = Vector2{1, 0}
	BlurVertical   = Vector2{0, 1}
)

// BlurFilter is one directional gaussian pass. Chain a horizontal and a
// vertical pass for a two-dimensional blur.
type BlurFilter struct {
	ShaderFilter
}

// NewBlurFilter creates a blur pass with the given radius in pixels along
// direction (BlurHorizontal or BlurVertical).
func NewBlurFilter(radius float64, direction Vector2) *BlurFilter {
	return &BlurFilter{ShaderFilter: newShaderFilter("blur", "blur", blurShaderSrc,
		FilterOption{Name: "radius", Uniform: "Radius", Type: UniformFloat, Default: []float64{math.Max(radius, 0)}},
		FilterOption{Name: "direction", Uniform: "Direction", Type: UniformVec2, Default: []float64{direction.X, direction.Y}},
	)}
}

// NewGaussianBlur returns the horizontal and vertical passes of a 2-D blur.
func NewGaussianBlur(radius float64) []Filter {
	return []Filter{NewBlurFilter(radius, BlurHorizontal), NewBlurFilter(radius, BlurVertical)}
}

// Radius returns the blur radius in pixels.
func (f *BlurFilter) Radius() float64 { return f.Float("radius") }

// SetRadius sets the blur radius in pixels.
func (f *BlurFilter) SetRadius(r float64) { _ = f.Set("radius", math.Max(r, 0)) }

// SetPadding sets how far the filtered area extends past the node bounds.
func (f *BlurFilter) SetPadding(p int) { f.padding = max(p, 0) }

// Apply blurs in into out.
func (f *BlurFilter) Apply(r Renderer, in, out RenderTarget, clear bool) error {
	return applyFilter(r, f, in, out, clear)
}

func (f *BlurFilter) base() *ShaderFilter { return &f.ShaderFilter }

func (f *BlurFilter) gpuUniforms(RenderTarget) map[string]any {
	return f.syncUniforms()
}

// applyCPU folds the 25 taps into a 1-D convolution kernel and runs it with
// edge clamping.
func (f *BlurFilter) applyCPU(src *image.RGBA, _ image.Point) *image.RGBA {
	radius := f.Radius()
	dir := f.Vec2("direction")
	reach := tapOffset(1, radius)
	if reach == 0 {
		return toRGBA(src)
	}
	n := 2*reach + 1
	var k *convolution.Kernel
	if dir.X != 0 {
		k = convolution.NewKernel(n, 1)
	} else {
		k = convolution.NewKernel(1, n)
	}
	weights := blurTapWeights()
	for i, w := range weights {
		k.Matrix[reach+tapOffset(blurTapT(i), radius)] += w
	}
	out := convolution.Convolve(src, k, &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: false})
	out.Rect = out.Rect.Sub(out.Rect.Min)
	return out
}
