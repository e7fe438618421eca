package darkroom

import (
	"image"
	"math"
)

// FocusMode selects the shape of the sharp region of a FocusFilter.
type FocusMode uint8

const (
	FocusRadial FocusMode = iota // sharp disc around a point
	FocusLinear                  // sharp band along a line (tilt-shift)
)

// FocusFilter is one directional blur pass whose radius grows with the
// distance from a focus point or line. Inside Size the image stays sharp;
// over the next Gradient pixels the blur ramps up to the full radius.
// Geometry is in world pixels.
type FocusFilter struct {
	ShaderFilter
}

func newFocusFilter(mode FocusMode, direction Vector2) *FocusFilter {
	return &FocusFilter{ShaderFilter: newShaderFilter("focus", "focus", focusShaderSrc,
		FilterOption{Name: "radius", Uniform: "Radius", Type: UniformFloat, Default: []float64{0}},
		FilterOption{Name: "direction", Uniform: "Direction", Type: UniformVec2, Default: []float64{direction.X, direction.Y}},
		FilterOption{Name: "mode", Uniform: "Mode", Type: UniformFloat, Default: []float64{float64(mode)}},
		FilterOption{Name: "point0", Uniform: "Point0", Type: UniformVec2, Default: []float64{0, 0}},
		FilterOption{Name: "point1", Uniform: "Point1", Type: UniformVec2, Default: []float64{0, 0}},
		FilterOption{Name: "size", Uniform: "Size", Type: UniformFloat, Default: []float64{0}},
		FilterOption{Name: "gradient", Uniform: "Gradient", Type: UniformFloat, Default: []float64{1}},
	)}
}

// NewRadialBlurFilter creates a radial focus pass along direction.
func NewRadialBlurFilter(direction Vector2) *FocusFilter {
	return newFocusFilter(FocusRadial, direction)
}

// NewTiltShiftFilter creates a linear focus pass along direction.
func NewTiltShiftFilter(direction Vector2) *FocusFilter {
	return newFocusFilter(FocusLinear, direction)
}

// Mode returns the focus shape.
func (f *FocusFilter) Mode() FocusMode { return FocusMode(f.Float("mode")) }

// SetRadial focuses on a disc of radius size around center.
func (f *FocusFilter) SetRadial(center Vector2, size, gradient, radius float64) {
	_ = f.Set("mode", float64(FocusRadial))
	_ = f.Set("point0", center.X, center.Y)
	f.setCommon(size, gradient, radius)
}

// SetLinear focuses on a band of half-width size along the line through
// start and end.
func (f *FocusFilter) SetLinear(start, end Vector2, size, gradient, radius float64) {
	_ = f.Set("mode", float64(FocusLinear))
	_ = f.Set("point0", start.X, start.Y)
	_ = f.Set("point1", end.X, end.Y)
	f.setCommon(size, gradient, radius)
}

func (f *FocusFilter) setCommon(size, gradient, radius float64) {
	_ = f.Set("size", math.Max(size, 0))
	_ = f.Set("gradient", math.Max(gradient, 0))
	_ = f.Set("radius", math.Max(radius, 0))
}

// Apply blurs in into out.
func (f *FocusFilter) Apply(r Renderer, in, out RenderTarget, clear bool) error {
	return applyFilter(r, f, in, out, clear)
}

func (f *FocusFilter) base() *ShaderFilter { return &f.ShaderFilter }

func (f *FocusFilter) gpuUniforms(in RenderTarget) map[string]any {
	u := f.syncUniforms()
	o := in.Bounds().Min
	u["TargetOrigin"] = []float32{float32(o.X), float32(o.Y)}
	return u
}

// strength returns the blur scale in [0, 1] at world point p.
func (f *FocusFilter) strength(p Vector2) float64 {
	p0 := f.Vec2("point0")
	d := math.Hypot(p.X-p0.X, p.Y-p0.Y)
	if f.Mode() == FocusLinear {
		p1 := f.Vec2("point1")
		dx, dy := p1.X-p0.X, p1.Y-p0.Y
		if l := math.Hypot(dx, dy); l > 0 {
			nx, ny := -dy/l, dx/l
			d = math.Abs((p.X-p0.X)*nx + (p.Y-p0.Y)*ny)
		}
	}
	return clamp01((d - f.Float("size")) / math.Max(f.Float("gradient"), 1))
}

func (f *FocusFilter) applyCPU(src *image.RGBA, origin image.Point) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	radius := f.Float("radius")
	if radius <= 0 {
		return toRGBA(src)
	}
	dir := f.Vec2("direction")
	dx, dy := int(dir.X), int(dir.Y)
	weights := blurTapWeights()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := f.strength(Vector2{float64(origin.X+x) + 0.5, float64(origin.Y+y) + 0.5})
			var acc [4]float64
			for i, wt := range weights {
				off := tapOffset(blurTapT(i), radius*s)
				sx := min(max(x+dx*off, 0), w-1)
				sy := min(max(y+dy*off, 0), h-1)
				p := src.PixOffset(b.Min.X+sx, b.Min.Y+sy)
				for c := 0; c < 4; c++ {
					acc[c] += float64(src.Pix[p+c]) * wt
				}
			}
			q := out.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				out.Pix[q+c] = uint8(math.Min(acc[c]+0.5, 255))
			}
		}
	}
	return out
}
