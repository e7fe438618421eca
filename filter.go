package darkroom

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"
)

// Filter is a parameterized image transform with a GPU and a CPU
// realization. Filters are attached to containers through SetFilters and
// hold no state beyond their option values.
type Filter interface {
	Name() string
	// Apply reads in and writes the filtered result into out at in's world
	// position. With clear set, out is cleared first; otherwise the result is
	// composited over out's existing pixels.
	Apply(r Renderer, in, out RenderTarget, clear bool) error
	// Padding returns the extra pixels needed around the source for the
	// effect. Zero means none.
	Padding() int
}

// filterKernel is implemented by every built-in filter. The GPU path runs
// the base's Kage program with gpuUniforms; the CPU path runs applyCPU.
type filterKernel interface {
	base() *ShaderFilter
	gpuUniforms(in RenderTarget) map[string]any
	// applyCPU returns the filtered pixels of src as a new zero-origin
	// image of the same size. origin is src's world position.
	applyCPU(src *image.RGBA, origin image.Point) *image.RGBA
}

// applyFilter dispatches k to the realization matching r's backend.
func applyFilter(r Renderer, k filterKernel, in, out RenderTarget, clear bool) error {
	if s, ok := r.(statsSource); ok {
		s.renderStats().FilterPasses++
	}
	switch r.Kind() {
	case BackendWebGL:
		g, ok := r.(*GLRenderer)
		if !ok {
			return fmt.Errorf("darkroom: filter %s: %w", k.base().Name(), ErrBackendUnavailable)
		}
		return applyGPU(g, k, in, out, clear)
	default:
		return applyCPU(k, in, out, clear)
	}
}

// statsSource is implemented by both built-in renderers.
type statsSource interface {
	renderStats() *RenderStats
}

func applyGPU(g *GLRenderer, k filterKernel, in, out RenderTarget, clear bool) error {
	if g.State() != ContextActive {
		return nil
	}
	b := k.base()
	shader, err := g.shaders.get(b.program, b.source)
	if err != nil {
		return err
	}
	src, ok1 := in.native().(*ebiten.Image)
	dst, ok2 := out.native().(*ebiten.Image)
	if !ok1 || !ok2 {
		return fmt.Errorf("darkroom: filter %s: target from another backend", b.Name())
	}
	if clear {
		dst.Clear()
	}
	inB, outB := in.Bounds(), out.Bounds()
	var op ebiten.DrawRectShaderOptions
	op.Images[0] = src
	op.Uniforms = k.gpuUniforms(in)
	op.GeoM.Translate(float64(inB.Min.X-outB.Min.X), float64(inB.Min.Y-outB.Min.Y))
	op.Blend = ebiten.BlendSourceOver
	dst.DrawRectShader(inB.Dx(), inB.Dy(), shader, &op)
	return nil
}

func applyCPU(k filterKernel, in, out RenderTarget, clear bool) error {
	src, ok1 := in.native().(*image.RGBA)
	_, ok2 := out.native().(*image.RGBA)
	if !ok1 || !ok2 {
		return fmt.Errorf("darkroom: filter %s: target from another backend", k.base().Name())
	}
	result := k.applyCPU(src, in.Bounds().Min)
	compositeCPU(result, in, out, clear)
	return nil
}

// compositeCPU draws a zero-origin result at in's world position into out.
func compositeCPU(result *image.RGBA, in, out RenderTarget, clear bool) {
	dst := out.native().(*image.RGBA)
	if clear {
		out.Clear()
	}
	inB, outB := in.Bounds(), out.Bounds()
	rect := inB.Sub(outB.Min)
	op := draw.Over
	if clear {
		op = draw.Src
	}
	draw.Draw(dst, rect, result, image.Point{}, op)
}

// --- IdentityFilter ---

// IdentityFilter copies its input unchanged.
type IdentityFilter struct {
	ShaderFilter
}

// NewIdentityFilter returns a pass-through filter.
func NewIdentityFilter() *IdentityFilter {
	return &IdentityFilter{ShaderFilter: newShaderFilter("identity", "identity", identityShaderSrc)}
}

func (f *IdentityFilter) base() *ShaderFilter                    { return &f.ShaderFilter }
func (f *IdentityFilter) gpuUniforms(RenderTarget) map[string]any { return nil }

func (f *IdentityFilter) applyCPU(src *image.RGBA, _ image.Point) *image.RGBA {
	return toRGBA(src)
}

// Apply copies in into out.
func (f *IdentityFilter) Apply(r Renderer, in, out RenderTarget, clear bool) error {
	return applyFilter(r, f, in, out, clear)
}

// copyTarget composites in over out without changing pixels.
func copyTarget(r Renderer, in, out RenderTarget) error {
	return NewIdentityFilter().Apply(r, in, out, false)
}
