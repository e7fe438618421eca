package darkroom

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// CanvasRenderer is the immediate-mode rasterizer backend. Targets are
// in-memory RGBA buffers and every draw happens as soon as it is issued.
type CanvasRenderer struct {
	id            ContextID
	width, height int

	screen   *canvasTarget
	fm       *FilterManager
	fakeRoot *Container
	raster   vector.Rasterizer

	log      *slog.Logger
	stats    RenderStats
	disposed bool
}

// NewCanvasRenderer creates a rasterizer backend with a default target of
// the given size.
func NewCanvasRenderer(opts RendererOptions) *CanvasRenderer {
	r := &CanvasRenderer{
		id:       nextContextID(),
		width:    max(opts.Width, 1),
		height:   max(opts.Height, 1),
		fakeRoot: newFakeRoot(),
		log:      loggerOr(opts.Logger),
	}
	r.screen = newCanvasTarget(r.id, r.width, r.height)
	r.fm = newFilterManager(r, newTargetPool(func(w, h int) RenderTarget {
		return newCanvasTarget(r.id, w, h)
	}))
	return r
}

func (r *CanvasRenderer) ID() ContextID                   { return r.id }
func (r *CanvasRenderer) Kind() BackendKind               { return BackendCanvas }
func (r *CanvasRenderer) Size() (int, int)                { return r.width, r.height }
func (r *CanvasRenderer) FilterManager() *FilterManager   { return r.fm }
func (r *CanvasRenderer) DefaultTarget() RenderTarget     { return r.screen }
func (r *CanvasRenderer) Stats() RenderStats              { return r.stats }
func (r *CanvasRenderer) renderStats() *RenderStats       { return &r.stats }
func (r *CanvasRenderer) NewTarget(w, h int) RenderTarget { return newCanvasTarget(r.id, w, h) }

// ResetStats zeroes the draw counters.
func (r *CanvasRenderer) ResetStats() { r.stats = RenderStats{} }

// ResizeTo reallocates the default target. Its previous contents are lost.
func (r *CanvasRenderer) ResizeTo(w, h int) {
	w, h = max(w, 1), max(h, 1)
	if w == r.width && h == r.height {
		return
	}
	r.width, r.height = w, h
	r.screen = newCanvasTarget(r.id, w, h)
}

// Render clears the default target and draws obj into it.
func (r *CanvasRenderer) Render(obj Node) error {
	return renderPass(r, r.fakeRoot, obj, r.screen, true)
}

// RenderToTarget draws obj into target.
func (r *CanvasRenderer) RenderToTarget(obj Node, target RenderTarget, clear bool) error {
	if target.Context() != r.id {
		return fmt.Errorf("darkroom: canvas render: target belongs to context %d, not %d", target.Context(), r.id)
	}
	return renderPass(r, r.fakeRoot, obj, target, clear)
}

// TextureHandle returns the RGBA pixels backing bt. Image bases are used in
// place; render-texture bases resolve to their canvas target.
func (r *CanvasRenderer) TextureHandle(bt *BaseTexture) (any, error) {
	if h, ok := bt.handle(r.id); ok {
		if t, ok := h.(RenderTarget); ok {
			return t.native(), nil
		}
		return h, nil
	}
	if bt.renderTarget {
		return nil, fmt.Errorf("darkroom: render texture has no canvas target: %w", ErrTextureNotLoaded)
	}
	bt.Poll()
	if !bt.IsLoaded() {
		return nil, ErrTextureNotLoaded
	}
	bt.setHandle(r.id, bt.source)
	r.stats.Uploads++
	return bt.source, nil
}

// Flush is a no-op: the rasterizer draws immediately.
func (r *CanvasRenderer) Flush() error { return nil }

// DrawSprite draws s's texture frame through its world transform.
func (r *CanvasRenderer) DrawSprite(s *Sprite) error {
	tex := s.Texture()
	if tex == nil {
		return ErrNoTexture
	}
	h, err := r.TextureHandle(tex.BaseTexture())
	if err != nil {
		return err
	}
	src, ok := h.(*image.RGBA)
	if !ok {
		return fmt.Errorf("darkroom: canvas sprite %q: unexpected handle %T", s.Name, h)
	}
	target := r.fm.Current()
	dst := target.native().(*image.RGBA)

	frame := tex.Frame()
	srcRect := frame.pixelRect().Intersect(src.Bounds())
	if srcRect.Empty() {
		return nil
	}

	var sample image.Image = src
	if sh := s.Shader(); sh != nil && !sh.IsIdentity() {
		sub := src.SubImage(srcRect).(*image.RGBA)
		shaded := sh.applyCPU(sub, image.Point{})
		shaded.Rect = shaded.Rect.Add(srcRect.Min)
		sample = shaded
	}

	// src pixel -> local -> world -> target pixel
	m := projection(target)
	m.Multiply(s.worldTransform)
	m.Multiply(Matrix{A: 1, D: 1,
		Tx: -frame.X - frame.Width*s.Anchor.X,
		Ty: -frame.Y - frame.Height*s.Anchor.Y,
	})

	var opts draw.Options
	if a := s.worldAlpha; a < 1 {
		opts.SrcMask = image.NewUniform(color.Alpha16{A: uint16(clamp01(a)*0xffff + 0.5)})
	}
	if dp, ok := translation(m); ok {
		// NearestNeighbor.Transform's translation shortcut offsets rows by
		// sr.Min.X, so integer offsets are copied directly.
		draw.Copy(dst, srcRect.Min.Add(dp), sample, srcRect, s.BlendMode.DrawOp(), &opts)
	} else {
		interpolator(m).Transform(dst, m.aff3(), sample, srcRect, s.BlendMode.DrawOp(), &opts)
	}
	r.stats.Sprites++
	return nil
}

// translation reports the integer offset of m when it only translates.
func translation(m Matrix) (image.Point, bool) {
	if m.A != 1 || m.B != 0 || m.C != 0 || m.D != 1 ||
		m.Tx != math.Trunc(m.Tx) || m.Ty != math.Trunc(m.Ty) {
		return image.Point{}, false
	}
	return image.Pt(int(m.Tx), int(m.Ty)), true
}

// interpolator picks nearest-neighbor for pixel-aligned copies (quarter
// turns and flips at integer offsets), which are exact, and bilinear
// otherwise.
func interpolator(m Matrix) draw.Transformer {
	unit := func(v float64) bool { return v == 0 || v == 1 || v == -1 }
	if unit(m.A) && unit(m.B) && unit(m.C) && unit(m.D) &&
		math.Abs(m.A)+math.Abs(m.B) == 1 && math.Abs(m.C)+math.Abs(m.D) == 1 &&
		m.Tx == math.Trunc(m.Tx) && m.Ty == math.Trunc(m.Ty) {
		return draw.NearestNeighbor
	}
	return draw.BiLinear
}

// DrawGraphics fills g's rectangles.
func (r *CanvasRenderer) DrawGraphics(g *Graphics) error {
	target := r.fm.Current()
	dst := target.native().(*image.RGBA)
	size := dst.Bounds().Size()
	proj := projection(target)

	for _, fr := range g.Rects() {
		pts := g.quad(fr.Rect)
		r.raster.Reset(size.X, size.Y)
		r.raster.DrawOp = draw.Over
		for i, p := range pts {
			q := proj.Apply(p)
			if i == 0 {
				r.raster.MoveTo(float32(q.X), float32(q.Y))
			} else {
				r.raster.LineTo(float32(q.X), float32(q.Y))
			}
		}
		r.raster.ClosePath()
		c := fr.Color
		c.A *= g.worldAlpha
		r.raster.Draw(dst, dst.Bounds(), image.NewUniform(c.RGBA()), image.Point{})
	}
	r.stats.Graphics++
	return nil
}

// ReadPixels copies the target's pixels.
func (r *CanvasRenderer) ReadPixels(target RenderTarget) (*image.RGBA, error) {
	if r.disposed {
		return nil, errors.New("darkroom: canvas renderer disposed")
	}
	if target == nil {
		target = r.screen
	}
	img, ok := target.native().(*image.RGBA)
	if !ok {
		return nil, errors.New("darkroom: canvas read: target from another backend")
	}
	out := clone.AsRGBA(img)
	out.Rect = out.Rect.Sub(out.Rect.Min)
	return out, nil
}

// Dispose frees pooled targets.
func (r *CanvasRenderer) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	r.fm.Dispose()
	r.log.Debug("darkroom: canvas renderer disposed", "context", r.id)
}
