package darkroom

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
)

// GLRenderer is the GPU backend, built on ebiten. Sprites are batched into
// DrawTriangles32 calls, filters run as Kage programs and offscreen targets
// come from a power-of-two pool.
type GLRenderer struct {
	id            ContextID
	state         ContextState
	width, height int

	screen   *glTarget
	fm       *FilterManager
	fakeRoot *Container
	shaders  *shaderCache
	batch    spriteBatch
	white    *ebiten.Image

	// uploaded tracks base textures holding a handle for the current id.
	uploaded  map[*BaseTexture]struct{}
	listeners []ContextListener

	log      *slog.Logger
	stats    RenderStats
	disposed bool
}

// NewGLRenderer creates a GPU backend and compiles its built-in programs. A
// program that fails to compile is returned as a *ShaderBuildError.
func NewGLRenderer(opts RendererOptions) (*GLRenderer, error) {
	r := &GLRenderer{
		id:       nextContextID(),
		width:    max(opts.Width, 1),
		height:   max(opts.Height, 1),
		fakeRoot: newFakeRoot(),
		uploaded: make(map[*BaseTexture]struct{}),
		log:      loggerOr(opts.Logger),
	}
	r.batch.max = opts.MaxBatchSize
	if r.batch.max <= 0 {
		r.batch.max = DefaultMaxBatchSize
	}
	r.shaders = newShaderCache(r.log)
	if err := r.createResources(); err != nil {
		return nil, err
	}
	return r, nil
}

// createResources (re)builds everything owned by the current context.
func (r *GLRenderer) createResources() error {
	if err := r.shaders.compileBuiltins(); err != nil {
		return err
	}
	r.screen = newGLTarget(r.id, r.width, r.height)
	r.fm = newFilterManager(r, newTargetPool(func(w, h int) RenderTarget {
		return newGLTarget(r.id, w, h)
	}))
	r.white = ebiten.NewImage(3, 3)
	r.white.Fill(ColorWhite.RGBA())
	r.batch.reset()
	return nil
}

func (r *GLRenderer) ID() ContextID                   { return r.id }
func (r *GLRenderer) Kind() BackendKind               { return BackendWebGL }
func (r *GLRenderer) Size() (int, int)                { return r.width, r.height }
func (r *GLRenderer) FilterManager() *FilterManager   { return r.fm }
func (r *GLRenderer) DefaultTarget() RenderTarget     { return r.screen }
func (r *GLRenderer) Stats() RenderStats              { return r.stats }
func (r *GLRenderer) renderStats() *RenderStats       { return &r.stats }
func (r *GLRenderer) NewTarget(w, h int) RenderTarget { return newGLTarget(r.id, w, h) }

// ResetStats zeroes the draw counters.
func (r *GLRenderer) ResetStats() { r.stats = RenderStats{} }

// Screen returns the default framebuffer image.
func (r *GLRenderer) Screen() *ebiten.Image { return r.screen.img }

// ResizeTo reallocates the default framebuffer.
func (r *GLRenderer) ResizeTo(w, h int) {
	w, h = max(w, 1), max(h, 1)
	if w == r.width && h == r.height {
		return
	}
	r.width, r.height = w, h
	r.screen.dispose()
	r.screen = newGLTarget(r.id, w, h)
}

// Render clears the default framebuffer and draws obj into it.
func (r *GLRenderer) Render(obj Node) error {
	return r.RenderToTarget(obj, r.screen, true)
}

// RenderToTarget draws obj into target. While the context is lost or
// abandoned this does nothing.
func (r *GLRenderer) RenderToTarget(obj Node, target RenderTarget, clear bool) error {
	if r.state != ContextActive {
		return nil
	}
	if target.Context() != r.id {
		return fmt.Errorf("darkroom: webgl render: target belongs to context %d, not %d: %w", target.Context(), r.id, ErrContextLost)
	}
	return renderPass(r, r.fakeRoot, obj, target, clear)
}

// TextureHandle returns the GPU image for bt, uploading it on first use in
// this context.
func (r *GLRenderer) TextureHandle(bt *BaseTexture) (any, error) {
	if h, ok := bt.handle(r.id); ok {
		if t, ok := h.(RenderTarget); ok {
			return t.native(), nil
		}
		return h, nil
	}
	if r.state != ContextActive {
		return nil, ErrContextLost
	}
	if bt.renderTarget {
		return nil, fmt.Errorf("darkroom: render texture has no webgl target: %w", ErrTextureNotLoaded)
	}
	bt.Poll()
	if !bt.IsLoaded() {
		return nil, ErrTextureNotLoaded
	}
	img := ebiten.NewImageFromImage(bt.source)
	bt.setHandle(r.id, img)
	r.uploaded[bt] = struct{}{}
	r.stats.Uploads++
	return img, nil
}

// Flush submits the pending sprite batch.
func (r *GLRenderer) Flush() error {
	return r.flushBatch()
}

// DrawSprite queues s's quad into the current batch.
func (r *GLRenderer) DrawSprite(s *Sprite) error {
	if r.state != ContextActive {
		return nil
	}
	tex := s.Texture()
	if tex == nil {
		return ErrNoTexture
	}
	h, err := r.TextureHandle(tex.BaseTexture())
	if err != nil {
		return err
	}
	src := h.(*ebiten.Image)
	target := r.fm.Current()
	dst := target.native().(*ebiten.Image)

	frame := tex.Frame()
	proj := projection(target)
	proj.Multiply(s.worldTransform)
	corners := proj.RectangleToCoordinates(Rectangle{Width: frame.Width, Height: frame.Height}, s.Anchor)

	uv := tex.UVs()
	bw, bh := float64(tex.BaseTexture().Width()), float64(tex.BaseTexture().Height())
	srcPts := [4]Vector2{
		{uv.X0 * bw, uv.Y0 * bh},
		{uv.X1 * bw, uv.Y1 * bh},
		{uv.X2 * bw, uv.Y2 * bh},
		{uv.X3 * bw, uv.Y3 * bh},
	}
	sh := s.Shader()
	if sh != nil && sh.IsIdentity() {
		sh = nil
	}
	key := batchKey{dst: dst, src: src, shader: sh, blend: s.BlendMode}
	if err := r.addQuad(key, corners, srcPts, ColorWhite.premultiplied(s.worldAlpha)); err != nil {
		return err
	}
	r.stats.Sprites++
	return nil
}

// DrawGraphics queues g's rectangles as quads sampling a white image.
func (r *GLRenderer) DrawGraphics(g *Graphics) error {
	if r.state != ContextActive {
		return nil
	}
	target := r.fm.Current()
	dst := target.native().(*ebiten.Image)
	proj := projection(target)
	key := batchKey{dst: dst, src: r.white, blend: BlendNormal}
	// Sample the center texel only so edges never bleed.
	mid := [4]Vector2{{1, 1}, {2, 1}, {2, 2}, {1, 2}}
	for _, fr := range g.Rects() {
		pts := g.quad(fr.Rect)
		for i := range pts {
			pts[i] = proj.Apply(pts[i])
		}
		if err := r.addQuad(key, pts, mid, fr.Color.premultiplied(g.worldAlpha)); err != nil {
			return err
		}
	}
	r.stats.Graphics++
	return nil
}

// ReadPixels reads a target back from the GPU. Only valid while an ebiten
// game loop is running.
func (r *GLRenderer) ReadPixels(target RenderTarget) (*image.RGBA, error) {
	if r.state != ContextActive {
		return nil, ErrContextLost
	}
	if !gpuReady {
		return nil, fmt.Errorf("darkroom: webgl read before the game loop started: %w", ErrBackendUnavailable)
	}
	if err := r.Flush(); err != nil {
		return nil, err
	}
	if target == nil {
		target = r.screen
	}
	img, ok := target.native().(*ebiten.Image)
	if !ok {
		return nil, errors.New("darkroom: webgl read: target from another backend")
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	img.ReadPixels(out.Pix)
	return out, nil
}

// Dispose frees every GPU resource owned by the renderer.
func (r *GLRenderer) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	r.fm.Dispose()
	r.shaders.reset()
	for bt := range r.uploaded {
		bt.ReleaseContext(r.id)
	}
	clear(r.uploaded)
	r.screen.dispose()
	r.white.Deallocate()
	r.log.Debug("darkroom: webgl renderer disposed", "context", r.id)
}
