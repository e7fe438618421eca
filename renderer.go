package darkroom

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
)

// Renderer is one of the two interchangeable drawing backends. Both draw a
// scene graph into a render target and read pixels back; they differ only in
// where pixels live (an in-memory buffer or a GPU image).
type Renderer interface {
	// ID identifies the renderer's current context. It changes when a GPU
	// context is restored after loss and is never reused.
	ID() ContextID
	Kind() BackendKind
	Size() (w, h int)
	ResizeTo(w, h int)

	// Render clears the default target and draws obj into it.
	Render(obj Node) error
	// RenderToTarget draws obj into target, clearing it first if clear is set.
	RenderToTarget(obj Node, target RenderTarget, clear bool) error

	// TextureHandle returns the native image for bt in this context,
	// creating and uploading it on first use.
	TextureHandle(bt *BaseTexture) (any, error)
	FilterManager() *FilterManager

	DrawSprite(s *Sprite) error
	DrawGraphics(g *Graphics) error
	// Flush submits any batched draws to the current target.
	Flush() error

	// ReadPixels copies a target's pixels (premultiplied). A nil target
	// reads the default target.
	ReadPixels(target RenderTarget) (*image.RGBA, error)
	DefaultTarget() RenderTarget
	NewTarget(w, h int) RenderTarget

	Stats() RenderStats
	Dispose()
}

// RendererOptions configures a renderer.
type RendererOptions struct {
	Width, Height int
	// MaxBatchSize is the number of sprites per GPU draw call before a
	// forced flush. Zero means 2000.
	MaxBatchSize int
	// Logger receives backend diagnostics. Nil uses the package logger.
	Logger *slog.Logger
}

// DefaultMaxBatchSize is the sprite count that forces a GPU batch flush.
const DefaultMaxBatchSize = 2000

// RenderStats counts work done by a renderer since the last ResetStats.
type RenderStats struct {
	Sprites      int // sprite quads drawn
	Graphics     int // Graphics nodes drawn
	Batches      int // GPU draw calls issued for sprites
	FilterPasses int // Filter.Apply calls
	Uploads      int // textures uploaded to the backend
}

// NewRenderer constructs the preferred backend. If the GPU backend cannot be
// created the rasterizer is returned instead and the failure is logged as a
// warning.
func NewRenderer(kind BackendKind, opts RendererOptions) Renderer {
	log := loggerOr(opts.Logger)
	if kind == BackendWebGL {
		var r *GLRenderer
		err := ErrBackendUnavailable
		if gpuReady {
			r, err = NewGLRenderer(opts)
		}
		if err == nil {
			log.Info("darkroom: renderer selected", "backend", BackendWebGL, "context", r.ID())
			return r
		}
		log.Warn("darkroom: GPU backend unavailable, falling back to rasterizer", "err", err)
	}
	r := NewCanvasRenderer(opts)
	log.Info("darkroom: renderer selected", "backend", BackendCanvas, "context", r.ID())
	return r
}

// withFakeRoot reparents obj onto root for the duration of a render pass so
// its world transform resolves against the backend's coordinate system. The
// returned func restores the original parent.
func withFakeRoot(obj Node, root *Container) func() {
	d := obj.displayObject()
	prev := d.parent
	d.parent = root
	return func() { d.parent = prev }
}

// newFakeRoot returns the identity parent used during render passes. It is
// never updated and never holds children.
func newFakeRoot() *Container {
	return NewContainer("__root")
}

// renderPass is the shared body of Render and RenderToTarget.
func renderPass(r Renderer, fakeRoot *Container, obj Node, target RenderTarget, clear bool) (err error) {
	if obj == nil {
		return errors.New("darkroom: render nil object")
	}
	restore := withFakeRoot(obj, fakeRoot)
	defer restore()

	obj.UpdateTransform()
	fm := r.FilterManager()
	fm.Begin(target)
	if clear {
		target.Clear()
	}
	err = obj.RenderVia(r)
	if flushErr := r.Flush(); err == nil {
		err = flushErr
	}
	if endErr := fm.End(); err == nil {
		err = endErr
	}
	if err != nil {
		return fmt.Errorf("darkroom: %s render %q: %w", r.Kind(), obj.displayObject().Name, err)
	}
	return nil
}

// projection maps world space into target pixel space.
func projection(t RenderTarget) Matrix {
	o := t.Bounds().Min
	return Matrix{A: 1, D: 1, Tx: -float64(o.X), Ty: -float64(o.Y)}
}
