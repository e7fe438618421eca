package darkroom

import (
	"context"
	"image"

	"github.com/anthonynsimon/bild/clone"
	"github.com/hajimehoshi/ebiten/v2"
)

// BaseTexture owns one decoded pixel source and caches a native handle for
// it per backend context.
//
// A BaseTexture created by LoadBaseTexture decodes on a background
// goroutine. Completion is applied (and OnLoaded callbacks fire) on the
// goroutine that calls Poll or WaitLoaded, so no other field is ever touched
// concurrently.
type BaseTexture struct {
	source *image.RGBA
	width  int
	height int

	loaded  bool
	loadErr error
	pending chan loadResult
	waiters []func(*BaseTexture, error)

	// renderTarget marks bases backed by a RenderTexture: handles are
	// RenderTargets owned by that RenderTexture.
	renderTarget bool

	handles map[ContextID]any
	// version increments whenever the frame size changes.
	version uint64
}

type loadResult struct {
	img *image.RGBA
	err error
}

// NewBaseTexture wraps an already decoded image. The pixels are copied into
// a zero-origin RGBA buffer.
func NewBaseTexture(img image.Image) *BaseTexture {
	bt := &BaseTexture{handles: make(map[ContextID]any)}
	bt.finishLoad(toRGBA(img), nil)
	return bt
}

// newRenderBaseTexture creates an always-loaded base without a decoded
// source, used by RenderTexture.
func newRenderBaseTexture(w, h int) *BaseTexture {
	return &BaseTexture{
		width:        w,
		height:       h,
		loaded:       true,
		renderTarget: true,
		handles:      make(map[ContextID]any),
	}
}

// toRGBA returns img as a zero-origin *image.RGBA copy.
func toRGBA(img image.Image) *image.RGBA {
	rgba := clone.AsRGBA(img)
	rgba.Rect = rgba.Rect.Sub(rgba.Rect.Min)
	return rgba
}

// IsLoaded reports whether the source has finished decoding successfully.
// Call Poll first to pick up a decode that completed in the background.
func (bt *BaseTexture) IsLoaded() bool {
	return bt.loaded && bt.loadErr == nil
}

// Err returns the decode error, if loading failed.
func (bt *BaseTexture) Err() error {
	return bt.loadErr
}

// Width returns the frame width. Zero until loaded.
func (bt *BaseTexture) Width() int { return bt.width }

// Height returns the frame height. Zero until loaded.
func (bt *BaseTexture) Height() int { return bt.height }

// Frame returns the full frame of the base.
func (bt *BaseTexture) Frame() Rectangle {
	return Rectangle{Width: float64(bt.width), Height: float64(bt.height)}
}

// Version increments whenever the frame size changes.
func (bt *BaseTexture) Version() uint64 { return bt.version }

// Source returns the decoded pixels, or nil for render-target bases and
// bases still loading.
func (bt *BaseTexture) Source() *image.RGBA { return bt.source }

// OnLoaded registers a one-shot callback fired when loading completes. If
// loading already completed, fn runs immediately.
func (bt *BaseTexture) OnLoaded(fn func(*BaseTexture, error)) {
	if bt.loaded {
		fn(bt, bt.loadErr)
		return
	}
	bt.waiters = append(bt.waiters, fn)
}

// Poll applies a finished background decode without blocking. It returns
// true once loading has completed, successfully or not.
func (bt *BaseTexture) Poll() bool {
	if bt.loaded {
		return true
	}
	select {
	case res := <-bt.pending:
		bt.finishLoad(res.img, res.err)
		return true
	default:
		return false
	}
}

// WaitLoaded blocks until loading completes or ctx is done. It returns the
// decode error, if any.
func (bt *BaseTexture) WaitLoaded(ctx context.Context) error {
	if bt.loaded {
		return bt.loadErr
	}
	select {
	case res := <-bt.pending:
		bt.finishLoad(res.img, res.err)
		return bt.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (bt *BaseTexture) finishLoad(img *image.RGBA, err error) {
	bt.loaded = true
	bt.loadErr = err
	bt.pending = nil
	if err == nil {
		bt.source = img
		b := img.Bounds()
		bt.width, bt.height = b.Dx(), b.Dy()
		bt.version++
	}
	waiters := bt.waiters
	bt.waiters = nil
	for _, fn := range waiters {
		fn(bt, err)
	}
}

// ResizeTo changes the logical frame of a render-target base. The decoded
// source of an image base is never touched; calling this on one is a no-op.
func (bt *BaseTexture) ResizeTo(w, h int) {
	if !bt.renderTarget || (bt.width == w && bt.height == h) {
		return
	}
	bt.width, bt.height = w, h
	bt.version++
}

// handle returns the cached native handle for a context.
func (bt *BaseTexture) handle(id ContextID) (any, bool) {
	h, ok := bt.handles[id]
	return h, ok
}

func (bt *BaseTexture) setHandle(id ContextID, h any) {
	bt.handles[id] = h
}

// HasHandle reports whether a native handle is cached for the context.
func (bt *BaseTexture) HasHandle(id ContextID) bool {
	_, ok := bt.handles[id]
	return ok
}

// ReleaseContext drops the handle cached for a context, freeing GPU memory
// for image bases. Render-target handles belong to their RenderTexture and
// are only forgotten here.
func (bt *BaseTexture) ReleaseContext(id ContextID) {
	h, ok := bt.handles[id]
	if !ok {
		return
	}
	delete(bt.handles, id)
	if bt.renderTarget {
		return
	}
	if img, ok := h.(*ebiten.Image); ok {
		img.Deallocate()
	}
}

// Dispose releases every cached handle.
func (bt *BaseTexture) Dispose() {
	for id := range bt.handles {
		bt.ReleaseContext(id)
	}
}
