package darkroom

import (
	"fmt"
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// RenderTarget is an offscreen (or on-screen) pixel destination owned by one
// backend context. Bounds places the target in world space: a node whose
// world transform maps a point to Bounds().Min lands on the target's
// top-left pixel.
type RenderTarget interface {
	Bounds() image.Rectangle
	Clear()
	Context() ContextID

	// native returns the backend image: *image.RGBA or *ebiten.Image.
	native() any
	// view returns a target over the top-left w x h pixels placed at origin.
	view(w, h int, origin image.Point) RenderTarget
	dispose()
}

// --- Rasterizer targets ---

// canvasTarget is a zero-origin RGBA buffer.
type canvasTarget struct {
	img    *image.RGBA
	origin image.Point
	ctx    ContextID
}

func newCanvasTarget(ctx ContextID, w, h int) *canvasTarget {
	return &canvasTarget{img: image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1))), ctx: ctx}
}

func (t *canvasTarget) Bounds() image.Rectangle {
	return image.Rectangle{Min: t.origin, Max: t.origin.Add(t.img.Rect.Size())}
}

func (t *canvasTarget) Clear() {
	b := t.img.Rect
	rowLen := b.Dx() * 4
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := t.img.PixOffset(b.Min.X, y)
		clear(t.img.Pix[off : off+rowLen])
	}
}

func (t *canvasTarget) Context() ContextID { return t.ctx }
func (t *canvasTarget) native() any        { return t.img }

func (t *canvasTarget) view(w, h int, origin image.Point) RenderTarget {
	sub := t.img.SubImage(image.Rect(0, 0, w, h)).(*image.RGBA)
	return &canvasTarget{img: sub, origin: origin, ctx: t.ctx}
}

func (t *canvasTarget) dispose() {
	t.img = image.NewRGBA(image.Rectangle{})
}

// --- GPU targets ---

// glTarget wraps an ebiten image. Sub-views share the parent's pixels.
type glTarget struct {
	img    *ebiten.Image
	origin image.Point
	ctx    ContextID
}

func newGLTarget(ctx ContextID, w, h int) *glTarget {
	img := ebiten.NewImageWithOptions(
		image.Rect(0, 0, max(w, 1), max(h, 1)),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
	return &glTarget{img: img, ctx: ctx}
}

func (t *glTarget) Bounds() image.Rectangle {
	return image.Rectangle{Min: t.origin, Max: t.origin.Add(t.img.Bounds().Size())}
}

func (t *glTarget) Clear()             { t.img.Clear() }
func (t *glTarget) Context() ContextID { return t.ctx }
func (t *glTarget) native() any        { return t.img }

func (t *glTarget) view(w, h int, origin image.Point) RenderTarget {
	sub := t.img.SubImage(image.Rect(0, 0, w, h)).(*ebiten.Image)
	return &glTarget{img: sub, origin: origin, ctx: t.ctx}
}

func (t *glTarget) dispose() {
	t.img.Deallocate()
}

// --- Scratch target pool ---

// PoolStats counts scratch render target traffic through a pool.
type PoolStats struct {
	Acquired    int // total Acquire calls
	Released    int // total successful Release calls
	Allocated   int // backing targets created
	Outstanding int // acquired and not yet released
}

// targetPool manages reusable backing targets keyed by power-of-two
// dimensions. Acquire hands out views sized exactly to the request.
type targetPool struct {
	alloc       func(w, h int) RenderTarget
	buckets     map[uint64][]RenderTarget
	outstanding map[RenderTarget]RenderTarget // view -> backing
	stats       PoolStats
}

func newTargetPool(alloc func(w, h int) RenderTarget) *targetPool {
	return &targetPool{
		alloc:       alloc,
		buckets:     make(map[uint64][]RenderTarget),
		outstanding: make(map[RenderTarget]RenderTarget),
	}
}

// poolKey packs power-of-two width and height into a single uint64.
func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// Acquire returns a cleared w x h target placed at origin. The backing
// target is rounded up to the next power of two in each dimension.
func (p *targetPool) Acquire(w, h int, origin image.Point) RenderTarget {
	w, h = max(w, 1), max(h, 1)
	pw := nextPowerOfTwo(w)
	ph := nextPowerOfTwo(h)
	key := poolKey(pw, ph)

	var backing RenderTarget
	if stack := p.buckets[key]; len(stack) > 0 {
		backing = stack[len(stack)-1]
		stack[len(stack)-1] = nil
		p.buckets[key] = stack[:len(stack)-1]
	} else {
		backing = p.alloc(pw, ph)
		p.stats.Allocated++
	}

	v := backing.view(w, h, origin)
	v.Clear()
	p.outstanding[v] = backing
	p.stats.Acquired++
	p.stats.Outstanding++
	return v
}

// Release returns a target obtained from Acquire. Releasing the same target
// twice, or one the pool never issued, is an error.
func (p *targetPool) Release(t RenderTarget) error {
	backing, ok := p.outstanding[t]
	if !ok {
		return fmt.Errorf("darkroom: release %v: %w", t.Bounds(), ErrPoolDoubleRelease)
	}
	delete(p.outstanding, t)
	b := backing.Bounds()
	key := poolKey(b.Dx(), b.Dy())
	p.buckets[key] = append(p.buckets[key], backing)
	p.stats.Released++
	p.stats.Outstanding--
	return nil
}

// Stats returns a snapshot of the pool counters.
func (p *targetPool) Stats() PoolStats {
	return p.stats
}

// Dispose frees every pooled backing target. Outstanding targets are freed
// too; using them afterwards is undefined.
func (p *targetPool) Dispose() {
	for key, stack := range p.buckets {
		for _, t := range stack {
			t.dispose()
		}
		delete(p.buckets, key)
	}
	for v, backing := range p.outstanding {
		backing.dispose()
		delete(p.outstanding, v)
	}
	p.stats.Outstanding = 0
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}
