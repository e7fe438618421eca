package darkroom

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Zoom is the preview scale of an editor. It can jump or animate between
// levels; animated changes advance in Update.
type Zoom struct {
	level    float64
	min, max float64
	tween    *gween.Tween
	onChange func(from, to float64)
}

// NewZoom creates a zoom at level, clamped to [lo, hi].
func NewZoom(level, lo, hi float64) *Zoom {
	if lo <= 0 {
		lo = 0.01
	}
	if hi < lo {
		hi = lo
	}
	z := &Zoom{min: lo, max: hi}
	z.level = z.clamp(level)
	return z
}

func (z *Zoom) clamp(v float64) float64 {
	return math.Min(math.Max(v, z.min), z.max)
}

// Level returns the current zoom level.
func (z *Zoom) Level() float64 { return z.level }

// Animating reports whether a ZoomTo is still running.
func (z *Zoom) Animating() bool { return z.tween != nil }

// Set jumps to level and cancels any animation.
func (z *Zoom) Set(level float64) {
	z.tween = nil
	z.apply(z.clamp(level))
}

// To animates to level over duration seconds. A non-positive duration jumps.
// A nil easing uses ease.OutQuad.
func (z *Zoom) To(level float64, duration float32, fn ease.TweenFunc) {
	level = z.clamp(level)
	if duration <= 0 {
		z.Set(level)
		return
	}
	if fn == nil {
		fn = ease.OutQuad
	}
	z.tween = gween.New(float32(z.level), float32(level), duration, fn)
}

// Update advances an animated zoom by dt seconds.
func (z *Zoom) Update(dt float32) {
	if z.tween == nil {
		return
	}
	val, done := z.tween.Update(dt)
	if done {
		z.tween = nil
	}
	z.apply(z.clamp(float64(val)))
}

// Fit returns the level that fits a w x h image inside a vw x vh viewport.
func (z *Zoom) Fit(w, h, vw, vh int) float64 {
	if w <= 0 || h <= 0 {
		return z.level
	}
	return z.clamp(math.Min(float64(vw)/float64(w), float64(vh)/float64(h)))
}

func (z *Zoom) apply(v float64) {
	if v == z.level {
		return
	}
	from := z.level
	z.level = v
	if z.onChange != nil {
		z.onChange(from, v)
	}
}
