package darkroom

import (
	"errors"
	"image"
	"math"
)

// FilterManager tracks the stack of active render targets while filtered
// subtrees are drawn. Each renderer owns one.
//
// The bottom frame of every pass is a root frame wrapping the pass's target;
// PopFilters never removes a root frame.
type FilterManager struct {
	r      Renderer
	pool   *targetPool
	frames []filterFrame
}

type filterFrame struct {
	target  RenderTarget
	filters []Filter
	root    bool
}

func newFilterManager(r Renderer, pool *targetPool) *FilterManager {
	return &FilterManager{r: r, pool: pool}
}

// Begin pushes a root frame drawing into target.
func (fm *FilterManager) Begin(target RenderTarget) {
	fm.frames = append(fm.frames, filterFrame{target: target, root: true})
}

// End pops the root frame pushed by the matching Begin. Filter frames left
// above it are unwound and their targets returned to the pool.
func (fm *FilterManager) End() error {
	var err error
	for len(fm.frames) > 0 {
		top := fm.frames[len(fm.frames)-1]
		fm.frames = fm.frames[:len(fm.frames)-1]
		if top.root {
			return err
		}
		err = errors.Join(err, errors.New("darkroom: unbalanced filter push"), fm.pool.Release(top.target))
	}
	return errors.Join(err, errors.New("darkroom: filter manager end without begin"))
}

// Current returns the target draws should go to.
func (fm *FilterManager) Current() RenderTarget {
	if len(fm.frames) == 0 {
		return fm.r.DefaultTarget()
	}
	return fm.frames[len(fm.frames)-1].target
}

// Depth returns the number of frames, root frames included.
func (fm *FilterManager) Depth() int {
	return len(fm.frames)
}

// Stats returns the scratch pool counters.
func (fm *FilterManager) Stats() PoolStats {
	return fm.pool.Stats()
}

// PushFilters redirects drawing into a scratch target sized to obj's current
// bounds plus the filters' padding.
func (fm *FilterManager) PushFilters(obj Drawable, filters []Filter) error {
	if err := fm.r.Flush(); err != nil {
		return err
	}

	pad := 0
	for _, f := range filters {
		pad += f.Padding()
	}
	b := obj.Bounds()
	x0 := int(math.Floor(b.X)) - pad
	y0 := int(math.Floor(b.Y)) - pad
	x1 := int(math.Ceil(b.X+b.Width)) + pad
	y1 := int(math.Ceil(b.Y+b.Height)) + pad

	target := fm.pool.Acquire(x1-x0, y1-y0, image.Pt(x0, y0))
	fm.frames = append(fm.frames, filterFrame{
		target:  target,
		filters: append([]Filter(nil), filters...),
	})
	return nil
}

// PopFilters applies the top frame's filters into the frame below it. One
// filter is applied directly; a chain ping-pongs between the popped target
// and a second scratch target, and only the last filter writes into the
// destination. Both scratch targets go back to the pool.
func (fm *FilterManager) PopFilters() error {
	if len(fm.frames) == 0 || fm.frames[len(fm.frames)-1].root {
		return errors.New("darkroom: pop filters on root frame")
	}
	if err := fm.r.Flush(); err != nil {
		return err
	}

	frame := fm.frames[len(fm.frames)-1]
	fm.frames = fm.frames[:len(fm.frames)-1]
	dst := fm.Current()

	var err error
	switch len(frame.filters) {
	case 0:
		err = copyTarget(fm.r, frame.target, dst)
	case 1:
		err = frame.filters[0].Apply(fm.r, frame.target, dst, false)
	default:
		b := frame.target.Bounds()
		scratch := fm.pool.Acquire(b.Dx(), b.Dy(), b.Min)
		flip, flop := frame.target, scratch
		last := len(frame.filters) - 1
		for _, f := range frame.filters[:last] {
			if err = f.Apply(fm.r, flip, flop, true); err != nil {
				break
			}
			flip, flop = flop, flip
		}
		if err == nil {
			err = frame.filters[last].Apply(fm.r, flip, dst, false)
		}
		err = errors.Join(err, fm.pool.Release(scratch))
	}
	return errors.Join(err, fm.pool.Release(frame.target))
}

// Dispose frees every pooled target.
func (fm *FilterManager) Dispose() {
	fm.frames = nil
	fm.pool.Dispose()
}
