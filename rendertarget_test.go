package darkroom

import (
	"errors"
	"image"
	"testing"
)

// --- nextPowerOfTwo ---

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		input, want int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 8},
		{127, 128},
		{128, 128},
		{129, 256},
		{1000, 1024},
	}
	for _, tt := range tests {
		if got := nextPowerOfTwo(tt.input); got != tt.want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

// --- Pool ---

func newTestPool() (*targetPool, *[]image.Point) {
	var sizes []image.Point
	pool := newTargetPool(func(w, h int) RenderTarget {
		sizes = append(sizes, image.Pt(w, h))
		return newCanvasTarget(1, w, h)
	})
	return pool, &sizes
}

func TestPoolAcquireRoundsBackingToPow2(t *testing.T) {
	pool, sizes := newTestPool()
	v := pool.Acquire(100, 50, image.Pt(3, 4))
	defer pool.Release(v)

	if len(*sizes) != 1 || (*sizes)[0] != image.Pt(128, 64) {
		t.Errorf("backing sizes = %v, want [(128,64)]", *sizes)
	}
	want := image.Rect(3, 4, 103, 54)
	if b := v.Bounds(); b != want {
		t.Errorf("view bounds = %v, want %v", b, want)
	}
}

func TestPoolReusesReleasedBacking(t *testing.T) {
	pool, sizes := newTestPool()
	a := pool.Acquire(60, 60, image.Point{})
	if err := pool.Release(a); err != nil {
		t.Fatal(err)
	}
	b := pool.Acquire(33, 50, image.Point{})
	defer pool.Release(b)

	if len(*sizes) != 1 {
		t.Errorf("allocations = %d, want 1 (64x64 bucket reused)", len(*sizes))
	}
	if st := pool.Stats(); st.Acquired != 2 || st.Released != 1 || st.Outstanding != 1 {
		t.Errorf("stats = %+v, want 2 acquired, 1 released, 1 outstanding", st)
	}
}

func TestPoolDifferentBuckets(t *testing.T) {
	pool, sizes := newTestPool()
	a := pool.Acquire(16, 16, image.Point{})
	b := pool.Acquire(16, 16, image.Point{})
	c := pool.Acquire(16, 17, image.Point{})
	for _, v := range []RenderTarget{a, b, c} {
		if err := pool.Release(v); err != nil {
			t.Fatal(err)
		}
	}
	if len(*sizes) != 3 {
		t.Errorf("allocations = %d, want 3", len(*sizes))
	}
	if st := pool.Stats(); st.Outstanding != 0 {
		t.Errorf("outstanding = %d, want 0", st.Outstanding)
	}
}

func TestPoolAcquireClears(t *testing.T) {
	pool, _ := newTestPool()
	a := pool.Acquire(4, 4, image.Point{})
	img := a.native().(*image.RGBA)
	img.SetRGBA(1, 1, opaqueRed)
	pool.Release(a)

	b := pool.Acquire(4, 4, image.Point{})
	defer pool.Release(b)
	if got := b.native().(*image.RGBA).RGBAAt(1, 1); got.A != 0 {
		t.Errorf("reacquired pixel = %v, want transparent", got)
	}
}

func TestPoolDoubleRelease(t *testing.T) {
	pool, _ := newTestPool()
	v := pool.Acquire(8, 8, image.Point{})
	if err := pool.Release(v); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	err := pool.Release(v)
	if !errors.Is(err, ErrPoolDoubleRelease) {
		t.Errorf("second Release = %v, want ErrPoolDoubleRelease", err)
	}
	if st := pool.Stats(); st.Released != 1 {
		t.Errorf("released = %d, want 1", st.Released)
	}
}

func TestPoolReleaseForeignTarget(t *testing.T) {
	pool, _ := newTestPool()
	if err := pool.Release(newCanvasTarget(1, 8, 8)); !errors.Is(err, ErrPoolDoubleRelease) {
		t.Errorf("Release(foreign) = %v, want ErrPoolDoubleRelease", err)
	}
}

// --- Canvas targets ---

func TestCanvasTargetViewSharesPixels(t *testing.T) {
	backing := newCanvasTarget(1, 8, 8)
	v := backing.view(4, 2, image.Pt(10, 20))
	v.native().(*image.RGBA).SetRGBA(0, 0, opaqueRed)
	if got := backing.img.RGBAAt(0, 0); got != opaqueRed {
		t.Errorf("backing pixel = %v, want %v", got, opaqueRed)
	}
	if got, want := v.Bounds(), image.Rect(10, 20, 14, 22); got != want {
		t.Errorf("view bounds = %v, want %v", got, want)
	}
}

func TestCanvasTargetClearOnlyView(t *testing.T) {
	backing := newCanvasTarget(1, 4, 4)
	backing.img.SetRGBA(3, 3, opaqueRed)
	v := backing.view(2, 2, image.Point{})
	v.native().(*image.RGBA).SetRGBA(1, 1, opaqueRed)
	v.Clear()
	if got := backing.img.RGBAAt(1, 1); got.A != 0 {
		t.Errorf("view pixel after Clear = %v, want transparent", got)
	}
	if got := backing.img.RGBAAt(3, 3); got != opaqueRed {
		t.Errorf("pixel outside view = %v, want %v", got, opaqueRed)
	}
}
