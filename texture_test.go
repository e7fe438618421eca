package darkroom

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"
	"time"
)

func TestTextureUVsNormalized(t *testing.T) {
	bt := NewBaseTexture(solidImage(200, 100, opaqueRed))
	tex := NewTextureWithFrame(bt, NewRectangle(50, 25, 100, 50))
	uv := tex.UVs()
	want := TextureUVs{
		X0: 0.25, Y0: 0.25,
		X1: 0.75, Y1: 0.25,
		X2: 0.75, Y2: 0.75,
		X3: 0.25, Y3: 0.75,
	}
	if uv != want {
		t.Errorf("UVs = %+v, want %+v", uv, want)
	}
}

func TestTextureUVsFullFrame(t *testing.T) {
	tex := NewTexture(NewBaseTexture(solidImage(7, 3, opaqueRed)))
	uv := tex.UVs()
	if uv.X0 != 0 || uv.Y0 != 0 || uv.X2 != 1 || uv.Y2 != 1 {
		t.Errorf("full frame UVs = %+v, want unit square", uv)
	}
}

func TestTextureUVsCached(t *testing.T) {
	tex := NewTexture(NewBaseTexture(solidImage(10, 10, opaqueRed)))
	tex.UVs()
	tex.UVs()
	if tex.uvBuilds != 1 {
		t.Errorf("uvBuilds = %d, want 1", tex.uvBuilds)
	}
	tex.SetFrame(NewRectangle(0, 0, 5, 5))
	if uv := tex.UVs(); uv.X1 != 0.5 {
		t.Errorf("X1 after SetFrame = %v, want 0.5", uv.X1)
	}
	if tex.uvBuilds != 2 {
		t.Errorf("uvBuilds = %d, want 2", tex.uvBuilds)
	}
}

func TestTextureUVsTrackRenderTextureResize(t *testing.T) {
	rt := NewRenderTexture(10, 10)
	tex := NewTextureWithFrame(rt.base, NewRectangle(0, 0, 5, 5))
	if uv := tex.UVs(); uv.X1 != 0.5 {
		t.Fatalf("X1 = %v, want 0.5", uv.X1)
	}
	rt.Resize(20, 20)
	if uv := tex.UVs(); uv.X1 != 0.25 {
		t.Errorf("X1 after resize = %v, want 0.25", uv.X1)
	}
}

func TestNewTextureFromRejectsNonBase(t *testing.T) {
	tests := []any{nil, "photo.png", 42, (*BaseTexture)(nil)}
	for _, src := range tests {
		if _, err := NewTextureFrom(src); !errors.Is(err, ErrNotBaseTexture) {
			t.Errorf("NewTextureFrom(%#v) = %v, want ErrNotBaseTexture", src, err)
		}
	}
	bt := NewBaseTexture(solidImage(1, 1, opaqueRed))
	tex, err := NewTextureFrom(bt)
	if err != nil || tex.BaseTexture() != bt {
		t.Errorf("NewTextureFrom(base) = %v, %v", tex, err)
	}
}

func TestSpriteWithoutTextureFails(t *testing.T) {
	r := NewCanvasRenderer(RendererOptions{Width: 4, Height: 4})
	defer r.Dispose()
	err := r.Render(NewSprite("empty", nil))
	if !errors.Is(err, ErrNoTexture) {
		t.Errorf("Render(empty sprite) = %v, want ErrNoTexture", err)
	}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(w, h, opaqueBlue)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadBaseTextureAsync(t *testing.T) {
	bt := LoadBaseTexture(bytes.NewReader(encodePNG(t, 6, 4)))
	var fired int
	bt.OnLoaded(func(b *BaseTexture, err error) {
		if err != nil {
			t.Errorf("OnLoaded err = %v", err)
		}
		fired++
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bt.WaitLoaded(ctx); err != nil {
		t.Fatalf("WaitLoaded: %v", err)
	}
	if fired != 1 {
		t.Errorf("OnLoaded fired %d times, want 1", fired)
	}
	if !bt.IsLoaded() || bt.Width() != 6 || bt.Height() != 4 {
		t.Errorf("loaded %v size %dx%d, want true 6x4", bt.IsLoaded(), bt.Width(), bt.Height())
	}

	// Late subscribers run immediately.
	bt.OnLoaded(func(*BaseTexture, error) { fired++ })
	if fired != 2 {
		t.Errorf("late OnLoaded fired = %d, want 2", fired)
	}
}

func TestLoadBaseTextureNotImage(t *testing.T) {
	bt := LoadBaseTexture(bytes.NewReader([]byte("definitely not pixels")))
	err := bt.WaitLoaded(context.Background())
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("WaitLoaded = %v, want ErrNotImage", err)
	}
	if bt.IsLoaded() {
		t.Error("IsLoaded should be false after a failed decode")
	}
}

func TestDecodeImage(t *testing.T) {
	img, err := DecodeImage(encodePNG(t, 3, 2))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 || b.Min.X != 0 {
		t.Errorf("bounds = %v, want zero-origin 3x2", b)
	}
	if got := img.RGBAAt(2, 1); got != opaqueBlue {
		t.Errorf("pixel = %v, want %v", got, opaqueBlue)
	}
}

func TestBaseTextureHandlesPerContext(t *testing.T) {
	bt := NewBaseTexture(solidImage(2, 2, opaqueRed))
	a := NewCanvasRenderer(RendererOptions{Width: 2, Height: 2})
	b := NewCanvasRenderer(RendererOptions{Width: 2, Height: 2})
	defer a.Dispose()
	defer b.Dispose()

	if a.ID() == b.ID() {
		t.Fatal("context ids must be unique")
	}
	if _, err := a.TextureHandle(bt); err != nil {
		t.Fatal(err)
	}
	if !bt.HasHandle(a.ID()) || bt.HasHandle(b.ID()) {
		t.Error("handle should exist for a only")
	}
	bt.ReleaseContext(a.ID())
	if bt.HasHandle(a.ID()) {
		t.Error("handle should be gone after ReleaseContext")
	}
}
