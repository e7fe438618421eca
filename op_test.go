package darkroom

import (
	"context"
	"errors"
	"image"
	"image/color"
	"slices"
	"strings"
	"testing"
)

func nrgbaAt(img *image.NRGBA, x, y int) color.RGBA {
	c := img.NRGBAAt(x, y)
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// twoPixel returns a 2x1 image: red on the left, blue on the right.
func twoPixel() *image.RGBA {
	img := solidImage(2, 1, opaqueRed)
	img.SetRGBA(1, 0, opaqueBlue)
	return img
}

// --- Scenarios ---

func TestCropOutputSize(t *testing.T) {
	src := patternImage(100, 100)
	e := newTestEditor(t, src)
	mustCreate(t, e, "crop", map[string]any{"start": []any{0.1, 0.1}, "end": []any{0.9, 0.9}})

	res := mustExport(t, e)
	if res.Width != 80 || res.Height != 80 {
		t.Fatalf("export = %dx%d, want 80x80", res.Width, res.Height)
	}
	if b := res.Image.Bounds(); b.Dx() != 80 || b.Dy() != 80 {
		t.Errorf("image bounds = %v, want 80x80", b)
	}
	for _, p := range []image.Point{{0, 0}, {79, 79}, {40, 13}} {
		if got, want := nrgbaAt(res.Image, p.X, p.Y), src.RGBAAt(p.X+10, p.Y+10); got != want {
			t.Errorf("pixel %v = %v, want %v", p, got, want)
		}
	}
}

func TestOrientationSwapsDimensions(t *testing.T) {
	e := newTestEditor(t, patternImage(60, 40))
	mustCreate(t, e, "orientation", map[string]any{"rotation": 90})
	res := mustExport(t, e)
	if res.Width != 40 || res.Height != 60 {
		t.Errorf("export = %dx%d, want 40x60", res.Width, res.Height)
	}
}

func TestIdentityAdjustmentsLeavePixels(t *testing.T) {
	src := patternImage(31, 17)
	e := newTestEditor(t, src)
	op := mustCreate(t, e, "adjustments", map[string]any{"brightness": 0, "saturation": 1, "contrast": 1})

	res := mustExport(t, e)
	if !slices.Equal(res.Image.Pix, src.Pix) {
		t.Error("identity adjustments changed pixel data")
	}
	if op.base().output != nil {
		t.Error("identity adjustments should not allocate an output")
	}
}

func TestCreateUnknownOperation(t *testing.T) {
	e := newTestEditor(t, solidImage(4, 4, opaqueRed))
	_, err := e.CreateOperation("does-not-exist", nil)
	var ue *UnknownOperationError
	if !errors.As(err, &ue) || ue.Identifier != "does-not-exist" {
		t.Fatalf("err = %v, want *UnknownOperationError", err)
	}
	if !strings.Contains(err.Error(), "does-not-exist") {
		t.Errorf("error %q should name the identifier", err)
	}
	if len(e.Operations()) != 0 {
		t.Error("failed create should not touch the stack")
	}
}

// --- Pixels ---

func TestOrientationPixels(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]any
		w, h    int
		want    []color.RGBA // row-major
	}{
		{"rotate 90", map[string]any{"rotation": 90}, 1, 2, []color.RGBA{opaqueRed, opaqueBlue}},
		{"rotate 180", map[string]any{"rotation": 180}, 2, 1, []color.RGBA{opaqueBlue, opaqueRed}},
		{"rotate 270", map[string]any{"rotation": 270}, 1, 2, []color.RGBA{opaqueBlue, opaqueRed}},
		{"flip horizontally", map[string]any{"flipHorizontally": true}, 2, 1, []color.RGBA{opaqueBlue, opaqueRed}},
		{"flip vertically", map[string]any{"flipVertically": true}, 2, 1, []color.RGBA{opaqueRed, opaqueBlue}},
		{"rotate 90 then flip", map[string]any{"rotation": 90, "flipVertically": true}, 1, 2, []color.RGBA{opaqueBlue, opaqueRed}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEditor(t, twoPixel())
			mustCreate(t, e, "orientation", tt.options)
			res := mustExport(t, e)
			if res.Width != tt.w || res.Height != tt.h {
				t.Fatalf("size = %dx%d, want %dx%d", res.Width, res.Height, tt.w, tt.h)
			}
			for i, want := range tt.want {
				x, y := i%tt.w, i/tt.w
				if got := nrgbaAt(res.Image, x, y); got != want {
					t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
				}
			}
		})
	}
}

func TestOrientationRejectsOddAngles(t *testing.T) {
	if _, err := NewOrientationOperation(map[string]any{"rotation": 45}); err == nil {
		t.Error("rotation 45 should be rejected")
	}
}

func TestBorderPixels(t *testing.T) {
	e := newTestEditor(t, solidImage(10, 10, opaqueRed))
	mustCreate(t, e, "border", map[string]any{"color": "#000000", "thickness": 0.1})
	res := mustExport(t, e)
	black := color.RGBA{A: 255}
	for _, p := range []image.Point{{0, 0}, {9, 5}, {5, 9}, {0, 9}} {
		if got := nrgbaAt(res.Image, p.X, p.Y); got != black {
			t.Errorf("edge pixel %v = %v, want black", p, got)
		}
	}
	if got := nrgbaAt(res.Image, 5, 5); got != opaqueRed {
		t.Errorf("center pixel = %v, want red", got)
	}
}

func TestFiltersPresetGrayscale(t *testing.T) {
	e := newTestEditor(t, solidImage(4, 4, color.RGBA{R: 200, G: 50, B: 10, A: 255}))
	mustCreate(t, e, "filters", map[string]any{"filter": "grayscale"})
	res := mustExport(t, e)
	got := nrgbaAt(res.Image, 1, 1)
	if got.R != got.G || got.G != got.B {
		t.Errorf("grayscale pixel = %v, want equal channels", got)
	}
}

func TestFiltersIntensityZeroIsIdentity(t *testing.T) {
	op, err := NewFiltersOperation(map[string]any{"filter": "sepia", "intensity": 0})
	if err != nil {
		t.Fatal(err)
	}
	m, err := op.Matrix()
	if err != nil || !m.IsIdentity() {
		t.Errorf("Matrix = %v, %v, want identity", m, err)
	}
	if _, err := NewFiltersOperation(map[string]any{"filter": "nope"}); err == nil {
		t.Error("unknown preset name should be rejected")
	}
}

func TestSingleAdjustmentOperations(t *testing.T) {
	tests := []struct {
		identifier string
		options    map[string]any
	}{
		{"brightness", map[string]any{"brightness": 0.5}},
		{"contrast", map[string]any{"contrast": 1.5}},
		{"saturation", map[string]any{"saturation": 0}},
	}
	src := color.RGBA{R: 100, G: 150, B: 50, A: 255}
	for _, tt := range tests {
		e := newTestEditor(t, solidImage(3, 3, src))
		mustCreate(t, e, tt.identifier, tt.options)
		res := mustExport(t, e)
		if got := nrgbaAt(res.Image, 1, 1); got == src {
			t.Errorf("%s left pixel unchanged", tt.identifier)
		}
	}
}

func TestFocusGaussianUniform(t *testing.T) {
	c := color.RGBA{R: 90, G: 120, B: 30, A: 255}
	e := newTestEditor(t, solidImage(16, 16, c))
	mustCreate(t, e, "focus", map[string]any{"type": "gaussian", "blurRadius": 3})
	res := mustExport(t, e)
	if got := nrgbaAt(res.Image, 8, 8); !withinTolerance(got, c, 2) {
		t.Errorf("blurred uniform pixel = %v, want ~%v", got, c)
	}
}

func TestFocusNonePassesThrough(t *testing.T) {
	e := newTestEditor(t, solidImage(4, 4, opaqueRed))
	op := mustCreate(t, e, "focus", nil)
	if err := e.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	if op.base().output != nil {
		t.Error("focus type none should not render")
	}
}

func TestFocusRadialKeepsCenterSharp(t *testing.T) {
	src := patternImage(32, 32)
	e := newTestEditor(t, src)
	mustCreate(t, e, "focus", map[string]any{"type": "radial", "size": 0.3, "gradientSize": 0.1, "blurRadius": 8})
	res := mustExport(t, e)
	if got, want := nrgbaAt(res.Image, 16, 16), src.RGBAAt(16, 16); !withinTolerance(got, want, 2) {
		t.Errorf("center pixel = %v, want ~%v", got, want)
	}
}

func TestWatermarkBlends(t *testing.T) {
	e := newTestEditor(t, solidImage(10, 10, opaqueRed))
	mustCreate(t, e, "watermark", map[string]any{
		"texture":  NewBaseTexture(solidImage(2, 2, opaqueBlue)),
		"position": []any{0.9, 0.9},
		"size":     0.2,
		"alpha":    0.5,
	})
	res := mustExport(t, e)
	want := color.RGBA{R: 128, B: 128, A: 255}
	if got := nrgbaAt(res.Image, 8, 8); !withinTolerance(got, want, 2) {
		t.Errorf("watermark pixel = %v, want ~%v", got, want)
	}
	if got := nrgbaAt(res.Image, 2, 2); got != opaqueRed {
		t.Errorf("unmarked pixel = %v, want red", got)
	}
}

func TestFrameDrawsEdges(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"scaled texture", 10},
		{"same size texture", 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEditor(t, solidImage(20, 20, opaqueRed))
			mustCreate(t, e, "frame", map[string]any{
				"texture":   solidImage(tt.size, tt.size, opaqueBlue),
				"thickness": 0.1,
			})
			res := mustExport(t, e)
			edges := []struct {
				name string
				x, y int
			}{
				{"top", 10, 0},
				{"bottom", 10, 19},
				{"left", 0, 10},
				{"right", 19, 10},
			}
			for _, edge := range edges {
				if got := nrgbaAt(res.Image, edge.x, edge.y); got.B < 128 || got.R > 128 {
					t.Errorf("%s edge pixel = %v, want blue", edge.name, got)
				}
			}
			if got := nrgbaAt(res.Image, 10, 10); got != opaqueRed {
				t.Errorf("center pixel = %v, want red", got)
			}
		})
	}
}

func TestSpritesText(t *testing.T) {
	e := newTestEditor(t, solidImage(64, 32, opaqueRed))
	op := mustCreate(t, e, "sprites", map[string]any{"sprites": []any{
		map[string]any{"type": "text", "text": "Hi", "fontSize": 20, "color": "#ffffff"},
	}})
	res := mustExport(t, e)
	changed := 0
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			if nrgbaAt(res.Image, x, y) != opaqueRed {
				changed++
			}
		}
	}
	if changed == 0 {
		t.Error("text label left the image unchanged")
	}
	sp := op.(*SpritesOperation)
	if len(sp.texts) != 1 {
		t.Errorf("cached labels = %d, want 1", len(sp.texts))
	}
}

func TestSpritesStickerNeedsTexture(t *testing.T) {
	_, err := NewSpritesOperation(map[string]any{"sprites": []any{map[string]any{"type": "sticker"}}})
	if err == nil {
		t.Error("sticker without texture should be rejected")
	}
}

// --- Corrections ---

func newGeometryStack(t *testing.T, ops ...Operation) *OperationsStack {
	t.Helper()
	s := NewOperationsStack(nil)
	for _, op := range ops {
		s.Push(op)
	}
	return s
}

func TestCropFollowsRotation(t *testing.T) {
	orient, _ := NewOrientationOperation(nil)
	crop, err := NewCropOperation(map[string]any{"start": []any{0.5, 0.5}, "end": []any{1, 1}})
	if err != nil {
		t.Fatal(err)
	}
	newGeometryStack(t, orient, crop)

	if err := orient.SetOption("rotation", 90); err != nil {
		t.Fatal(err)
	}
	assertVec(t, "start", crop.Start(), Vector2{0, 0.5})
	assertVec(t, "end", crop.End(), Vector2{0.5, 1})

	// Turning back restores the original region.
	orient.SetOption("rotation", 0)
	assertVec(t, "start", crop.Start(), Vector2{0.5, 0.5})
	assertVec(t, "end", crop.End(), Vector2{1, 1})
}

func TestCropFollowsFlipAndDisable(t *testing.T) {
	orient, _ := NewOrientationOperation(nil)
	crop, _ := NewCropOperation(map[string]any{"start": []any{0, 0}, "end": []any{0.25, 0.5}})
	newGeometryStack(t, orient, crop)

	orient.SetOption("flipHorizontally", true)
	assertVec(t, "start", crop.Start(), Vector2{0.75, 0})
	assertVec(t, "end", crop.End(), Vector2{1, 0.5})

	orient.SetEnabled(false)
	assertVec(t, "start after disable", crop.Start(), Vector2{0, 0})
	assertVec(t, "end after disable", crop.End(), Vector2{0.25, 0.5})
}

func TestCropIgnoresLaterOrientation(t *testing.T) {
	crop, _ := NewCropOperation(map[string]any{"start": []any{0.5, 0.5}, "end": []any{1, 1}})
	orient, _ := NewOrientationOperation(nil)
	newGeometryStack(t, crop, orient)
	orient.SetOption("rotation", 90)
	assertVec(t, "start", crop.Start(), Vector2{0.5, 0.5})
}

func TestSpritesFollowRotation(t *testing.T) {
	orient, _ := NewOrientationOperation(nil)
	sprites, err := NewSpritesOperation(map[string]any{"sprites": []any{
		map[string]any{"texture": solidImage(2, 2, opaqueRed), "position": []any{0.25, 0.25}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	newGeometryStack(t, orient, sprites)

	orient.SetOption("rotation", 90)
	item := sprites.Items()[0]
	assertVec(t, "position", item.Vector2("position"), Vector2{0.75, 0.25})
	assertNear(t, "rotation", item.Number("rotation"), 90)
	if item.Bool("flipVertically") {
		t.Error("a turn should not mirror the sprite")
	}
}

func TestSpritesFollowFlip(t *testing.T) {
	orient, _ := NewOrientationOperation(nil)
	sprites, _ := NewSpritesOperation(map[string]any{"sprites": []any{
		map[string]any{"texture": solidImage(2, 2, opaqueRed), "position": []any{0.25, 0.5}},
	}})
	newGeometryStack(t, orient, sprites)

	orient.SetOption("flipHorizontally", true)
	item := sprites.Items()[0]
	assertVec(t, "position", item.Vector2("position"), Vector2{0.75, 0.5})
	assertNear(t, "rotation", item.Number("rotation"), 180)
	if !item.Bool("flipVertically") {
		t.Error("a mirror should flip the sprite")
	}
}

func TestSpritesFollowCrop(t *testing.T) {
	crop, _ := NewCropOperation(nil)
	sprites, _ := NewSpritesOperation(map[string]any{"sprites": []any{
		map[string]any{"texture": solidImage(2, 2, opaqueRed), "position": []any{0.75, 0.75}},
	}})
	newGeometryStack(t, crop, sprites)

	crop.Set(map[string]any{"start": []any{0.5, 0.5}, "end": []any{1, 1}})
	assertVec(t, "position", sprites.Items()[0].Vector2("position"), Vector2{0.5, 0.5})
}

func TestFocusFollowsRotation(t *testing.T) {
	orient, _ := NewOrientationOperation(nil)
	focus, _ := NewFocusOperation(map[string]any{"type": "radial", "position": []any{0.25, 0.25}})
	newGeometryStack(t, orient, focus)
	orient.SetOption("rotation", 90)
	assertVec(t, "position", focus.Options().Vector2("position"), Vector2{0.75, 0.25})
}

func TestWatermarkIgnoresGeometry(t *testing.T) {
	orient, _ := NewOrientationOperation(nil)
	mark, _ := NewWatermarkOperation(map[string]any{"texture": solidImage(2, 2, opaqueBlue), "position": []any{0.1, 0.1}})
	newGeometryStack(t, orient, mark)
	orient.SetOption("rotation", 90)
	assertVec(t, "position", mark.Options().Vector2("position"), Vector2{0.1, 0.1})
}

func TestCorrectionDirtiesDownstream(t *testing.T) {
	r := NewCanvasRenderer(RendererOptions{Width: 4, Height: 4})
	defer r.Dispose()
	orient, _ := NewOrientationOperation(nil)
	crop, _ := NewCropOperation(map[string]any{"start": []any{0.5, 0.5}, "end": []any{1, 1}})
	s := newGeometryStack(t, orient, crop)
	in := NewTexture(NewBaseTexture(patternImage(4, 4)))
	if err := s.Render(context.Background(), r, in, NewSprite("out", nil)); err != nil {
		t.Fatal(err)
	}
	orient.SetOption("rotation", 90)
	if !crop.IsDirtyFor(r.ID()) {
		t.Error("corrected crop should be dirty")
	}
}

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	want := []string{
		"adjustments", "border", "brightness", "contrast", "crop", "filters",
		"focus", "frame", "orientation", "saturation", "sprites", "watermark",
	}
	if got := reg.Identifiers(); !slices.Equal(got, want) {
		t.Errorf("Identifiers = %v, want %v", got, want)
	}
	for _, id := range want {
		op, err := reg.Create(id, nil)
		if err != nil {
			t.Errorf("Create(%q): %v", id, err)
			continue
		}
		if op.Identifier() != id {
			t.Errorf("Create(%q).Identifier() = %q", id, op.Identifier())
		}
	}
}

func TestRegistryCreateWrapsOptionErrors(t *testing.T) {
	_, err := DefaultRegistry().Create("border", map[string]any{"thickness": 2})
	var oe *OptionError
	if !errors.As(err, &oe) || oe.Option != "thickness" {
		t.Errorf("err = %v, want *OptionError for thickness", err)
	}
}
