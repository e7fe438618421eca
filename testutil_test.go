package darkroom

import (
	"context"
	"image"
	"image/color"
	"testing"
)

var (
	opaqueRed  = color.RGBA{R: 255, A: 255}
	opaqueBlue = color.RGBA{B: 255, A: 255}
)

// solidImage returns a w x h image filled with c.
func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// patternImage returns an opaque image where every pixel differs from its
// neighbours.
func patternImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: uint8((x*7 + y*13) % 256),
				A: 255,
			})
		}
	}
	return img
}

// newTestEditor returns an editor on the rasterizer backend.
func newTestEditor(t *testing.T, img image.Image) *Editor {
	t.Helper()
	e, err := NewEditor(NewBaseTexture(img), EditorOptions{Backend: BackendCanvas})
	if err != nil {
		t.Fatalf("NewEditor: %v", err)
	}
	t.Cleanup(e.Dispose)
	return e
}

func mustCreate(t *testing.T, e *Editor, identifier string, options map[string]any) Operation {
	t.Helper()
	op, err := e.CreateOperation(identifier, options)
	if err != nil {
		t.Fatalf("CreateOperation(%q): %v", identifier, err)
	}
	return op
}

func mustExport(t *testing.T, e *Editor) *ExportResult {
	t.Helper()
	res, err := e.Export(context.Background(), ExportOptions{RenderType: RenderTypeImage, Format: FormatPNG})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	return res
}

// withinTolerance reports whether every channel of a and b differs by at
// most tol.
func withinTolerance(a, b color.RGBA, tol int) bool {
	d := func(x, y uint8) int {
		if x > y {
			return int(x - y)
		}
		return int(y - x)
	}
	return d(a.R, b.R) <= tol && d(a.G, b.G) <= tol && d(a.B, b.B) <= tol && d(a.A, b.A) <= tol
}

// countingOp records render invocations. With write set it copies its input
// into its output; otherwise it passes the input through.
type countingOp struct {
	OperationBase
	write bool
	fail  error
	seen  []*Texture
	// befores records the before flag of every sibling update received.
	befores []bool
}

func newCountingOp(t *testing.T, name string, write bool) *countingOp {
	t.Helper()
	op := &countingOp{write: write}
	if err := op.init(op, name, Schema{NumberOption("value", 0, 0, 100)}, nil); err != nil {
		t.Fatalf("init %s: %v", name, err)
	}
	return op
}

func (op *countingOp) render(_ context.Context, r Renderer, in *Texture) (bool, error) {
	op.seen = append(op.seen, in)
	if op.fail != nil {
		return false, op.fail
	}
	if !op.write {
		return false, nil
	}
	w, h := textureSize(in)
	op.resetScene(in)
	return true, op.renderScene(r, w, h)
}

func (op *countingOp) operationUpdated(_ OperationUpdate, before bool) {
	op.befores = append(op.befores, before)
}
