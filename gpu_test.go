package darkroom

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// GPU read-back only works inside a running game loop. With
// DARKROOM_GPU_TESTS=1, TestMain runs the tests on a goroutine and the game
// executes the bodies queued by onGPU from its Update.

var gpuFuncs chan func()

type gpuTestGame struct {
	code int
	done chan struct{}
}

func (g *gpuTestGame) Update() error {
	select {
	case fn := <-gpuFuncs:
		fn()
	case <-g.done:
		return ebiten.Termination
	default:
	}
	return nil
}

func (g *gpuTestGame) Draw(*ebiten.Image)         {}
func (g *gpuTestGame) Layout(int, int) (int, int) { return 64, 64 }

func TestMain(m *testing.M) {
	if os.Getenv("DARKROOM_GPU_TESTS") != "1" {
		os.Exit(m.Run())
	}
	gpuFuncs = make(chan func())
	g := &gpuTestGame{done: make(chan struct{})}
	go func() {
		g.code = m.Run()
		close(g.done)
	}()
	ebiten.SetWindowSize(64, 64)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		fmt.Fprintln(os.Stderr, "gpu test loop:", err)
		os.Exit(1)
	}
	os.Exit(g.code)
}

// onGPU runs fn inside the game loop and waits for it. fn must report
// failures with t.Error, never t.Fatal.
func onGPU(t *testing.T, fn func()) {
	t.Helper()
	if gpuFuncs == nil {
		t.Skip("set DARKROOM_GPU_TESTS=1 to run GPU tests")
	}
	done := make(chan struct{})
	gpuFuncs <- func() {
		defer close(done)
		MarkGPUReady()
		fn()
	}
	<-done
}

// parityStack builds the same edit on any backend.
func parityStack(e *Editor) error {
	steps := []struct {
		id   string
		opts map[string]any
	}{
		{"crop", map[string]any{"start": []any{0.25, 0}, "end": []any{1, 0.75}}},
		{"orientation", map[string]any{"rotation": 90, "flipHorizontally": true}},
		{"filters", map[string]any{"filter": "grayscale"}},
		{"border", map[string]any{"color": "#ff0000", "thickness": 0.1}},
	}
	for _, st := range steps {
		if _, err := e.CreateOperation(st.id, st.opts); err != nil {
			return err
		}
	}
	return nil
}

func exportWith(backend BackendKind, img image.Image) (*ExportResult, BackendKind, error) {
	e, err := NewEditor(NewBaseTexture(img), EditorOptions{Backend: backend})
	if err != nil {
		return nil, 0, err
	}
	defer e.Dispose()
	if err := parityStack(e); err != nil {
		return nil, 0, err
	}
	res, err := e.Export(context.Background(), ExportOptions{RenderType: RenderTypeImage})
	return res, e.Renderer().Kind(), err
}

func TestGPUMatchesCanvas(t *testing.T) {
	img := patternImage(32, 24)
	onGPU(t, func() {
		gpu, kind, err := exportWith(BackendWebGL, img)
		if err != nil || kind != BackendWebGL {
			t.Errorf("gpu export: kind %v, err %v", kind, err)
			return
		}
		cpu, _, err := exportWith(BackendCanvas, img)
		if err != nil {
			t.Error(err)
			return
		}
		if gpu.Image.Bounds() != cpu.Image.Bounds() {
			t.Errorf("bounds gpu %v, canvas %v", gpu.Image.Bounds(), cpu.Image.Bounds())
			return
		}
		const tol = 3
		var bad int
		for i := range gpu.Image.Pix {
			d := int(gpu.Image.Pix[i]) - int(cpu.Image.Pix[i])
			if d > tol || d < -tol {
				bad++
			}
		}
		if bad > 0 {
			t.Errorf("%d channel values differ by more than %d", bad, tol)
		}
	})
}

func TestGPUContextRestoreRerenders(t *testing.T) {
	onGPU(t, func() {
		e, err := NewEditor(NewBaseTexture(solidImage(8, 8, opaqueRed)), EditorOptions{Backend: BackendWebGL})
		if err != nil {
			t.Error(err)
			return
		}
		defer e.Dispose()
		gl, ok := e.Renderer().(*GLRenderer)
		if !ok {
			t.Error("expected the GPU backend")
			return
		}
		op, _ := e.CreateOperation("border", nil)
		if err := e.Render(context.Background()); err != nil {
			t.Error(err)
			return
		}

		var lost, restored int
		Subscribe(e.Events(), func(ContextLostEvent) { lost++ })
		Subscribe(e.Events(), func(ContextRestored) { restored++ })
		old := gl.ID()
		gl.LoseContext()
		if _, err := gl.ReadPixels(nil); !errors.Is(err, ErrContextLost) {
			t.Errorf("read while lost = %v, want ErrContextLost", err)
		}
		if err := gl.RestoreContext(); err != nil {
			t.Error(err)
			return
		}
		if lost != 1 || restored != 1 || gl.ID() == old {
			t.Errorf("lost %d restored %d, id %d -> %d", lost, restored, old, gl.ID())
		}
		if !op.IsDirtyFor(gl.ID()) {
			t.Error("operations must re-render for the new context")
		}
		res, err := e.Export(context.Background(), ExportOptions{})
		if err != nil || res.Width != 8 {
			t.Errorf("export after restore = %v, %v", res, err)
		}
	})
}

func TestGPUAbandonSwitchesToCanvas(t *testing.T) {
	onGPU(t, func() {
		e, err := NewEditor(NewBaseTexture(solidImage(6, 4, opaqueBlue)), EditorOptions{Backend: BackendWebGL})
		if err != nil {
			t.Error(err)
			return
		}
		defer e.Dispose()
		gl, ok := e.Renderer().(*GLRenderer)
		if !ok {
			t.Error("expected the GPU backend")
			return
		}
		e.CreateOperation("filters", map[string]any{"filter": "invert"})

		var changed []BackendChanged
		Subscribe(e.Events(), func(ev BackendChanged) { changed = append(changed, ev) })
		gl.LoseContext()
		gl.AbandonContext()

		if len(changed) != 1 || changed[0].To != BackendCanvas {
			t.Errorf("BackendChanged = %+v", changed)
		}
		if e.Renderer().Kind() != BackendCanvas {
			t.Errorf("renderer = %v, want canvas", e.Renderer().Kind())
		}
		res, err := e.Export(context.Background(), ExportOptions{RenderType: RenderTypeImage})
		if err != nil {
			t.Error(err)
			return
		}
		if got := res.Image.NRGBAAt(0, 0); got.R != 255 || got.G != 255 || got.B != 0 {
			t.Errorf("inverted blue = %v, want yellow", got)
		}
	})
}

func TestGPUBatchFlushRules(t *testing.T) {
	red := NewTexture(NewBaseTexture(solidImage(2, 2, opaqueRed)))
	blue := NewTexture(NewBaseTexture(solidImage(2, 2, opaqueBlue)))
	tests := []struct {
		name     string
		textures []*Texture
		max      int
		batches  int
	}{
		{"shared texture", []*Texture{red, red, red}, 0, 1},
		{"texture switch", []*Texture{red, blue, red}, 0, 3},
		{"runs", []*Texture{red, red, blue, blue}, 0, 2},
		{"batch full", []*Texture{red, red, red, red, red}, 2, 3},
	}
	onGPU(t, func() {
		for _, tt := range tests {
			r, err := NewGLRenderer(RendererOptions{Width: 16, Height: 16, MaxBatchSize: tt.max})
			if err != nil {
				t.Errorf("%s: %v", tt.name, err)
				continue
			}
			root := NewContainer("root")
			for i, tex := range tt.textures {
				s := NewSprite("s", tex)
				s.SetPosition(float64(i*2), 0)
				root.AddChild(s)
			}
			if err := r.Render(root); err != nil {
				t.Errorf("%s: %v", tt.name, err)
			}
			if st := r.Stats(); st.Batches != tt.batches || st.Sprites != len(tt.textures) {
				t.Errorf("%s: batches %d sprites %d, want %d and %d", tt.name, st.Batches, st.Sprites, tt.batches, len(tt.textures))
			}
			r.Dispose()
		}
	})
}
