package darkroom

import (
	"context"
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
)

// Host runs an Editor inside an ebiten game loop. It implements ebiten.Game.
//
// The GPU backend can only be created once the loop is running, so the
// editor is built lazily by Setup on the first Update.
type Host struct {
	// Setup builds the editor. It is called once, from the first Update.
	Setup func() (*Editor, error)
	// OnUpdate, if set, runs every tick after the zoom advanced and before
	// the editor renders.
	OnUpdate func(e *Editor) error
	// Script, if set, is stepped once per tick.
	Script *ScriptRunner
	// ExitWhenDone ends the loop once Script has finished.
	ExitWhenDone bool
	// Width and Height fix the logical screen size. Zero follows the window.
	Width, Height int
	// ShowStats draws FPS and render counters over the preview.
	ShowStats bool

	editor *Editor
	ctx    context.Context
	stats  statsOverlay
}

// Editor returns the hosted editor, or nil before the first Update.
func (h *Host) Editor() *Editor { return h.editor }

// Update advances the editor and renders whatever changed.
func (h *Host) Update() error {
	if h.editor == nil {
		if h.Setup == nil {
			return errors.New("darkroom: host has no Setup func")
		}
		MarkGPUReady()
		e, err := h.Setup()
		if err != nil {
			return err
		}
		h.editor = e
		h.ctx = context.Background()
	}
	e := h.editor
	dt := 1.0 / float64(ebiten.TPS())
	e.Update(float32(dt))

	if h.Script != nil {
		if err := h.Script.step(h.ctx, e); err != nil {
			return err
		}
		if h.ExitWhenDone && h.Script.Done() {
			return ebiten.Termination
		}
	}
	if h.OnUpdate != nil {
		if err := h.OnUpdate(e); err != nil {
			return err
		}
	}
	if err := e.Render(h.ctx); err != nil {
		return err
	}
	if h.ShowStats {
		h.stats.update(dt, e)
	}
	return nil
}

// Draw blits the editor's last frame onto screen.
func (h *Host) Draw(screen *ebiten.Image) {
	if h.editor == nil {
		return
	}
	if err := h.editor.Draw(screen); err != nil {
		h.editor.log.Error("darkroom: draw", "err", err)
	}
	if h.ShowStats {
		h.stats.draw(screen)
	}
}

// Layout follows the window size unless Width and Height are set.
func (h *Host) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, hh := outsideWidth, outsideHeight
	if h.Width > 0 && h.Height > 0 {
		w, hh = h.Width, h.Height
	}
	if h.editor != nil {
		h.editor.Resize(w, hh)
	}
	return w, hh
}

// Draw copies the default target to screen. The GPU backend draws its image
// directly; rasterizer pixels are uploaded into a reused ebiten image first.
func (e *Editor) Draw(screen *ebiten.Image) error {
	if gl, ok := e.renderer.(*GLRenderer); ok {
		if gl.State() == ContextActive {
			screen.DrawImage(gl.Screen(), nil)
		}
		return nil
	}
	px, err := e.renderer.ReadPixels(nil)
	if err != nil {
		return err
	}
	b := px.Bounds()
	if e.frame == nil || e.frame.Bounds().Size() != b.Size() {
		if e.frame != nil {
			e.frame.Deallocate()
		}
		e.frame = ebiten.NewImage(b.Dx(), b.Dy())
	}
	e.frame.WritePixels(px.Pix)
	screen.DrawImage(e.frame, nil)
	return nil
}

// RunHost opens a window and runs h until it is closed or returns an error.
func RunHost(title string, width, height int, h *Host) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	err := ebiten.RunGame(h)
	h.stats.dispose()
	if h.editor != nil {
		h.editor.Dispose()
	}
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}
