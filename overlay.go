package darkroom

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// statsOverlay shows FPS, TPS and the last render's counters in the top-left
// corner of the window. The text refreshes about every half second.
type statsOverlay struct {
	img   *ebiten.Image
	since float64
}

// 180x64 fits the five lines of statsText.
const overlayW, overlayH = 180, 64

func (o *statsOverlay) update(dt float64, e *Editor) {
	o.since += dt
	if o.img != nil && o.since < 0.5 {
		return
	}
	o.since = 0
	if o.img == nil {
		o.img = ebiten.NewImage(overlayW, overlayH)
	}
	rendered, cached := e.stack.LastRender()
	o.img.Clear()
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, statsText(ebiten.ActualFPS(), ebiten.ActualTPS(),
		e.renderer.Kind(), rendered, cached, e.zoom.Level()))
}

func (o *statsOverlay) draw(screen *ebiten.Image) {
	if o.img != nil {
		screen.DrawImage(o.img, nil)
	}
}

func (o *statsOverlay) dispose() {
	if o.img != nil {
		o.img.Deallocate()
		o.img = nil
	}
}

func statsText(fps, tps float64, backend BackendKind, rendered, cached int, zoom float64) string {
	return fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nBackend: %s\nOps: %d rendered, %d cached\nZoom: %.0f%%",
		fps, tps, backend, rendered, cached, zoom*100)
}
