package darkroom

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at render submission time.
type Color struct {
	R, G, B, A float64
}

var (
	// ColorWhite is opaque white.
	ColorWhite = Color{1, 1, 1, 1}
	// ColorBlack is opaque black.
	ColorBlack = Color{0, 0, 0, 1}
	// ColorTransparent is fully transparent black.
	ColorTransparent = Color{}
)

// RGBA converts c to a premultiplied color.RGBA.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A)*255 + 0.5),
		G: uint8(clamp01(c.G*c.A)*255 + 0.5),
		B: uint8(clamp01(c.B*c.A)*255 + 0.5),
		A: uint8(clamp01(c.A)*255 + 0.5),
	}
}

// premultiplied returns the premultiplied components scaled by alpha.
func (c Color) premultiplied(alpha float64) [4]float32 {
	a := clamp01(c.A * alpha)
	return [4]float32{
		float32(clamp01(c.R) * a),
		float32(clamp01(c.G) * a),
		float32(clamp01(c.B) * a),
		float32(a),
	}
}

// String formats the color as #rrggbbaa.
func (c Color) String() string {
	b := func(v float64) int { return int(clamp01(v)*255 + 0.5) }
	return fmt.Sprintf("#%02x%02x%02x%02x", b(c.R), b(c.G), b(c.B), b(c.A))
}

// ParseColor parses #rgb, #rrggbb and #rrggbbaa hex notation.
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return Color{}, fmt.Errorf("darkroom: invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("darkroom: invalid color %q: %w", s, err)
	}
	return Color{
		R: float64(v>>24&0xff) / 255,
		G: float64(v>>16&0xff) / 255,
		B: float64(v>>8&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}

// BlendMode selects a compositing operation. Each maps to an ebiten.Blend
// on the GPU backend and a draw.Op on the rasterizer.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota // source-over (standard alpha blending)
	BlendNone                    // opaque copy (skip blending)
)

// EbitenBlend returns the ebiten.Blend value corresponding to this BlendMode.
func (b BlendMode) EbitenBlend() ebiten.Blend {
	if b == BlendNone {
		return ebiten.BlendCopy
	}
	return ebiten.BlendSourceOver
}

// DrawOp returns the x/image/draw operator corresponding to this BlendMode.
func (b BlendMode) DrawOp() draw.Op {
	if b == BlendNone {
		return draw.Src
	}
	return draw.Over
}

// BackendKind identifies one of the two interchangeable renderers.
type BackendKind uint8

const (
	BackendCanvas BackendKind = iota // immediate rasterizer on in-memory pixel buffers
	BackendWebGL                     // GPU shader pipeline (ebiten)
)

// String returns the preferred-backend token for k.
func (k BackendKind) String() string {
	switch k {
	case BackendWebGL:
		return "webgl"
	default:
		return "canvas"
	}
}

// ParseBackendKind maps a preferred-backend token to a BackendKind.
// Anything other than "webgl" selects the rasterizer.
func ParseBackendKind(s string) BackendKind {
	if strings.EqualFold(strings.TrimSpace(s), "webgl") {
		return BackendWebGL
	}
	return BackendCanvas
}

// ContextID identifies a live backend context. IDs come from a process-wide
// counter and are never reused, so a disposed backend's caches can never be
// mistaken for a new one's.
type ContextID uint64

// contextIDCounter is a plain counter. Rendering happens on one goroutine.
var contextIDCounter ContextID

func nextContextID() ContextID {
	contextIDCounter++
	return contextIDCounter
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
