package darkroom

import (
	"fmt"
	"image"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TextStyle controls how RenderText lays out and paints a string.
type TextStyle struct {
	Size       float64 // font size in pixels
	Color      Color
	Background Color
	// MaxWidth wraps lines at word boundaries. Zero disables wrapping.
	MaxWidth float64
}

var (
	regularOnce sync.Once
	regularFont *opentype.Font
	regularErr  error
)

func defaultFont() (*opentype.Font, error) {
	regularOnce.Do(func() {
		regularFont, regularErr = opentype.Parse(goregular.TTF)
	})
	return regularFont, regularErr
}

// RenderText rasterises s into a new BaseTexture. Text is rendered once on
// the CPU, so both backends sample identical pixels.
func RenderText(s string, style TextStyle) (*BaseTexture, error) {
	f, err := defaultFont()
	if err != nil {
		return nil, fmt.Errorf("darkroom: parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    math.Max(style.Size, 1),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("darkroom: text face: %w", err)
	}
	defer face.Close()

	lines := wrapText(face, s, style.MaxWidth)
	m := face.Metrics()
	lineH := m.Height.Ceil()
	width := 1
	for _, l := range lines {
		width = max(width, font.MeasureString(face, l).Ceil())
	}
	height := max(lineH*len(lines), 1)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if style.Background.A > 0 {
		draw.Draw(img, img.Bounds(), image.NewUniform(style.Background.RGBA()), image.Point{}, draw.Src)
	}
	d := &font.Drawer{Dst: img, Src: image.NewUniform(style.Color.RGBA()), Face: face}
	for i, l := range lines {
		d.Dot = fixed.Point26_6{X: 0, Y: fixed.I(i*lineH) + m.Ascent}
		d.DrawString(l)
	}
	return NewBaseTexture(img), nil
}

// wrapText splits s into lines no wider than maxWidth, breaking at spaces.
// Explicit newlines are kept. A single word wider than maxWidth gets its
// own line.
func wrapText(face font.Face, s string, maxWidth float64) []string {
	var out []string
	for _, para := range strings.Split(s, "\n") {
		if maxWidth <= 0 {
			out = append(out, para)
			continue
		}
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			next := line + " " + w
			if float64(font.MeasureString(face, next).Ceil()) > maxWidth {
				out = append(out, line)
				line = w
				continue
			}
			line = next
		}
		out = append(out, line)
	}
	return out
}
