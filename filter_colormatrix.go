package darkroom

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/adjust"
)

// ColorMatrix is a 4x5 color transform in row-major order:
// [R_r, R_g, R_b, R_a, R_offset, G_r, ...]. Offsets are in [0, 1] units and
// the matrix works on straight (not premultiplied) color.
type ColorMatrix [20]float64

// IdentityColorMatrix returns the matrix that leaves colors unchanged.
func IdentityColorMatrix() ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// IsIdentity reports whether m leaves colors unchanged.
func (m ColorMatrix) IsIdentity() bool {
	return m == IdentityColorMatrix()
}

// Then returns the matrix applying m first and then n.
func (m ColorMatrix) Then(n ColorMatrix) ColorMatrix {
	var out ColorMatrix
	for row := 0; row < 4; row++ {
		for col := 0; col < 5; col++ {
			var v float64
			for k := 0; k < 4; k++ {
				v += n[row*5+k] * m[k*5+col]
			}
			if col == 4 {
				v += n[row*5+4]
			}
			out[row*5+col] = v
		}
	}
	return out
}

// Lerp blends from the identity toward m by t in [0, 1].
func (m ColorMatrix) Lerp(t float64) ColorMatrix {
	id := IdentityColorMatrix()
	var out ColorMatrix
	for i := range m {
		out[i] = id[i] + (m[i]-id[i])*t
	}
	return out
}

// BrightnessMatrix shifts RGB by b in [-1, 1].
func BrightnessMatrix(b float64) ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, b,
		0, 1, 0, 0, b,
		0, 0, 1, 0, b,
		0, 0, 0, 1, 0,
	}
}

// ContrastMatrix scales RGB around mid-gray. c=1 is normal, 0 is flat gray.
func ContrastMatrix(c float64) ColorMatrix {
	t := (1.0 - c) / 2.0
	return ColorMatrix{
		c, 0, 0, 0, t,
		0, c, 0, 0, t,
		0, 0, c, 0, t,
		0, 0, 0, 1, 0,
	}
}

// SaturationMatrix mixes toward luminance. s=1 is normal, 0 is grayscale.
func SaturationMatrix(s float64) ColorMatrix {
	sr := (1 - s) * 0.299
	sg := (1 - s) * 0.587
	sb := (1 - s) * 0.114
	return ColorMatrix{
		sr + s, sg, sb, 0, 0,
		sr, sg + s, sb, 0, 0,
		sr, sg, sb + s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// ExposureMatrix scales RGB by 2^e, e in [-1, 1].
func ExposureMatrix(e float64) ColorMatrix {
	k := math.Exp2(e)
	return ColorMatrix{
		k, 0, 0, 0, 0,
		0, k, 0, 0, 0,
		0, 0, k, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// colorPresets are the named looks of the "filters" operation.
var colorPresets = map[string]ColorMatrix{
	"identity":  IdentityColorMatrix(),
	"grayscale": SaturationMatrix(0),
	"sepia": {
		0.393, 0.769, 0.189, 0, 0,
		0.349, 0.686, 0.168, 0, 0,
		0.272, 0.534, 0.131, 0, 0,
		0, 0, 0, 1, 0,
	},
	"invert": {
		-1, 0, 0, 0, 1,
		0, -1, 0, 0, 1,
		0, 0, -1, 0, 1,
		0, 0, 0, 1, 0,
	},
	"vintage": SaturationMatrix(0.6).Then(ColorMatrix{
		0.9, 0.1, 0, 0, 0.05,
		0.05, 0.85, 0.05, 0, 0.03,
		0, 0.1, 0.7, 0, 0.02,
		0, 0, 0, 1, 0,
	}),
	"cold": {
		0.9, 0, 0, 0, 0,
		0, 1, 0, 0, 0.02,
		0, 0, 1.1, 0, 0.05,
		0, 0, 0, 1, 0,
	},
	"warm": {
		1.1, 0, 0, 0, 0.05,
		0, 1, 0, 0, 0.02,
		0, 0, 0.9, 0, 0,
		0, 0, 0, 1, 0,
	},
	"highContrast": ContrastMatrix(1.6).Then(SaturationMatrix(1.2)),
}

// PresetNames returns the names accepted by PresetMatrix, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(colorPresets))
	for n := range colorPresets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// PresetMatrix returns the named preset.
func PresetMatrix(name string) (ColorMatrix, error) {
	m, ok := colorPresets[name]
	if !ok {
		return ColorMatrix{}, fmt.Errorf("darkroom: unknown color preset %q", name)
	}
	return m, nil
}

// apply transforms one premultiplied pixel. It mirrors the Kage program.
func (m *ColorMatrix) apply(c color.RGBA) color.RGBA {
	a := float64(c.A) / 255
	var r, g, b float64
	if a > 0 {
		r = float64(c.R) / 255 / a
		g = float64(c.G) / 255 / a
		b = float64(c.B) / 255 / a
	}
	nr := clamp01(m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4])
	ng := clamp01(m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9])
	nb := clamp01(m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14])
	na := clamp01(m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19])
	return color.RGBA{
		R: uint8(nr*na*255 + 0.5),
		G: uint8(ng*na*255 + 0.5),
		B: uint8(nb*na*255 + 0.5),
		A: uint8(na*255 + 0.5),
	}
}

// ColorMatrixFilter applies a ColorMatrix to every pixel.
type ColorMatrixFilter struct {
	ShaderFilter
}

// NewColorMatrixFilter creates a color matrix filter initialized to the
// identity.
func NewColorMatrixFilter() *ColorMatrixFilter {
	id := IdentityColorMatrix()
	return &ColorMatrixFilter{ShaderFilter: newShaderFilter("colormatrix", "colormatrix", colorMatrixShaderSrc,
		FilterOption{Name: "matrix", Uniform: "Matrix", Type: UniformArray, Default: id[:]},
	)}
}

// Matrix returns the current matrix.
func (f *ColorMatrixFilter) Matrix() ColorMatrix {
	var m ColorMatrix
	copy(m[:], f.values["matrix"])
	return m
}

// SetMatrix replaces the matrix.
func (f *ColorMatrixFilter) SetMatrix(m ColorMatrix) {
	copy(f.values["matrix"], m[:])
}

// SetBrightness sets the matrix to a brightness shift in [-1, 1].
func (f *ColorMatrixFilter) SetBrightness(b float64) { f.SetMatrix(BrightnessMatrix(b)) }

// SetContrast sets the matrix to a contrast scale.
func (f *ColorMatrixFilter) SetContrast(c float64) { f.SetMatrix(ContrastMatrix(c)) }

// SetSaturation sets the matrix to a saturation scale.
func (f *ColorMatrixFilter) SetSaturation(s float64) { f.SetMatrix(SaturationMatrix(s)) }

// SetAdjustments sets brightness, contrast, saturation and exposure at once,
// applied in that order.
func (f *ColorMatrixFilter) SetAdjustments(brightness, contrast, saturation, exposure float64) {
	f.SetMatrix(AdjustmentsMatrix(brightness, contrast, saturation, exposure))
}

// AdjustmentsMatrix composes the four basic adjustments.
func AdjustmentsMatrix(brightness, contrast, saturation, exposure float64) ColorMatrix {
	m := IdentityColorMatrix()
	if brightness != 0 {
		m = m.Then(BrightnessMatrix(brightness))
	}
	if contrast != 1 {
		m = m.Then(ContrastMatrix(contrast))
	}
	if saturation != 1 {
		m = m.Then(SaturationMatrix(saturation))
	}
	if exposure != 0 {
		m = m.Then(ExposureMatrix(exposure))
	}
	return m
}

// IsIdentity reports whether the filter leaves pixels unchanged.
func (f *ColorMatrixFilter) IsIdentity() bool {
	return f.Matrix().IsIdentity()
}

// Apply runs the matrix from in into out.
func (f *ColorMatrixFilter) Apply(r Renderer, in, out RenderTarget, clear bool) error {
	return applyFilter(r, f, in, out, clear)
}

func (f *ColorMatrixFilter) base() *ShaderFilter { return &f.ShaderFilter }

func (f *ColorMatrixFilter) gpuUniforms(RenderTarget) map[string]any {
	return f.syncUniforms()
}

func (f *ColorMatrixFilter) applyCPU(src *image.RGBA, _ image.Point) *image.RGBA {
	m := f.Matrix()
	out := adjust.Apply(src, m.apply)
	out.Rect = out.Rect.Sub(out.Rect.Min)
	return out
}
