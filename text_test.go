package darkroom

import (
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

func testFace(t *testing.T, size float64) font.Face {
	t.Helper()
	f, err := defaultFont()
	if err != nil {
		t.Fatal(err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { face.Close() })
	return face
}

func TestRenderTextSize(t *testing.T) {
	one, err := RenderText("hello", TextStyle{Size: 20, Color: ColorWhite})
	if err != nil {
		t.Fatal(err)
	}
	two, err := RenderText("hello\nhello", TextStyle{Size: 20, Color: ColorWhite})
	if err != nil {
		t.Fatal(err)
	}
	if one.Width() <= 1 || one.Height() <= 1 {
		t.Fatalf("text size = %dx%d", one.Width(), one.Height())
	}
	if two.Width() != one.Width() || two.Height() != 2*one.Height() {
		t.Errorf("two lines = %dx%d, want %dx%d", two.Width(), two.Height(), one.Width(), 2*one.Height())
	}
}

func TestRenderTextPaintsGlyphs(t *testing.T) {
	bt, err := RenderText("W", TextStyle{Size: 24, Color: ColorWhite})
	if err != nil {
		t.Fatal(err)
	}
	var ink, clear int
	src := bt.Source()
	for i := 3; i < len(src.Pix); i += 4 {
		if src.Pix[i] == 0 {
			clear++
		} else {
			ink++
		}
	}
	if ink == 0 || clear == 0 {
		t.Errorf("ink %d, clear %d, want both", ink, clear)
	}
}

func TestRenderTextBackground(t *testing.T) {
	bt, err := RenderText(" ", TextStyle{Size: 12, Color: ColorWhite, Background: ColorBlack})
	if err != nil {
		t.Fatal(err)
	}
	if got := bt.Source().RGBAAt(0, 0); got.A != 255 || got.R != 0 {
		t.Errorf("background pixel = %v, want opaque black", got)
	}
}

func TestWrapText(t *testing.T) {
	face := testFace(t, 16)
	word := float64(font.MeasureString(face, "alpha").Ceil())

	tests := []struct {
		name  string
		in    string
		width float64
		want  []string
	}{
		{"no wrap", "alpha beta", 0, []string{"alpha beta"}},
		{"wrap", "alpha beta gamma", word + 1, []string{"alpha", "beta", "gamma"}},
		{"newlines kept", "alpha\n\nbeta", 1000, []string{"alpha", "", "beta"}},
		{"long word", "alphabetical", 5, []string{"alphabetical"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(face, tt.in, tt.width)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("wrapText = %q, want %q", got, tt.want)
			}
		})
	}
}
