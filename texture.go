package darkroom

import "fmt"

// TextureUVs holds normalized texture coordinates for the four frame
// corners: 0 top-left, 1 top-right, 2 bottom-right, 3 bottom-left.
type TextureUVs struct {
	X0, Y0 float64
	X1, Y1 float64
	X2, Y2 float64
	X3, Y3 float64
}

// Update derives the coordinates of frame inside baseFrame. Every corner is
// normalized by dividing by the base size.
func (uv *TextureUVs) Update(frame, baseFrame Rectangle) {
	bw, bh := baseFrame.Width, baseFrame.Height
	if bw == 0 || bh == 0 {
		*uv = TextureUVs{}
		return
	}
	left := frame.X / bw
	right := (frame.X + frame.Width) / bw
	top := frame.Y / bh
	bottom := (frame.Y + frame.Height) / bh

	uv.X0, uv.Y0 = left, top
	uv.X1, uv.Y1 = right, top
	uv.X2, uv.Y2 = right, bottom
	uv.X3, uv.Y3 = left, bottom
}

// Texture is a frame inside a BaseTexture. Textures are cheap and may be
// shared by many sprites.
type Texture struct {
	base *BaseTexture

	frame       Rectangle
	customFrame bool

	uvs       TextureUVs
	uvFrame   Rectangle
	uvVersion uint64
	uvValid   bool
	uvBuilds  int
}

// NewTexture returns a texture covering the whole of base.
func NewTexture(base *BaseTexture) *Texture {
	return &Texture{base: base}
}

// NewTextureWithFrame returns a texture covering frame inside base.
func NewTextureWithFrame(base *BaseTexture, frame Rectangle) *Texture {
	return &Texture{base: base, frame: frame, customFrame: true}
}

// NewTextureFrom builds a texture from an arbitrary value, which must be a
// *BaseTexture.
func NewTextureFrom(src any) (*Texture, error) {
	base, ok := src.(*BaseTexture)
	if !ok || base == nil {
		return nil, fmt.Errorf("darkroom: new texture from %T: %w", src, ErrNotBaseTexture)
	}
	return NewTexture(base), nil
}

// BaseTexture returns the shared base.
func (t *Texture) BaseTexture() *BaseTexture { return t.base }

// Frame returns the crop frame. Without an explicit frame this is the full
// base frame, which tracks the base as it loads or resizes.
func (t *Texture) Frame() Rectangle {
	if t.customFrame {
		return t.frame
	}
	return t.base.Frame()
}

// SetFrame sets an explicit crop frame.
func (t *Texture) SetFrame(r Rectangle) {
	t.frame = r
	t.customFrame = true
}

// ResetFrame reverts to the full base frame.
func (t *Texture) ResetFrame() {
	t.frame = Rectangle{}
	t.customFrame = false
}

// Width returns the frame width.
func (t *Texture) Width() float64 { return t.Frame().Width }

// Height returns the frame height.
func (t *Texture) Height() float64 { return t.Frame().Height }

// UVs returns the normalized corner coordinates, re-deriving them when the
// frame or the base frame changed.
func (t *Texture) UVs() TextureUVs {
	frame := t.Frame()
	if !t.uvValid || frame != t.uvFrame || t.base.version != t.uvVersion {
		t.uvs.Update(frame, t.base.Frame())
		t.uvFrame = frame
		t.uvVersion = t.base.version
		t.uvValid = true
		t.uvBuilds++
	}
	return t.uvs
}
