package darkroom

// Sprite is a container that also draws one texture. The texture is shared,
// not owned: many sprites may reference the same *Texture.
type Sprite struct {
	Container

	// Anchor is the normalized point inside the frame that sits at Position.
	Anchor    Vector2
	BlendMode BlendMode

	texture *Texture
	shader  *ColorMatrixFilter

	bounds       Rectangle
	boundsKey    spriteBoundsKey
	boundsValid  bool
	boundsBuilds int
}

// spriteBoundsKey captures every input of the sprite's own quad bounds.
type spriteBoundsKey struct {
	world  uint64
	frame  Rectangle
	anchor Vector2
}

// NewSprite creates a sprite drawing tex. tex may be nil and set later.
func NewSprite(name string, tex *Texture) *Sprite {
	s := &Sprite{texture: tex}
	s.init(name)
	return s
}

// Texture returns the current texture.
func (s *Sprite) Texture() *Texture { return s.texture }

// SetTexture replaces the texture and invalidates the cached bounds.
func (s *Sprite) SetTexture(t *Texture) {
	s.texture = t
	s.boundsValid = false
}

// Shader returns the per-sprite color shader, or nil.
func (s *Sprite) Shader() *ColorMatrixFilter { return s.shader }

// SetShader overrides the default sprite shader with a color matrix applied
// to this sprite's pixels only. Pass nil to restore the default.
func (s *Sprite) SetShader(f *ColorMatrixFilter) { s.shader = f }

// Size returns the frame size scaled by Scale.
func (s *Sprite) Size() (w, h float64) {
	if s.texture == nil {
		return 0, 0
	}
	f := s.texture.Frame()
	return f.Width * s.Scale.X, f.Height * s.Scale.Y
}

// Corners returns the sprite's frame corners in world space, ordered
// bottom-left, bottom-right, top-right, top-left.
func (s *Sprite) Corners() [4]Vector2 {
	var frame Rectangle
	if s.texture != nil {
		frame = s.texture.Frame()
	}
	return s.worldTransform.RectangleToCoordinates(Rectangle{Width: frame.Width, Height: frame.Height}, s.Anchor)
}

// Bounds returns the world-space bounds of the sprite quad and its children.
// The quad bounds are cached until the world transform, anchor or texture
// frame changes.
func (s *Sprite) Bounds() Rectangle {
	return s.ownBounds().Union(s.Container.Bounds())
}

func (s *Sprite) ownBounds() Rectangle {
	if s.texture == nil {
		return Rectangle{}
	}
	key := spriteBoundsKey{world: s.worldVersion, frame: s.texture.Frame(), anchor: s.Anchor}
	if s.boundsValid && key == s.boundsKey {
		return s.bounds
	}
	pts := s.Corners()
	s.bounds = boundsOfPoints(pts[:])
	s.boundsKey = key
	s.boundsValid = true
	s.boundsBuilds++
	return s.bounds
}

// RenderVia draws the sprite quad and then its children.
func (s *Sprite) RenderVia(r Renderer) error {
	return s.renderWith(r, s, func() error {
		if s.texture == nil {
			return ErrNoTexture
		}
		return r.DrawSprite(s)
	})
}
