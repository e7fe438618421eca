package darkroom

// Graphics draws solid rectangles defined in its local space.
type Graphics struct {
	Container

	rects []FillRect
}

// FillRect is one solid rectangle of a Graphics node.
type FillRect struct {
	Rect  Rectangle
	Color Color
}

// NewGraphics creates an empty Graphics node.
func NewGraphics(name string) *Graphics {
	g := &Graphics{}
	g.init(name)
	return g
}

// FillRect appends a solid rectangle.
func (g *Graphics) FillRect(r Rectangle, c Color) {
	g.rects = append(g.rects, FillRect{Rect: r, Color: c})
}

// Clear removes all rectangles.
func (g *Graphics) Clear() {
	g.rects = g.rects[:0]
}

// Rects returns the rectangles. The returned slice must not be mutated.
func (g *Graphics) Rects() []FillRect {
	return g.rects
}

// quad returns the world-space corners of r, in the same order as
// Matrix.RectangleToCoordinates with a zero anchor.
func (g *Graphics) quad(r Rectangle) [4]Vector2 {
	return g.worldTransform.RectangleToCoordinates(r, Vector2{})
}

// Bounds returns the world-space bounds of all rectangles and children.
func (g *Graphics) Bounds() Rectangle {
	var b Rectangle
	for _, fr := range g.rects {
		pts := g.quad(fr.Rect)
		b = b.Union(boundsOfPoints(pts[:]))
	}
	return b.Union(g.Container.Bounds())
}

// RenderVia draws the rectangles and then the children.
func (g *Graphics) RenderVia(r Renderer) error {
	return g.renderWith(r, g, func() error {
		if len(g.rects) == 0 {
			return nil
		}
		return r.DrawGraphics(g)
	})
}
