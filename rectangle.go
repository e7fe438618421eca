package darkroom

import (
	"image"
	"math"
)

// Rectangle is an axis-aligned rectangle with its origin at (X, Y).
type Rectangle struct {
	X, Y, Width, Height float64
}

// NewRectangle returns a new rectangle.
func NewRectangle(x, y, w, h float64) Rectangle {
	return Rectangle{X: x, Y: y, Width: w, Height: h}
}

// Clone returns a copy of r.
func (r Rectangle) Clone() Rectangle {
	return r
}

// Copy overwrites r with o.
func (r *Rectangle) Copy(o Rectangle) *Rectangle {
	*r = o
	return r
}

// Equals compares all four fields.
func (r Rectangle) Equals(o Rectangle) bool {
	return r.X == o.X && r.Y == o.Y && r.Width == o.Width && r.Height == o.Height
}

// Empty reports whether the rectangle has no area.
func (r Rectangle) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether the point (x, y) lies inside r.
func (r Rectangle) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Intersects reports whether r and o overlap.
func (r Rectangle) Intersects(o Rectangle) bool {
	return r.X < o.X+o.Width && r.X+r.Width > o.X &&
		r.Y < o.Y+o.Height && r.Y+r.Height > o.Y
}

// Union returns the smallest rectangle containing both r and o. An empty
// operand is ignored.
func (r Rectangle) Union(o Rectangle) Rectangle {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.Width, o.X+o.Width)
	maxY := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Rectangle{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// pixelRect snaps r outward to whole pixels.
func (r Rectangle) pixelRect() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)),
		int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)),
		int(math.Ceil(r.Y+r.Height)),
	)
}

// boundsOfPoints returns the axis-aligned bounds of pts.
func boundsOfPoints(pts []Vector2) Rectangle {
	if len(pts) == 0 {
		return Rectangle{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rectangle{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
