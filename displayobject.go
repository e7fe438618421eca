package darkroom

import "math"

// Transformable is anything with a local transform that resolves to a world
// transform against its parent.
type Transformable interface {
	// UpdateTransform recomputes the world transform from the parent and the
	// local fields. Parents must be updated before their children.
	UpdateTransform()
	WorldTransform() Matrix
	WorldAlpha() float64
	Parent() *Container
	displayObject() *DisplayObject
}

// Drawable is anything a Renderer can draw.
type Drawable interface {
	// RenderVia draws the object (and any subtree) with r into r's current
	// render target.
	RenderVia(r Renderer) error
	// Bounds returns the world-space bounds as of the last UpdateTransform.
	Bounds() Rectangle
}

// FilterHost owns an ordered list of filters applied to its subtree.
type FilterHost interface {
	Filters() []Filter
	SetFilters(filters ...Filter)
}

// Node is a scene graph element: transformable, drawable and able to carry
// filters. *Container, *Sprite and *Graphics implement it.
type Node interface {
	Transformable
	Drawable
	FilterHost
}

// DisplayObject holds the transform state shared by all nodes. It is
// embedded, never used on its own.
type DisplayObject struct {
	Name string

	// Local transform. Call UpdateTransform after changing any of these.
	Position Vector2
	Scale    Vector2
	Pivot    Vector2
	Rotation float64 // radians, clockwise in y-down space
	Alpha    float64
	Visible  bool

	parent *Container

	localTransform Matrix
	worldTransform Matrix
	worldAlpha     float64
	// worldVersion increments every time worldTransform changes value.
	worldVersion uint64

	// Cached trig for Rotation. Recomputed only when Rotation changes.
	rotationCache  float64
	sr, cr         float64
	trigRecomputes int
}

func (d *DisplayObject) init(name string) {
	d.Name = name
	d.Scale = Vector2{1, 1}
	d.Alpha = 1
	d.Visible = true
	d.cr = 1
	d.localTransform.Identity()
	d.worldTransform.Identity()
	d.worldAlpha = 1
}

func (d *DisplayObject) displayObject() *DisplayObject { return d }

// Parent returns the owning container, or nil for a root.
func (d *DisplayObject) Parent() *Container { return d.parent }

// WorldTransform returns the world transform from the last UpdateTransform.
func (d *DisplayObject) WorldTransform() Matrix { return d.worldTransform }

// LocalTransform returns the local transform from the last UpdateTransform.
func (d *DisplayObject) LocalTransform() Matrix { return d.localTransform }

// WorldAlpha returns the accumulated alpha from the last UpdateTransform.
func (d *DisplayObject) WorldAlpha() float64 { return d.worldAlpha }

// TrigRecomputations reports how many times the rotation sine and cosine
// have been recalculated.
func (d *DisplayObject) TrigRecomputations() int { return d.trigRecomputes }

// SetPosition sets Position.
func (d *DisplayObject) SetPosition(x, y float64) { d.Position.Set(x, y) }

// SetScale sets Scale.
func (d *DisplayObject) SetScale(sx, sy float64) { d.Scale.Set(sx, sy) }

// SetPivot sets Pivot.
func (d *DisplayObject) SetPivot(px, py float64) { d.Pivot.Set(px, py) }

// UpdateTransform recomputes this object's world transform. An object with no
// parent resolves against the identity.
func (d *DisplayObject) UpdateTransform() {
	if d.parent != nil {
		d.updateFrom(d.parent.worldTransform, d.parent.worldAlpha)
		return
	}
	d.updateFrom(IdentityMatrix(), 1)
}

// updateFrom composes the local transform with the given parent state.
//
//	Translate(-Pivot) -> Scale -> Rotate -> Translate(Position)
func (d *DisplayObject) updateFrom(parentWorld Matrix, parentAlpha float64) {
	if d.Rotation != d.rotationCache {
		d.rotationCache = d.Rotation
		d.sr, d.cr = sincos(d.Rotation)
		d.trigRecomputes++
	}

	a := d.cr * d.Scale.X
	b := d.sr * d.Scale.X
	c := -d.sr * d.Scale.Y
	dd := d.cr * d.Scale.Y
	d.localTransform = Matrix{
		A: a, B: b, C: c, D: dd,
		Tx: d.Position.X - (d.Pivot.X*a + d.Pivot.Y*c),
		Ty: d.Position.Y - (d.Pivot.X*b + d.Pivot.Y*dd),
	}

	world := parentWorld
	world.Multiply(d.localTransform)
	if world != d.worldTransform {
		d.worldTransform = world
		d.worldVersion++
	}
	d.worldAlpha = parentAlpha * d.Alpha
}

// sincos snaps the results for quarter turns so axis-aligned rotations stay
// exact.
func sincos(r float64) (sin, cos float64) {
	sin, cos = math.Sincos(r)
	const eps = 1e-12
	if math.Abs(sin) < eps {
		sin = 0
	}
	if math.Abs(cos) < eps {
		cos = 0
	}
	return sin, cos
}

// ToGlobal maps a point from this object's local space to world space.
func (d *DisplayObject) ToGlobal(p Vector2) Vector2 {
	return d.worldTransform.Apply(p)
}

// ToLocal maps a world-space point into this object's local space.
func (d *DisplayObject) ToLocal(p Vector2) Vector2 {
	return d.worldTransform.ApplyInverse(p)
}

// isAncestor reports whether candidate is node or one of its ancestors.
func isAncestor(candidate *DisplayObject, node *DisplayObject) bool {
	for p := node; p != nil; {
		if p == candidate {
			return true
		}
		if p.parent == nil {
			return false
		}
		p = &p.parent.DisplayObject
	}
	return false
}
