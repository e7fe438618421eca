package darkroom

import "math"

// Vector2 is an (X, Y) pair. Methods with a pointer receiver mutate the
// vector in place and return it so calls can be chained:
//
//	v := NewVector2(10, 20)
//	v.Multiply(2).Add(1).Round()
//
// Use Clone to obtain an independent copy.
type Vector2 struct {
	X, Y float64
}

// NewVector2 returns a new vector.
func NewVector2(x, y float64) Vector2 {
	return Vector2{X: x, Y: y}
}

// Set assigns both components.
func (v *Vector2) Set(x, y float64) *Vector2 {
	v.X, v.Y = x, y
	return v
}

// Clone returns a copy of v.
func (v Vector2) Clone() Vector2 {
	return v
}

// Copy overwrites v with o.
func (v *Vector2) Copy(o Vector2) *Vector2 {
	v.X, v.Y = o.X, o.Y
	return v
}

// Equals reports whether both components match exactly.
func (v Vector2) Equals(o Vector2) bool {
	return v.X == o.X && v.Y == o.Y
}

// Add adds n to both components.
func (v *Vector2) Add(n float64) *Vector2 {
	v.X += n
	v.Y += n
	return v
}

// AddVector adds o component-wise.
func (v *Vector2) AddVector(o Vector2) *Vector2 {
	v.X += o.X
	v.Y += o.Y
	return v
}

// Subtract subtracts n from both components.
func (v *Vector2) Subtract(n float64) *Vector2 {
	v.X -= n
	v.Y -= n
	return v
}

// SubtractVector subtracts o component-wise.
func (v *Vector2) SubtractVector(o Vector2) *Vector2 {
	v.X -= o.X
	v.Y -= o.Y
	return v
}

// Multiply scales both components by n.
func (v *Vector2) Multiply(n float64) *Vector2 {
	v.X *= n
	v.Y *= n
	return v
}

// MultiplyVector multiplies component-wise.
func (v *Vector2) MultiplyVector(o Vector2) *Vector2 {
	v.X *= o.X
	v.Y *= o.Y
	return v
}

// Divide divides both components by n.
func (v *Vector2) Divide(n float64) *Vector2 {
	v.X /= n
	v.Y /= n
	return v
}

// DivideVector divides component-wise.
func (v *Vector2) DivideVector(o Vector2) *Vector2 {
	v.X /= o.X
	v.Y /= o.Y
	return v
}

// Clamp restricts each component to [lo, hi] of the matching component.
func (v *Vector2) Clamp(lo, hi Vector2) *Vector2 {
	v.X = math.Max(lo.X, math.Min(hi.X, v.X))
	v.Y = math.Max(lo.Y, math.Min(hi.Y, v.Y))
	return v
}

// Round rounds both components to the nearest integer.
func (v *Vector2) Round() *Vector2 {
	v.X = math.Round(v.X)
	v.Y = math.Round(v.Y)
	return v
}

// Floor rounds both components down.
func (v *Vector2) Floor() *Vector2 {
	v.X = math.Floor(v.X)
	v.Y = math.Floor(v.Y)
	return v
}

// Ceil rounds both components up.
func (v *Vector2) Ceil() *Vector2 {
	v.X = math.Ceil(v.X)
	v.Y = math.Ceil(v.Y)
	return v
}

// Abs replaces both components with their absolute values.
func (v *Vector2) Abs() *Vector2 {
	v.X = math.Abs(v.X)
	v.Y = math.Abs(v.Y)
	return v
}

// Flip swaps X and Y.
func (v *Vector2) Flip() *Vector2 {
	v.X, v.Y = v.Y, v.X
	return v
}

// Len returns the Euclidean length.
func (v Vector2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}
