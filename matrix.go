package darkroom

import "golang.org/x/image/math/f64"

// Matrix is a 2D affine transform.
//
//	| A  C  Tx |
//	| B  D  Ty |
//	| 0  0   1 |
type Matrix struct {
	A, B, C, D, Tx, Ty float64
}

// IdentityMatrix returns the identity transform.
func IdentityMatrix() Matrix {
	return Matrix{A: 1, D: 1}
}

// Identity resets m to the identity transform.
func (m *Matrix) Identity() *Matrix {
	*m = Matrix{A: 1, D: 1}
	return m
}

// Clone returns a copy of m.
func (m Matrix) Clone() Matrix {
	return m
}

// Copy overwrites m with o.
func (m *Matrix) Copy(o Matrix) *Matrix {
	*m = o
	return m
}

// Equals compares all six components.
func (m Matrix) Equals(o Matrix) bool {
	return m == o
}

// Multiply sets m = m * o, so the result applies o first and then m.
func (m *Matrix) Multiply(o Matrix) *Matrix {
	*m = Matrix{
		A:  m.A*o.A + m.C*o.B,
		B:  m.B*o.A + m.D*o.B,
		C:  m.A*o.C + m.C*o.D,
		D:  m.B*o.C + m.D*o.D,
		Tx: m.A*o.Tx + m.C*o.Ty + m.Tx,
		Ty: m.B*o.Tx + m.D*o.Ty + m.Ty,
	}
	return m
}

// Invert replaces m with its inverse. A singular matrix becomes the identity.
func (m *Matrix) Invert() *Matrix {
	det := m.A*m.D - m.C*m.B
	if det > -1e-12 && det < 1e-12 {
		return m.Identity()
	}
	inv := 1.0 / det
	a := m.D * inv
	b := -m.B * inv
	c := -m.C * inv
	d := m.A * inv
	*m = Matrix{
		A: a, B: b, C: c, D: d,
		Tx: -(a*m.Tx + c*m.Ty),
		Ty: -(b*m.Tx + d*m.Ty),
	}
	return m
}

// Apply maps p through m.
func (m Matrix) Apply(p Vector2) Vector2 {
	return Vector2{
		X: m.A*p.X + m.C*p.Y + m.Tx,
		Y: m.B*p.X + m.D*p.Y + m.Ty,
	}
}

// ApplyInverse maps p through the inverse of m.
func (m Matrix) ApplyInverse(p Vector2) Vector2 {
	inv := m
	inv.Invert()
	return inv.Apply(p)
}

// ToArray flattens m into a 3x3 matrix for shader upload. Row-major unless
// transpose is set.
func (m Matrix) ToArray(transpose bool) [9]float32 {
	if transpose {
		return [9]float32{
			float32(m.A), float32(m.B), 0,
			float32(m.C), float32(m.D), 0,
			float32(m.Tx), float32(m.Ty), 1,
		}
	}
	return [9]float32{
		float32(m.A), float32(m.C), float32(m.Tx),
		float32(m.B), float32(m.D), float32(m.Ty),
		0, 0, 1,
	}
}

// aff3 converts m into the x/image affine form.
func (m Matrix) aff3() f64.Aff3 {
	return f64.Aff3{m.A, m.C, m.Tx, m.B, m.D, m.Ty}
}

// RectangleToCoordinates maps rect, offset by anchor, through m and returns
// the four corners in bottom-left, bottom-right, top-right, top-left order.
// Corners are expressed relative to the anchor point:
//
//	w0 = width * (1 - anchor.X)    w1 = -width * anchor.X
//	h0 = height * (1 - anchor.Y)   h1 = -height * anchor.Y
//
// The "bottom" edge is the one at h1, matching a y-up texture space.
func (m Matrix) RectangleToCoordinates(rect Rectangle, anchor Vector2) [4]Vector2 {
	w0 := rect.Width * (1 - anchor.X)
	w1 := -rect.Width * anchor.X
	h0 := rect.Height * (1 - anchor.Y)
	h1 := -rect.Height * anchor.Y

	return [4]Vector2{
		m.Apply(Vector2{rect.X + w1, rect.Y + h1}),
		m.Apply(Vector2{rect.X + w0, rect.Y + h1}),
		m.Apply(Vector2{rect.X + w0, rect.Y + h0}),
		m.Apply(Vector2{rect.X + w1, rect.Y + h0}),
	}
}
