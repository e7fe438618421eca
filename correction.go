package darkroom

import "math"

// pointMap carries a normalized point from an operation's old output space
// to its new one.
type pointMap func(Vector2) Vector2

// orientationState is the geometric effect of an orientation operation:
// quarter turns clockwise, then mirroring.
type orientationState struct {
	turns        int
	flipH, flipV bool
}

func quarterTurns(degrees float64) int {
	t := int(math.Round(degrees/90)) % 4
	if t < 0 {
		t += 4
	}
	return t
}

// rotateQuarter turns p clockwise by 90 degrees inside the unit square.
func rotateQuarter(p Vector2) Vector2 {
	return Vector2{1 - p.Y, p.X}
}

func (o orientationState) mirror(p Vector2) Vector2 {
	if o.flipH {
		p.X = 1 - p.X
	}
	if o.flipV {
		p.Y = 1 - p.Y
	}
	return p
}

// orientationMap maps points from the output of prev to the output of cur:
// undo the old mirroring, turn by the difference, apply the new mirroring.
func orientationMap(prev, cur orientationState) pointMap {
	delta := (cur.turns - prev.turns + 4) % 4
	return func(p Vector2) Vector2 {
		p = prev.mirror(p)
		for range delta {
			p = rotateQuarter(p)
		}
		return cur.mirror(p)
	}
}

// cropMap maps points from the output of a crop over [s0, e0] to the output
// of a crop over [s1, e1].
func cropMap(s0, e0, s1, e1 Vector2) pointMap {
	return func(p Vector2) Vector2 {
		abs := Vector2{s0.X + p.X*(e0.X-s0.X), s0.Y + p.Y*(e0.Y-s0.Y)}
		out := Vector2{abs.X - s1.X, abs.Y - s1.Y}
		if w := e1.X - s1.X; w != 0 {
			out.X /= w
		}
		if h := e1.Y - s1.Y; h != 0 {
			out.Y /= h
		}
		return out
	}
}

// mapRect maps both corners of a normalized rectangle and re-sorts them so
// start stays the top-left corner.
func (f pointMap) mapRect(start, end Vector2) (Vector2, Vector2) {
	a, b := f(start), f(end)
	return Vector2{math.Min(a.X, b.X), math.Min(a.Y, b.Y)},
		Vector2{math.Max(a.X, b.X), math.Max(a.Y, b.Y)}
}

// linear returns the direction part of f.
func (f pointMap) linear(v Vector2) Vector2 {
	o := f(Vector2{})
	p := f(v)
	return Vector2{p.X - o.X, p.Y - o.Y}
}

// mapAngle maps a rotation in radians through f. mirrored reports whether f
// reverses handedness.
func (f pointMap) mapAngle(rad float64) (out float64, mirrored bool) {
	x := f.linear(Vector2{math.Cos(rad), math.Sin(rad)})
	y := f.linear(Vector2{-math.Sin(rad), math.Cos(rad)})
	return math.Atan2(x.Y, x.X), x.X*y.Y-x.Y*y.X < 0
}

// geometryUpdate returns the point map for a crop or orientation change, or
// false when u does not move anything downstream.
func geometryUpdate(u OperationUpdate) (pointMap, bool) {
	op := u.Operation
	if op == nil {
		return nil, false
	}
	opts := op.Options()
	enabledNow := op.Enabled()
	enabledBefore := enabledNow
	if v, ok := u.Previous["enabled"].(bool); ok {
		enabledBefore = v
	}
	prevVal := func(name string) any {
		if v, ok := u.Previous[name]; ok {
			return v
		}
		return opts.Value(name)
	}

	switch op.Identifier() {
	case "orientation":
		if !u.Has("rotation", "flipHorizontally", "flipVertically", "enabled") {
			return nil, false
		}
		var prev, cur orientationState
		if enabledBefore {
			r, _ := prevVal("rotation").(float64)
			h, _ := prevVal("flipHorizontally").(bool)
			v, _ := prevVal("flipVertically").(bool)
			prev = orientationState{quarterTurns(r), h, v}
		}
		if enabledNow {
			cur = orientationState{quarterTurns(opts.Number("rotation")), opts.Bool("flipHorizontally"), opts.Bool("flipVertically")}
		}
		if prev == cur {
			return nil, false
		}
		return orientationMap(prev, cur), true

	case "crop":
		if !u.Has("start", "end", "enabled") {
			return nil, false
		}
		s0, e0 := Vector2{0, 0}, Vector2{1, 1}
		if enabledBefore {
			s0, _ = prevVal("start").(Vector2)
			e0, _ = prevVal("end").(Vector2)
		}
		s1, e1 := Vector2{0, 0}, Vector2{1, 1}
		if enabledNow {
			s1, e1 = opts.Vector2("start"), opts.Vector2("end")
		}
		if s0 == s1 && e0 == e1 {
			return nil, false
		}
		return cropMap(s0, e0, s1, e1), true
	}
	return nil, false
}
