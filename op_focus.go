package darkroom

import (
	"context"
	"math"
)

// FocusOperation blurs the image outside a sharp region. Types:
//
//	none      no effect
//	gaussian  uniform blur
//	radial    sharp disc around position
//	linear    sharp band along the line start-end (tilt-shift)
//
// Points are normalized; size and gradientSize are fractions of the shorter
// image side; blurRadius is in pixels.
type FocusOperation struct {
	OperationBase

	blur  [2]*BlurFilter
	focus [2]*FocusFilter
}

func focusSchema() Schema {
	return Schema{
		StringOption("type", "none", "none", "radial", "linear", "gaussian"),
		Vector2Option("position", Vector2{0.5, 0.5}),
		Vector2Option("start", Vector2{0.5, 0.4}),
		Vector2Option("end", Vector2{0.5, 0.6}),
		NumberOption("size", 0.2, 0, 1),
		NumberOption("gradientSize", 0.2, 0, 1),
		NumberOption("blurRadius", 20, 0, 200),
	}
}

// NewFocusOperation creates a focus step.
func NewFocusOperation(options map[string]any) (*FocusOperation, error) {
	op := &FocusOperation{
		blur: [2]*BlurFilter{NewBlurFilter(0, BlurHorizontal), NewBlurFilter(0, BlurVertical)},
		focus: [2]*FocusFilter{
			newFocusFilter(FocusRadial, BlurHorizontal),
			newFocusFilter(FocusRadial, BlurVertical),
		},
	}
	if err := op.init(op, "focus", focusSchema(), options); err != nil {
		return nil, err
	}
	return op, nil
}

// Type returns the focus type.
func (op *FocusOperation) Type() string { return op.options.Str("type") }

// filters configures and returns the passes for an image of w x h pixels,
// or nil when the step has no effect.
func (op *FocusOperation) filters(w, h int) []Filter {
	o := op.options
	radius := o.Number("blurRadius")
	if radius <= 0 {
		return nil
	}
	fw, fh := float64(w), float64(h)
	short := math.Min(fw, fh)
	size := o.Number("size") * short
	gradient := o.Number("gradientSize") * short
	px := func(p Vector2) Vector2 { return Vector2{p.X * fw, p.Y * fh} }

	switch op.Type() {
	case "gaussian":
		op.blur[0].SetRadius(radius)
		op.blur[1].SetRadius(radius)
		return []Filter{op.blur[0], op.blur[1]}
	case "radial":
		for _, f := range op.focus {
			f.SetRadial(px(o.Vector2("position")), size, gradient, radius)
		}
	case "linear":
		for _, f := range op.focus {
			f.SetLinear(px(o.Vector2("start")), px(o.Vector2("end")), size, gradient, radius)
		}
	default:
		return nil
	}
	return []Filter{op.focus[0], op.focus[1]}
}

func (op *FocusOperation) render(_ context.Context, r Renderer, in *Texture) (bool, error) {
	w, h := textureSize(in)
	filters := op.filters(w, h)
	if filters == nil {
		return false, nil
	}
	op.resetScene(in)
	op.container.SetFilters(filters...)
	return true, op.renderScene(r, w, h)
}

// operationUpdated moves the focus region along with earlier crops and
// orientation changes so it stays on the same image content.
func (op *FocusOperation) operationUpdated(u OperationUpdate, before bool) {
	if !before {
		return
	}
	f, ok := geometryUpdate(u)
	if !ok {
		return
	}
	o := op.options
	op.correct(map[string]any{
		"position": f(o.Vector2("position")),
		"start":    f(o.Vector2("start")),
		"end":      f(o.Vector2("end")),
	})
}
