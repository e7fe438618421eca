package darkroom

import (
	"context"
	"math"
)

// BorderOperation draws a solid border inside the image edges. Options:
// color, thickness (fraction of the shorter side).
type BorderOperation struct {
	OperationBase

	edges *Graphics
}

// NewBorderOperation creates a border step.
func NewBorderOperation(options map[string]any) (*BorderOperation, error) {
	op := &BorderOperation{edges: NewGraphics("border.edges")}
	err := op.init(op, "border", Schema{
		ColorOption("color", ColorBlack),
		NumberOption("thickness", 0.1, 0, 0.5),
	}, options)
	if err != nil {
		return nil, err
	}
	return op, nil
}

// Thickness returns the border width in pixels for a w x h image.
func (op *BorderOperation) Thickness(w, h int) float64 {
	return math.Round(op.options.Number("thickness") * float64(min(w, h)))
}

func (op *BorderOperation) render(_ context.Context, r Renderer, in *Texture) (bool, error) {
	w, h := textureSize(in)
	t := op.Thickness(w, h)
	c := op.options.Color("color")
	if t <= 0 || c.A <= 0 {
		return false, nil
	}
	fw, fh := float64(w), float64(h)

	op.resetScene(in)
	op.edges.Clear()
	op.edges.FillRect(Rectangle{Width: fw, Height: t}, c)
	op.edges.FillRect(Rectangle{Y: fh - t, Width: fw, Height: t}, c)
	op.edges.FillRect(Rectangle{Y: t, Width: t, Height: fh - 2*t}, c)
	op.edges.FillRect(Rectangle{X: fw - t, Y: t, Width: t, Height: fh - 2*t}, c)
	op.container.AddChild(op.edges)
	return true, op.renderScene(r, w, h)
}

func (op *BorderOperation) operationUpdated(OperationUpdate, bool) {}
