package darkroom

import (
	"context"
	"errors"
	"math"
)

// OrientationOperation turns the image by quarter turns clockwise and
// mirrors it. Mirroring applies to the turned image.
type OrientationOperation struct {
	OperationBase

	// flip is the parent of the input sprite and carries the mirroring.
	flip *Container
}

func orientationSchema() Schema {
	return Schema{
		{Name: "rotation", Type: OptionNumber, Default: 0.0, Validator: func(v any, _ map[string]any) error {
			switch v.(float64) {
			case 0, 90, 180, 270:
				return nil
			}
			return errors.New("must be 0, 90, 180 or 270")
		}},
		BoolOption("flipHorizontally", false),
		BoolOption("flipVertically", false),
	}
}

// NewOrientationOperation creates an orientation step. Options: rotation,
// flipHorizontally, flipVertically.
func NewOrientationOperation(options map[string]any) (*OrientationOperation, error) {
	op := &OrientationOperation{flip: NewContainer("orientation.flip")}
	if err := op.init(op, "orientation", orientationSchema(), options); err != nil {
		return nil, err
	}
	return op, nil
}

// Rotation returns the clockwise rotation in degrees.
func (op *OrientationOperation) Rotation() float64 { return op.options.Number("rotation") }

func (op *OrientationOperation) state() orientationState {
	return orientationState{
		turns: quarterTurns(op.Rotation()),
		flipH: op.options.Bool("flipHorizontally"),
		flipV: op.options.Bool("flipVertically"),
	}
}

// outputSize swaps the dimensions for odd quarter turns.
func (op *OrientationOperation) outputSize(w, h int) (int, int) {
	if op.state().turns%2 == 1 {
		return h, w
	}
	return w, h
}

func (op *OrientationOperation) render(_ context.Context, r Renderer, in *Texture) (bool, error) {
	st := op.state()
	if st == (orientationState{}) {
		return false, nil
	}
	w, h := textureSize(in)
	ow, oh := op.outputSize(w, h)

	op.resetScene(in)
	op.container.RemoveChildren()
	op.flip.RemoveChildren()
	op.flip.Position = Vector2{float64(ow) / 2, float64(oh) / 2}
	op.flip.Scale = Vector2{1, 1}
	if st.flipH {
		op.flip.Scale.X = -1
	}
	if st.flipV {
		op.flip.Scale.Y = -1
	}
	op.sprite.Anchor = Vector2{0.5, 0.5}
	op.sprite.Rotation = float64(st.turns) * math.Pi / 2
	op.flip.AddChild(op.sprite)
	op.container.AddChild(op.flip)
	return true, op.renderScene(r, ow, oh)
}

// Orientation never depends on other steps.
func (op *OrientationOperation) operationUpdated(OperationUpdate, bool) {}
