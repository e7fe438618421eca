package darkroom

import (
	"context"
	"errors"
	"math"
)

// CropOperation keeps the part of the image between two normalized corners.
type CropOperation struct {
	OperationBase
}

var errCropOrder = errors.New("start must be above and left of end")

func cropSchema() Schema {
	inUnit := func(v any, _ map[string]any) error {
		p := v.(Vector2)
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			return errors.New("must lie inside [0, 1]")
		}
		return nil
	}
	ordered := func(v any, pending map[string]any) error {
		if err := inUnit(v, pending); err != nil {
			return err
		}
		s, _ := pending["start"].(Vector2)
		e, _ := pending["end"].(Vector2)
		if s.X >= e.X || s.Y >= e.Y {
			return errCropOrder
		}
		return nil
	}
	return Schema{
		{Name: "start", Type: OptionVector2, Default: Vector2{0, 0}, Validator: ordered},
		{Name: "end", Type: OptionVector2, Default: Vector2{1, 1}, Validator: ordered},
	}
}

// NewCropOperation creates a crop. Options: start, end.
func NewCropOperation(options map[string]any) (*CropOperation, error) {
	op := &CropOperation{}
	if err := op.init(op, "crop", cropSchema(), options); err != nil {
		return nil, err
	}
	return op, nil
}

// Start returns the normalized top-left corner.
func (op *CropOperation) Start() Vector2 { return op.options.Vector2("start") }

// End returns the normalized bottom-right corner.
func (op *CropOperation) End() Vector2 { return op.options.Vector2("end") }

// outputSize returns the cropped size of a w x h input.
func (op *CropOperation) outputSize(w, h int) (int, int) {
	s, e := op.Start(), op.End()
	return max(int(math.Round((e.X-s.X)*float64(w))), 1),
		max(int(math.Round((e.Y-s.Y)*float64(h))), 1)
}

func (op *CropOperation) render(_ context.Context, r Renderer, in *Texture) (bool, error) {
	s, e := op.Start(), op.End()
	if s == (Vector2{0, 0}) && e == (Vector2{1, 1}) {
		return false, nil
	}
	w, h := textureSize(in)
	ow, oh := op.outputSize(w, h)
	op.resetScene(in)
	op.sprite.SetPosition(-math.Round(s.X*float64(w)), -math.Round(s.Y*float64(h)))
	return true, op.renderScene(r, ow, oh)
}

// operationUpdated keeps the crop on the same image region when an earlier
// orientation turns or mirrors the image.
func (op *CropOperation) operationUpdated(u OperationUpdate, before bool) {
	if !before || u.Identifier() != "orientation" {
		return
	}
	f, ok := geometryUpdate(u)
	if !ok {
		return
	}
	start, end := f.mapRect(op.Start(), op.End())
	op.correct(map[string]any{"start": start, "end": end})
}
