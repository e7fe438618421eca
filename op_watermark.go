package darkroom

import "context"

// WatermarkOperation stamps a texture over the image. Options: texture,
// position (normalized center), size (fraction of the image width), alpha.
type WatermarkOperation struct {
	OperationBase

	mark *Sprite
}

// NewWatermarkOperation creates a watermark step.
func NewWatermarkOperation(options map[string]any) (*WatermarkOperation, error) {
	op := &WatermarkOperation{mark: NewSprite("watermark.mark", nil)}
	err := op.init(op, "watermark", Schema{
		TextureOption("texture"),
		Vector2Option("position", Vector2{0.9, 0.9}),
		NumberOption("size", 0.2, 0, 1),
		NumberOption("alpha", 0.5, 0, 1),
	}, options)
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (op *WatermarkOperation) render(ctx context.Context, r Renderer, in *Texture) (bool, error) {
	o := op.options
	tex := o.Texture("texture")
	if tex == nil || o.Number("size") <= 0 || o.Number("alpha") <= 0 {
		return false, nil
	}
	if err := waitTexture(ctx, tex); err != nil {
		return false, err
	}
	w, h := textureSize(in)
	op.resetScene(in)

	m := op.mark
	m.SetTexture(tex)
	m.Anchor = Vector2{0.5, 0.5}
	pos := o.Vector2("position")
	m.Position = Vector2{pos.X * float64(w), pos.Y * float64(h)}
	k := o.Number("size") * float64(w) / max(tex.Width(), 1)
	m.Scale = Vector2{k, k}
	m.Alpha = o.Number("alpha")
	op.container.AddChild(m)
	return true, op.renderScene(r, w, h)
}

// The watermark is placed on the final frame and never follows geometry
// changes.
func (op *WatermarkOperation) operationUpdated(OperationUpdate, bool) {}
