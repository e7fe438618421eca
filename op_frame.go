package darkroom

import (
	"context"
	"math"
)

// FrameOperation overlays the edges of a frame texture around the image.
// The outer band of the texture, thickness times its shorter side, is cut
// into four strips and stretched along the image edges.
//
// Options: texture, thickness (fraction of the shorter side), alpha.
type FrameOperation struct {
	OperationBase

	strips [4]*Sprite
}

// NewFrameOperation creates a frame step.
func NewFrameOperation(options map[string]any) (*FrameOperation, error) {
	op := &FrameOperation{}
	for i, name := range []string{"top", "bottom", "left", "right"} {
		op.strips[i] = NewSprite("frame."+name, nil)
	}
	err := op.init(op, "frame", Schema{
		TextureOption("texture"),
		NumberOption("thickness", 0.1, 0, 0.5),
		NumberOption("alpha", 1, 0, 1),
	}, options)
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (op *FrameOperation) render(ctx context.Context, r Renderer, in *Texture) (bool, error) {
	tex := op.options.Texture("texture")
	thickness := op.options.Number("thickness")
	alpha := op.options.Number("alpha")
	if tex == nil || thickness <= 0 || alpha <= 0 {
		return false, nil
	}
	if err := waitTexture(ctx, tex); err != nil {
		return false, err
	}

	w, h := textureSize(in)
	fw, fh := float64(w), float64(h)
	t := math.Round(thickness * math.Min(fw, fh))
	src := tex.Frame()
	st := math.Max(math.Round(thickness*math.Min(src.Width, src.Height)), 1)

	// texture band -> image band
	bands := [4][2]Rectangle{
		{{X: src.X, Y: src.Y, Width: src.Width, Height: st}, {Width: fw, Height: t}},
		{{X: src.X, Y: src.Y + src.Height - st, Width: src.Width, Height: st}, {Y: fh - t, Width: fw, Height: t}},
		{{X: src.X, Y: src.Y + st, Width: st, Height: src.Height - 2*st}, {Y: t, Width: t, Height: fh - 2*t}},
		{{X: src.X + src.Width - st, Y: src.Y + st, Width: st, Height: src.Height - 2*st}, {X: fw - t, Y: t, Width: t, Height: fh - 2*t}},
	}

	op.resetScene(in)
	for i, b := range bands {
		from, to := b[0], b[1]
		if from.Empty() || to.Empty() {
			continue
		}
		s := op.strips[i]
		s.SetTexture(NewTextureWithFrame(tex.BaseTexture(), from))
		s.Position = Vector2{to.X, to.Y}
		s.Scale = Vector2{to.Width / from.Width, to.Height / from.Height}
		s.Alpha = alpha
		op.container.AddChild(s)
	}
	return true, op.renderScene(r, w, h)
}

func (op *FrameOperation) operationUpdated(OperationUpdate, bool) {}
