package darkroom

import (
	"context"
	"errors"
	"math"
)

// SpritesOperation places stickers and text labels over the image. Each
// entry of the sprites option is a configurable with:
//
//	type              "sticker" or "text"
//	position          normalized position of the anchor
//	anchor            normalized point of the sprite placed at position
//	scale             vector2
//	rotation          degrees, clockwise
//	flipHorizontally  bool
//	flipVertically    bool
//	alpha             0..1
//	texture           sticker image
//	text, fontSize, color, backgroundColor, maxWidth  text label
type SpritesOperation struct {
	OperationBase

	pool  []*Sprite
	texts map[*Configurable]cachedText
}

type cachedText struct {
	text  string
	style TextStyle
	tex   *Texture
}

func spriteItemSchema() Schema {
	return Schema{
		StringOption("type", "sticker", "sticker", "text"),
		Vector2Option("position", Vector2{0.5, 0.5}),
		Vector2Option("anchor", Vector2{0.5, 0.5}),
		Vector2Option("scale", Vector2{1, 1}),
		NumberOption("rotation", 0, -360, 360),
		BoolOption("flipHorizontally", false),
		BoolOption("flipVertically", false),
		NumberOption("alpha", 1, 0, 1),
		TextureOption("texture"),
		StringOption("text", ""),
		NumberOption("fontSize", 32, 1, 512),
		ColorOption("color", ColorWhite),
		ColorOption("backgroundColor", ColorTransparent),
		NumberOption("maxWidth", 0, 0, math.MaxInt32),
	}
}

// NewSpritesOperation creates a sprites step.
func NewSpritesOperation(options map[string]any) (*SpritesOperation, error) {
	op := &SpritesOperation{texts: make(map[*Configurable]cachedText)}
	err := op.init(op, "sprites", Schema{
		{Name: "sprites", Type: OptionArray, Default: []any{}, Schema: spriteItemSchema(), Validator: validateSpriteItems},
	}, options)
	if err != nil {
		return nil, err
	}
	return op, nil
}

func validateSpriteItems(v any, _ map[string]any) error {
	for _, item := range v.([]*Configurable) {
		if item.Str("type") == "sticker" && item.Texture("texture") == nil {
			return errors.New("sticker without texture")
		}
	}
	return nil
}

// Items returns the configured sprites.
func (op *SpritesOperation) Items() []*Configurable {
	return op.options.Configurables("sprites")
}

func (op *SpritesOperation) render(ctx context.Context, r Renderer, in *Texture) (bool, error) {
	items := op.Items()
	if len(items) == 0 {
		return false, nil
	}
	w, h := textureSize(in)
	op.resetScene(in)

	live := make(map[*Configurable]bool, len(items))
	for i, item := range items {
		tex, err := op.itemTexture(ctx, item)
		if err != nil {
			return false, err
		}
		if tex == nil {
			continue
		}
		live[item] = true
		for len(op.pool) <= i {
			op.pool = append(op.pool, NewSprite("sprites.item", nil))
		}
		s := op.pool[i]
		s.SetTexture(tex)
		pos := item.Vector2("position")
		s.Position = Vector2{pos.X * float64(w), pos.Y * float64(h)}
		s.Anchor = item.Vector2("anchor")
		s.Scale = item.Vector2("scale")
		if item.Bool("flipHorizontally") {
			s.Scale.X = -s.Scale.X
		}
		if item.Bool("flipVertically") {
			s.Scale.Y = -s.Scale.Y
		}
		s.Rotation = item.Number("rotation") * math.Pi / 180
		s.Alpha = item.Number("alpha")
		op.container.AddChild(s)
	}
	for item := range op.texts {
		if !live[item] {
			delete(op.texts, item)
		}
	}
	return true, op.renderScene(r, w, h)
}

// itemTexture returns the sticker texture or the rasterised label of item.
func (op *SpritesOperation) itemTexture(ctx context.Context, item *Configurable) (*Texture, error) {
	if item.Str("type") == "sticker" {
		tex := item.Texture("texture")
		return tex, waitTexture(ctx, tex)
	}
	text := item.Str("text")
	if text == "" {
		return nil, nil
	}
	style := TextStyle{
		Size:       item.Number("fontSize"),
		Color:      item.Color("color"),
		Background: item.Color("backgroundColor"),
		MaxWidth:   item.Number("maxWidth"),
	}
	if c, ok := op.texts[item]; ok && c.text == text && c.style == style {
		return c.tex, nil
	}
	bt, err := RenderText(text, style)
	if err != nil {
		return nil, err
	}
	tex := NewTexture(bt)
	op.texts[item] = cachedText{text: text, style: style, tex: tex}
	return tex, nil
}

// operationUpdated keeps sprites on the same image content when an earlier
// crop or orientation changes. Orientation changes also turn and mirror the
// sprites themselves.
func (op *SpritesOperation) operationUpdated(u OperationUpdate, before bool) {
	if !before {
		return
	}
	f, ok := geometryUpdate(u)
	if !ok {
		return
	}
	turn := u.Identifier() == "orientation"
	for _, item := range op.Items() {
		item.put("position", f(item.Vector2("position")))
		if !turn {
			continue
		}
		rad, mirrored := f.mapAngle(item.Number("rotation") * math.Pi / 180)
		deg := math.Round(rad*180/math.Pi*1e9) / 1e9
		item.put("rotation", deg)
		if mirrored {
			item.put("flipVertically", !item.Bool("flipVertically"))
		}
	}
	op.SetDirty()
}
