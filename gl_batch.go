package darkroom

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// batchKey groups sprite quads that can be submitted in a single draw call.
// A change of any field forces a flush.
type batchKey struct {
	dst    *ebiten.Image
	src    *ebiten.Image
	shader *ColorMatrixFilter
	blend  BlendMode
}

// spriteBatch accumulates quads for DrawTriangles32 / DrawTrianglesShader32.
type spriteBatch struct {
	key     batchKey
	verts   []ebiten.Vertex
	inds    []uint32
	sprites int
	max     int
}

func (b *spriteBatch) reset() {
	b.verts = b.verts[:0]
	b.inds = b.inds[:0]
	b.sprites = 0
	b.key = batchKey{}
}

// appendQuad adds one quad. corners are target-space positions ordered
// bottom-left, bottom-right, top-right, top-left (as returned by
// RectangleToCoordinates) and src holds the matching source pixel corners.
func (b *spriteBatch) appendQuad(corners, src [4]Vector2, col [4]float32) {
	base := uint32(len(b.verts))
	for i := 0; i < 4; i++ {
		b.verts = append(b.verts, ebiten.Vertex{
			DstX:   float32(corners[i].X),
			DstY:   float32(corners[i].Y),
			SrcX:   float32(src[i].X),
			SrcY:   float32(src[i].Y),
			ColorR: col[0],
			ColorG: col[1],
			ColorB: col[2],
			ColorA: col[3],
		})
	}
	b.inds = append(b.inds,
		base+0, base+1, base+2,
		base+0, base+2, base+3,
	)
	b.sprites++
}

// add queues a quad under key, flushing first when the key changes or the
// batch is full.
func (r *GLRenderer) addQuad(key batchKey, corners, src [4]Vector2, col [4]float32) error {
	b := &r.batch
	if b.sprites > 0 && (key != b.key || b.sprites >= b.max) {
		if err := r.flushBatch(); err != nil {
			return err
		}
	}
	b.key = key
	b.appendQuad(corners, src, col)
	return nil
}

// flushBatch submits the accumulated quads as one draw call.
func (r *GLRenderer) flushBatch() error {
	b := &r.batch
	if b.sprites == 0 {
		return nil
	}
	defer b.reset()
	if r.state != ContextActive {
		return nil
	}
	k := b.key
	if k.shader != nil {
		prog, err := r.shaders.get(k.shader.program, k.shader.source)
		if err != nil {
			return err
		}
		var op ebiten.DrawTrianglesShaderOptions
		op.Images[0] = k.src
		op.Uniforms = k.shader.syncUniforms()
		op.Blend = k.blend.EbitenBlend()
		k.dst.DrawTrianglesShader32(b.verts, b.inds, prog, &op)
	} else {
		var op ebiten.DrawTrianglesOptions
		op.Blend = k.blend.EbitenBlend()
		op.Filter = ebiten.FilterLinear
		op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
		k.dst.DrawTriangles32(b.verts, b.inds, k.src, &op)
	}
	r.stats.Batches++
	return nil
}
