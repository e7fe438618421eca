package darkroom

// RenderTexture is a Texture whose base is backed by render targets rather
// than a decoded image. It can be rendered to and sampled from, and keeps
// one backing target per backend context.
type RenderTexture struct {
	Texture

	targets map[ContextID]RenderTarget
}

// NewRenderTexture creates a render texture with the given logical size.
// Backing targets are allocated lazily by Target.
func NewRenderTexture(w, h int) *RenderTexture {
	rt := &RenderTexture{targets: make(map[ContextID]RenderTarget)}
	rt.base = newRenderBaseTexture(w, h)
	return rt
}

// AsTexture returns the sampling view of rt, suitable for Sprite.SetTexture.
func (rt *RenderTexture) AsTexture() *Texture {
	return &rt.Texture
}

// Resize changes the logical size. Backing targets are reallocated on the
// next call to Target.
func (rt *RenderTexture) Resize(w, h int) {
	rt.base.ResizeTo(w, h)
}

// Target returns the backing target for r's context, allocating or
// reallocating it to match the current logical size.
func (rt *RenderTexture) Target(r Renderer) RenderTarget {
	id := r.ID()
	w, h := rt.base.width, rt.base.height
	t := rt.targets[id]
	if t != nil {
		if s := t.Bounds().Size(); s.X == max(w, 1) && s.Y == max(h, 1) {
			return t
		}
		t.dispose()
	}
	t = r.NewTarget(w, h)
	rt.targets[id] = t
	rt.base.setHandle(id, t)
	return t
}

// HasTarget reports whether a backing target exists for the context.
func (rt *RenderTexture) HasTarget(id ContextID) bool {
	_, ok := rt.targets[id]
	return ok
}

// ReleaseContext frees the backing target of one context.
func (rt *RenderTexture) ReleaseContext(id ContextID) {
	if t, ok := rt.targets[id]; ok {
		t.dispose()
		delete(rt.targets, id)
	}
	rt.base.ReleaseContext(id)
}

// Dispose frees every backing target.
func (rt *RenderTexture) Dispose() {
	for id := range rt.targets {
		rt.ReleaseContext(id)
	}
}
