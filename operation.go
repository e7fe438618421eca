package darkroom

import (
	"context"
	"slices"
)

// Operation is one independently cached step of the editing pipeline. Each
// operation reads the previous step's texture, renders its own private scene
// into a RenderTexture and hands that texture to the next step.
//
// Concrete operations embed OperationBase, which implements everything but
// the unexported render and correction hooks.
type Operation interface {
	Identifier() string
	Options() *Configurable
	SetOption(name string, v any) error
	Set(values map[string]any) error

	Enabled() bool
	SetEnabled(enabled bool)

	// IsDirtyFor reports whether the cached output for a context is stale.
	IsDirtyFor(id ContextID) bool
	// SetDirty invalidates the cache for every context.
	SetDirty()

	// Render brings the shared output sprite up to date with this step,
	// re-rendering only when dirty for r's context.
	Render(ctx context.Context, r Renderer, out *Sprite) error
	// RenderCount is the number of times the step actually re-rendered.
	RenderCount() int

	ReleaseContext(id ContextID)
	Dispose()

	base() *OperationBase
	// render draws the step's scene for input in. It reports false when the
	// step left the image untouched, in which case the output sprite keeps
	// pointing at in.
	render(ctx context.Context, r Renderer, in *Texture) (bool, error)
	// operationUpdated lets a step correct its own options after another
	// step changed. before is true when src runs earlier in the pipeline.
	operationUpdated(u OperationUpdate, before bool)
}

// OperationUpdate describes a change to an operation's options.
type OperationUpdate struct {
	Operation Operation
	// Changed lists the option names whose value changed. "enabled" is
	// reported when the step is toggled.
	Changed []string
	// Previous holds the old values of Changed.
	Previous map[string]any
}

// Has reports whether any of names changed.
func (u OperationUpdate) Has(names ...string) bool {
	for _, n := range names {
		if slices.Contains(u.Changed, n) {
			return true
		}
	}
	return false
}

// Identifier returns the identifier of the changed operation.
func (u OperationUpdate) Identifier() string {
	if u.Operation == nil {
		return ""
	}
	return u.Operation.Identifier()
}

// OperationBase carries the state every operation shares: its options, the
// per-context dirty flags and the cached output texture.
type OperationBase struct {
	self       Operation
	identifier string
	options    *Configurable
	enabled    bool

	// dirty maps a context to its dirty flag. A context missing from the
	// map has never rendered and is dirty.
	dirty map[ContextID]bool
	// wrote records whether the last render for a context produced output,
	// as opposed to passing its input through.
	wrote map[ContextID]bool

	output    *RenderTexture
	container *Container
	sprite    *Sprite
	renders   int

	notify func(op Operation, changed []string, previous map[string]any)
}

// init wires the base to its concrete operation and assigns options.
func (b *OperationBase) init(self Operation, identifier string, schema Schema, options map[string]any) error {
	opts, err := NewConfigurable(identifier, schema, options)
	if err != nil {
		return err
	}
	b.self = self
	b.identifier = identifier
	b.options = opts
	b.enabled = true
	b.dirty = make(map[ContextID]bool)
	b.wrote = make(map[ContextID]bool)
	b.container = NewContainer(identifier)
	b.sprite = NewSprite(identifier+".input", nil)
	b.container.AddChild(b.sprite)
	return nil
}

func (b *OperationBase) base() *OperationBase { return b }

// Identifier returns the registry name of the operation.
func (b *OperationBase) Identifier() string { return b.identifier }

// Options returns the option values.
func (b *OperationBase) Options() *Configurable { return b.options }

// SetOption assigns one option and invalidates every cache.
func (b *OperationBase) SetOption(name string, v any) error {
	return b.Set(map[string]any{name: v})
}

// Set assigns several options atomically and invalidates every cache. Other
// operations in the same stack are told which options changed before Set
// returns.
func (b *OperationBase) Set(values map[string]any) error {
	changed, previous, err := b.options.assign(values)
	if err != nil {
		return err
	}
	b.SetDirty()
	if len(changed) > 0 && b.notify != nil {
		b.notify(b.self, changed, previous)
	}
	return nil
}

// correct stores values computed by a correction. Unlike Set it does not
// validate or broadcast.
func (b *OperationBase) correct(values map[string]any) {
	for k, v := range values {
		b.options.put(k, v)
	}
	b.SetDirty()
}

func (b *OperationBase) Enabled() bool { return b.enabled }

// SetEnabled toggles the step. A disabled step passes its input through.
func (b *OperationBase) SetEnabled(enabled bool) {
	if b.enabled == enabled {
		return
	}
	b.enabled = enabled
	b.SetDirty()
	if b.notify != nil {
		b.notify(b.self, []string{"enabled"}, map[string]any{"enabled": !enabled})
	}
}

func (b *OperationBase) IsDirtyFor(id ContextID) bool {
	dirty, ok := b.dirty[id]
	return !ok || dirty
}

func (b *OperationBase) SetDirty() {
	clear(b.dirty)
}

func (b *OperationBase) RenderCount() int { return b.renders }

// producedOutput reports whether a clean cache for id holds a rendered image
// rather than a pass-through.
func (b *OperationBase) producedOutput(id ContextID) bool {
	return !b.IsDirtyFor(id) && b.wrote[id] && b.output != nil && b.output.HasTarget(id)
}

// Render implements Operation.
func (b *OperationBase) Render(ctx context.Context, r Renderer, out *Sprite) error {
	id := r.ID()
	if !b.enabled {
		b.dirty[id] = false
		b.wrote[id] = false
		return nil
	}
	if !b.IsDirtyFor(id) {
		if b.producedOutput(id) {
			out.SetTexture(b.output.AsTexture())
		}
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	in := out.Texture()
	if in == nil {
		return ErrNoTexture
	}
	wrote, err := b.self.render(ctx, r, in)
	if err != nil {
		return err
	}
	b.renders++
	b.dirty[id] = false
	b.wrote[id] = wrote
	if wrote {
		out.SetTexture(b.output.AsTexture())
	}
	return nil
}

// ReleaseContext drops the cached output for a context.
func (b *OperationBase) ReleaseContext(id ContextID) {
	if b.output != nil {
		b.output.ReleaseContext(id)
	}
	delete(b.dirty, id)
	delete(b.wrote, id)
}

// Dispose frees the cached output for every context.
func (b *OperationBase) Dispose() {
	if b.output != nil {
		b.output.Dispose()
	}
	b.SetDirty()
	clear(b.wrote)
}

// --- helpers for concrete operations ---

// resetScene points the scratch sprite at in with an identity transform and
// no filters, and drops any overlay children added by a previous render.
func (b *OperationBase) resetScene(in *Texture) {
	s := b.sprite
	s.SetTexture(in)
	s.Position = Vector2{}
	s.Scale = Vector2{1, 1}
	s.Pivot = Vector2{}
	s.Anchor = Vector2{}
	s.Rotation = 0
	s.Alpha = 1
	s.SetFilters()
	s.SetShader(nil)

	b.container.RemoveChildren()
	b.container.Position = Vector2{}
	b.container.Scale = Vector2{1, 1}
	b.container.Rotation = 0
	b.container.SetFilters()
	b.container.AddChild(s)
}

// renderScene renders the scratch container into the cached output, sized
// w x h.
func (b *OperationBase) renderScene(r Renderer, w, h int) error {
	if b.output == nil {
		b.output = NewRenderTexture(w, h)
	} else {
		b.output.Resize(w, h)
	}
	return r.RenderToTarget(b.container, b.output.Target(r), true)
}

// textureSize returns the pixel size of t.
func textureSize(t *Texture) (int, int) {
	f := t.Frame()
	return max(int(f.Width+0.5), 1), max(int(f.Height+0.5), 1)
}

// waitTexture blocks until an option texture has decoded.
func waitTexture(ctx context.Context, t *Texture) error {
	if t == nil {
		return nil
	}
	return t.BaseTexture().WaitLoaded(ctx)
}
