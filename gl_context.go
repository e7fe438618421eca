package darkroom

// ContextState is the lifecycle state of a GPU context.
//
//	Active -> Lost -> Active     (restored)
//	Active -> Lost -> Abandoned  (never restored)
type ContextState uint8

const (
	ContextActive ContextState = iota
	ContextLost
	ContextAbandoned
)

// String returns a lowercase state name.
func (s ContextState) String() string {
	switch s {
	case ContextLost:
		return "lost"
	case ContextAbandoned:
		return "abandoned"
	default:
		return "active"
	}
}

// ContextListener observes GPU context transitions. old and cur are equal
// for loss and abandonment; on restore cur is the fresh context id.
type ContextListener func(state ContextState, old, cur ContextID)

// gpuReady is set once a host game loop is running, the only time the GPU
// backend can read pixels back.
var gpuReady bool

// MarkGPUReady records that an ebiten game loop is running. Host calls it
// from its first Update; embedders running their own loop call it too.
func MarkGPUReady() { gpuReady = true }

// GPUReady reports whether the GPU backend can be constructed.
func GPUReady() bool { return gpuReady }

// LoseContext simulates or reports loss of the GPU context. Draws become
// no-ops until RestoreContext.
func (r *GLRenderer) LoseContext() {
	if r.state != ContextActive {
		return
	}
	r.state = ContextLost
	r.batch.reset()
	r.log.Warn("darkroom: GPU context lost", "context", r.id)
	r.notify(ContextLost, r.id, r.id)
}

// RestoreContext recreates every GPU resource under a fresh context id.
// Base textures uploaded under the old id drop their handles, and listeners
// are told so dependent caches rebuild.
func (r *GLRenderer) RestoreContext() error {
	if r.state != ContextLost {
		return nil
	}
	old := r.id
	r.shaders.reset()
	r.fm.Dispose()
	r.screen.dispose()
	r.white.Deallocate()
	for bt := range r.uploaded {
		bt.ReleaseContext(old)
		delete(r.uploaded, bt)
	}

	r.id = nextContextID()
	if err := r.createResources(); err != nil {
		r.state = ContextLost
		return err
	}
	r.state = ContextActive
	r.log.Info("darkroom: GPU context restored", "old", old, "context", r.id)
	r.notify(ContextActive, old, r.id)
	return nil
}

// AbandonContext marks a lost context as permanently gone. The renderer
// stays usable as a no-op; callers are expected to switch backends.
func (r *GLRenderer) AbandonContext() {
	if r.state == ContextAbandoned {
		return
	}
	r.state = ContextAbandoned
	r.batch.reset()
	r.log.Warn("darkroom: GPU context abandoned", "context", r.id)
	r.notify(ContextAbandoned, r.id, r.id)
}

// State returns the current context state.
func (r *GLRenderer) State() ContextState { return r.state }

// OnContextChange registers a listener for context transitions.
func (r *GLRenderer) OnContextChange(fn ContextListener) {
	r.listeners = append(r.listeners, fn)
}

func (r *GLRenderer) notify(state ContextState, old, cur ContextID) {
	for _, fn := range r.listeners {
		fn(state, old, cur)
	}
}
