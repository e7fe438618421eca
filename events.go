package darkroom

import "time"

// EventKind identifies an editor event type.
type EventKind uint8

const (
	EventOperationCreated EventKind = iota
	EventOperationUpdated
	EventOperationRemoved
	EventHistoryUpdated
	EventFeatureEnabled
	EventFeatureDisabled
	EventZoomChanged
	EventRenderStarted
	EventRenderCompleted
	EventBackendChanged
	EventContextLost
	EventContextRestored

	eventKindCount
)

// Event is implemented by every editor event.
type Event interface {
	Kind() EventKind
}

// OperationCreated is emitted when an operation joins the stack.
type OperationCreated struct {
	Operation Operation
	Index     int
}

// OperationUpdated is emitted after an operation's options change and its
// siblings have corrected themselves.
type OperationUpdated struct {
	OperationUpdate
}

// OperationRemoved is emitted when an operation leaves the stack.
type OperationRemoved struct {
	Operation Operation
	Index     int
}

// HistoryUpdated is emitted when the undo history grows or shrinks.
type HistoryUpdated struct {
	Len int
}

// FeatureEnabled is emitted when an operation identifier is enabled.
type FeatureEnabled struct{ Identifier string }

// FeatureDisabled is emitted when an operation identifier is disabled.
type FeatureDisabled struct{ Identifier string }

// ZoomChanged is emitted whenever the zoom level moves, including every
// step of an animated zoom.
type ZoomChanged struct {
	From, To float64
}

// RenderStarted is emitted at the start of Editor.Render.
type RenderStarted struct {
	Backend BackendKind
}

// RenderCompleted is emitted after a successful Editor.Render.
type RenderCompleted struct {
	Backend  BackendKind
	Rendered int // operations that re-rendered
	Cached   int // operations served from cache
	Elapsed  time.Duration
}

// BackendChanged is emitted when the editor swaps renderers.
type BackendChanged struct {
	From, To BackendKind
}

// ContextLostEvent is emitted when the GPU context is lost.
type ContextLostEvent struct {
	Context ContextID
}

// ContextRestored is emitted after the GPU context came back under a new id.
type ContextRestored struct {
	Old, New ContextID
}

func (OperationCreated) Kind() EventKind { return EventOperationCreated }
func (OperationUpdated) Kind() EventKind { return EventOperationUpdated }
func (OperationRemoved) Kind() EventKind { return EventOperationRemoved }
func (HistoryUpdated) Kind() EventKind   { return EventHistoryUpdated }
func (FeatureEnabled) Kind() EventKind   { return EventFeatureEnabled }
func (FeatureDisabled) Kind() EventKind  { return EventFeatureDisabled }
func (ZoomChanged) Kind() EventKind      { return EventZoomChanged }
func (RenderStarted) Kind() EventKind    { return EventRenderStarted }
func (RenderCompleted) Kind() EventKind  { return EventRenderCompleted }
func (BackendChanged) Kind() EventKind   { return EventBackendChanged }
func (ContextLostEvent) Kind() EventKind { return EventContextLost }
func (ContextRestored) Kind() EventKind  { return EventContextRestored }

// EventBus delivers editor events synchronously to handlers registered per
// event kind, in registration order.
type EventBus struct {
	handlers [eventKindCount][]eventHandler
	nextID   int
}

type eventHandler struct {
	id int
	fn func(Event)
}

// On registers fn for one kind. The returned func unregisters it.
func (b *EventBus) On(kind EventKind, fn func(Event)) (off func()) {
	b.nextID++
	id := b.nextID
	b.handlers[kind] = append(b.handlers[kind], eventHandler{id: id, fn: fn})
	return func() {
		hs := b.handlers[kind]
		for i, h := range hs {
			if h.id == id {
				b.handlers[kind] = append(hs[:i:i], hs[i+1:]...)
				return
			}
		}
	}
}

// Emit calls every handler registered for e's kind.
func (b *EventBus) Emit(e Event) {
	for _, h := range b.handlers[e.Kind()] {
		h.fn(e)
	}
}

// Subscribe registers a handler typed by its event struct:
//
//	darkroom.Subscribe(bus, func(e darkroom.ZoomChanged) { ... })
func Subscribe[T Event](b *EventBus, fn func(T)) (off func()) {
	var zero T
	return b.On(zero.Kind(), func(e Event) {
		if t, ok := e.(T); ok {
			fn(t)
		}
	})
}
