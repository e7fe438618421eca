package darkroom

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween/ease"
)

// EditorOptions configures NewEditor. Zero values pick the documented
// defaults.
type EditorOptions struct {
	// Backend is the preferred renderer. The GPU backend falls back to the
	// rasterizer when it cannot be created.
	Backend BackendKind
	// Width and Height size the preview viewport. Zero means the image size.
	Width, Height int
	MaxBatchSize  int
	Logger        *slog.Logger

	// Registry resolves operation identifiers. Nil uses DefaultRegistry.
	Registry *Registry
	// Features maps operation identifiers to enabled. Missing identifiers
	// are enabled.
	Features map[string]bool

	Zoom         float64 // initial zoom, default 1
	ZoomMin      float64 // default 0.05
	ZoomMax      float64 // default 16
	ZoomDuration float32 // seconds for ZoomTo, default 0.25
	ZoomEasing   ease.TweenFunc

	// HistoryLimit caps undo entries. Zero means 100, negative means
	// unlimited.
	HistoryLimit int
	// Export holds the defaults for zero fields of ExportOptions.
	Export ExportOptions
}

// Editor ties an input image to an operations stack and a renderer. It
// renders a zoomable preview, exports full-resolution results, records undo
// history and reports what happens through its event bus.
//
// An Editor is not safe for concurrent use.
type Editor struct {
	renderer Renderer
	opts     EditorOptions
	log      *slog.Logger

	registry *Registry
	stack    *OperationsStack
	events   EventBus
	history  *History
	zoom     *Zoom
	features map[string]bool

	input    *BaseTexture
	inputTex *Texture
	// output carries the stack result; view centers it in the viewport.
	output *Sprite
	view   *Container

	// frame mirrors rasterizer pixels for Draw.
	frame *ebiten.Image

	exportDefaults ExportOptions
	// quiet suppresses history recording while undoing or toggling features.
	quiet bool
}

// NewEditor creates an editor for img. img may still be loading; rendering
// waits for it.
func NewEditor(img *BaseTexture, opts EditorOptions) (*Editor, error) {
	if img == nil {
		return nil, fmt.Errorf("darkroom: new editor: %w", ErrNoTexture)
	}
	opts = editorDefaults(opts, img)
	e := &Editor{
		opts:           opts,
		log:            loggerOr(opts.Logger),
		registry:       opts.Registry,
		history:        NewHistory(opts.HistoryLimit),
		zoom:           NewZoom(opts.Zoom, opts.ZoomMin, opts.ZoomMax),
		features:       make(map[string]bool, len(opts.Features)),
		input:          img,
		inputTex:       NewTexture(img),
		output:         NewSprite("output", nil),
		view:           NewContainer("view"),
		exportDefaults: opts.Export.withDefaults(DefaultExportOptions()),
	}
	if err := e.exportDefaults.Validate(); err != nil {
		return nil, fmt.Errorf("darkroom: new editor: export defaults: %w", err)
	}
	for id, on := range opts.Features {
		e.features[id] = on
	}
	e.output.Anchor = Vector2{X: 0.5, Y: 0.5}
	e.view.AddChild(e.output)

	e.stack = NewOperationsStack(e.log)
	e.stack.OnUpdate(e.operationUpdated)
	e.zoom.onChange = func(from, to float64) {
		e.events.Emit(ZoomChanged{From: from, To: to})
	}

	e.useRenderer(NewRenderer(opts.Backend, RendererOptions{
		Width:        opts.Width,
		Height:       opts.Height,
		MaxBatchSize: opts.MaxBatchSize,
		Logger:       e.log,
	}))
	return e, nil
}

func editorDefaults(opts EditorOptions, img *BaseTexture) EditorOptions {
	if opts.Width <= 0 || opts.Height <= 0 {
		img.Poll()
		opts.Width, opts.Height = max(img.Width(), 1), max(img.Height(), 1)
	}
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	if opts.Zoom <= 0 {
		opts.Zoom = 1
	}
	if opts.ZoomMin <= 0 {
		opts.ZoomMin = 0.05
	}
	if opts.ZoomMax <= 0 {
		opts.ZoomMax = 16
	}
	if opts.ZoomDuration == 0 {
		opts.ZoomDuration = 0.25
	}
	if opts.HistoryLimit == 0 {
		opts.HistoryLimit = 100
	}
	return opts
}

// useRenderer installs r and hooks GPU context transitions.
func (e *Editor) useRenderer(r Renderer) {
	e.renderer = r
	if gl, ok := r.(*GLRenderer); ok {
		gl.OnContextChange(func(state ContextState, old, cur ContextID) {
			e.contextChanged(gl, state, old, cur)
		})
	}
}

func (e *Editor) contextChanged(gl *GLRenderer, state ContextState, old, cur ContextID) {
	switch state {
	case ContextLost:
		e.events.Emit(ContextLostEvent{Context: old})
	case ContextActive:
		e.stack.ReleaseContext(old)
		e.events.Emit(ContextRestored{Old: old, New: cur})
	case ContextAbandoned:
		if e.renderer != gl {
			return
		}
		w, h := gl.Size()
		canvas := NewCanvasRenderer(RendererOptions{Width: w, Height: h, Logger: e.log})
		e.stack.ReleaseContext(old)
		e.input.ReleaseContext(old)
		e.renderer = canvas
		gl.Dispose()
		e.log.Warn("darkroom: GPU context abandoned, switched to rasterizer", "old", old, "context", canvas.ID())
		e.events.Emit(BackendChanged{From: BackendWebGL, To: BackendCanvas})
	}
}

func (e *Editor) Renderer() Renderer            { return e.renderer }
func (e *Editor) Stack() *OperationsStack       { return e.stack }
func (e *Editor) Events() *EventBus             { return &e.events }
func (e *Editor) History() *History             { return e.history }
func (e *Editor) Zoom() *Zoom                   { return e.zoom }
func (e *Editor) Registry() *Registry           { return e.registry }
func (e *Editor) Input() *BaseTexture           { return e.input }
func (e *Editor) Operations() []Operation       { return e.stack.Operations() }
func (e *Editor) ExportDefaults() ExportOptions { return e.exportDefaults }

// FeatureEnabled reports whether operations with identifier may be created
// and rendered.
func (e *Editor) FeatureEnabled(identifier string) bool {
	on, ok := e.features[identifier]
	return !ok || on
}

// SetFeatureEnabled enables or disables an identifier. Operations of that
// identifier already in the stack are toggled too; disabled ones are skipped
// by rendering.
func (e *Editor) SetFeatureEnabled(identifier string, enabled bool) {
	if e.FeatureEnabled(identifier) == enabled {
		return
	}
	e.features[identifier] = enabled
	e.quietly(func() {
		for _, op := range e.stack.Operations() {
			if op.Identifier() == identifier {
				op.SetEnabled(enabled)
			}
		}
	})
	if enabled {
		e.events.Emit(FeatureEnabled{Identifier: identifier})
	} else {
		e.events.Emit(FeatureDisabled{Identifier: identifier})
	}
}

// CreateOperation builds an operation from the registry and appends it to
// the stack. Unknown identifiers fail with *UnknownOperationError, disabled
// ones with ErrFeatureDisabled.
func (e *Editor) CreateOperation(identifier string, options map[string]any) (Operation, error) {
	if !e.FeatureEnabled(identifier) {
		return nil, fmt.Errorf("darkroom: create %s: %w", identifier, ErrFeatureDisabled)
	}
	op, err := e.registry.Create(identifier, options)
	if err != nil {
		return nil, err
	}
	e.AddOperation(op)
	return op, nil
}

// AddOperation appends op to the stack.
func (e *Editor) AddOperation(op Operation) {
	e.InsertOperation(e.stack.Len(), op)
}

// InsertOperation places op at slot i.
func (e *Editor) InsertOperation(i int, op Operation) {
	if !e.FeatureEnabled(op.Identifier()) && op.Enabled() {
		e.quietly(func() { op.SetEnabled(false) })
	}
	i = min(max(i, 0), e.stack.Len())
	e.stack.Insert(i, op)
	e.history.recordCreate(op)
	e.events.Emit(OperationCreated{Operation: op, Index: i})
	e.emitHistory()
}

// RemoveOperation takes op out of the stack and releases its cached output.
// Undo puts it back and renders it again. It reports whether op was present.
func (e *Editor) RemoveOperation(op Operation) bool {
	i := e.stack.IndexOf(op)
	if i < 0 {
		return false
	}
	e.stack.Remove(op)
	op.Dispose()
	e.history.recordRemove(op, i)
	e.events.Emit(OperationRemoved{Operation: op, Index: i})
	e.emitHistory()
	return true
}

// ClearOperations disposes every operation and drops the undo history.
func (e *Editor) ClearOperations() {
	for _, op := range e.stack.Operations() {
		i := e.stack.IndexOf(op)
		op.Dispose()
		e.events.Emit(OperationRemoved{Operation: op, Index: i})
	}
	e.stack.Clear()
	e.history.Clear()
	e.emitHistory()
}

// Undo reverts the most recent change. It reports whether there was one.
func (e *Editor) Undo() bool {
	entry, ok := e.history.pop()
	if !ok {
		return false
	}
	e.quietly(func() {
		switch entry.kind {
		case historyOptions:
			entry.op.base().restore(entry.snapshot, entry.enabled)
		case historyCreate:
			if i := e.stack.IndexOf(entry.op); i >= 0 {
				e.stack.Remove(entry.op)
				entry.op.Dispose()
				e.events.Emit(OperationRemoved{Operation: entry.op, Index: i})
			}
		case historyRemove:
			e.stack.SetAt(entry.index, entry.op)
			e.events.Emit(OperationCreated{Operation: entry.op, Index: entry.index})
		}
	})
	e.log.Debug("darkroom: undo", "operation", entry.op.Identifier(), "remaining", e.history.Len())
	e.emitHistory()
	return true
}

func (e *Editor) quietly(fn func()) {
	prev := e.quiet
	e.quiet = true
	defer func() { e.quiet = prev }()
	fn()
}

func (e *Editor) operationUpdated(u OperationUpdate) {
	if !e.quiet {
		e.history.recordUpdate(u)
	}
	e.events.Emit(OperationUpdated{OperationUpdate: u})
	if !e.quiet {
		e.emitHistory()
	}
}

func (e *Editor) emitHistory() {
	e.events.Emit(HistoryUpdated{Len: e.history.Len()})
}

// SetZoom jumps to level.
func (e *Editor) SetZoom(level float64) { e.zoom.Set(level) }

// ZoomTo animates to level with the configured duration and easing.
func (e *Editor) ZoomTo(level float64) {
	e.zoom.To(level, e.opts.ZoomDuration, e.opts.ZoomEasing)
}

// ZoomToFit sets the level that fits the current output in the viewport.
func (e *Editor) ZoomToFit() {
	w, h := e.OutputSize()
	vw, vh := e.renderer.Size()
	e.zoom.Set(e.zoom.Fit(w, h, vw, vh))
}

// Update advances time-based state by dt seconds.
func (e *Editor) Update(dt float32) { e.zoom.Update(dt) }

// Resize changes the preview viewport.
func (e *Editor) Resize(w, h int) { e.renderer.ResizeTo(w, h) }

// OutputSize returns the size of the stack result as of the last render,
// or the input size before the first.
func (e *Editor) OutputSize() (int, int) {
	if t := e.output.Texture(); t != nil {
		return textureSize(t)
	}
	e.input.Poll()
	return e.input.Width(), e.input.Height()
}

// SetImage replaces the input image. Every operation re-renders.
func (e *Editor) SetImage(img *BaseTexture) {
	if img == nil || img == e.input {
		return
	}
	e.input.ReleaseContext(e.renderer.ID())
	e.input = img
	e.inputTex = NewTexture(img)
	e.output.SetTexture(nil)
	e.stack.SetDirty()
}

// renderStack brings the output sprite up to date.
func (e *Editor) renderStack(ctx context.Context) error {
	if err := e.input.WaitLoaded(ctx); err != nil {
		return fmt.Errorf("darkroom: input image: %w", err)
	}
	e.inputTex.ResetFrame()
	return e.stack.Render(ctx, e.renderer, e.inputTex, e.output)
}

// layoutView centers the output at the current zoom in a w x h viewport.
func (e *Editor) layoutView(w, h int) {
	e.output.SetPosition(float64(w)/2, float64(h)/2)
	z := e.zoom.level
	e.output.SetScale(z, z)
}

// Render re-renders whatever the stack needs and draws the result into the
// renderer's default target at the current zoom.
func (e *Editor) Render(ctx context.Context) error {
	r := e.renderer
	e.events.Emit(RenderStarted{Backend: r.Kind()})
	start := time.Now()
	if err := e.renderStack(ctx); err != nil {
		return err
	}
	w, h := r.Size()
	e.layoutView(w, h)
	if err := r.Render(e.view); err != nil {
		return err
	}
	rendered, cached := e.stack.LastRender()
	st := r.Stats()
	e.log.Debug("darkroom: frame",
		"backend", r.Kind(), "rendered", rendered, "cached", cached,
		"sprites", st.Sprites, "batches", st.Batches, "filterPasses", st.FilterPasses, "uploads", st.Uploads)
	if rs, ok := r.(interface{ ResetStats() }); ok {
		rs.ResetStats()
	}
	e.events.Emit(RenderCompleted{Backend: r.Kind(), Rendered: rendered, Cached: cached, Elapsed: time.Since(start)})
	return nil
}

// Dispose releases every operation and the renderer.
func (e *Editor) Dispose() {
	for _, op := range e.stack.Operations() {
		op.Dispose()
	}
	e.stack.Clear()
	e.input.ReleaseContext(e.renderer.ID())
	e.renderer.Dispose()
	if e.frame != nil {
		e.frame.Deallocate()
		e.frame = nil
	}
}
