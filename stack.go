package darkroom

import (
	"context"
	"log/slog"
)

// OperationsStack is the ordered pipeline of operations. Slots may be empty
// after removal; empty slots are skipped when rendering.
//
// Rendering is sequential: each operation reads the texture the previous one
// left on the shared output sprite.
type OperationsStack struct {
	slots     []Operation
	listeners []func(OperationUpdate)
	log       *slog.Logger

	// lastRendered and lastSkipped describe the most recent Render call.
	lastRendered int
	lastSkipped  int
}

// NewOperationsStack returns an empty stack logging to log (nil means the
// package logger).
func NewOperationsStack(log *slog.Logger) *OperationsStack {
	return &OperationsStack{log: loggerOr(log)}
}

// OnUpdate registers fn to receive every option change of every operation in
// the stack, after siblings have applied their corrections.
func (s *OperationsStack) OnUpdate(fn func(OperationUpdate)) {
	s.listeners = append(s.listeners, fn)
}

// Push appends op and returns its slot index.
func (s *OperationsStack) Push(op Operation) int {
	s.attach(op)
	s.slots = append(s.slots, op)
	return len(s.slots) - 1
}

// Insert places op at slot i, shifting later slots back.
func (s *OperationsStack) Insert(i int, op Operation) {
	i = min(max(i, 0), len(s.slots))
	s.attach(op)
	s.slots = append(s.slots, nil)
	copy(s.slots[i+1:], s.slots[i:])
	s.slots[i] = op
}

// SetAt stores op in slot i, growing the stack with empty slots if needed.
// An operation previously in the slot is detached.
func (s *OperationsStack) SetAt(i int, op Operation) {
	if i < 0 {
		return
	}
	for len(s.slots) <= i {
		s.slots = append(s.slots, nil)
	}
	if prev := s.slots[i]; prev != nil && prev != op {
		s.detach(prev)
	}
	s.attach(op)
	s.slots[i] = op
	s.dirtyAfter(i)
}

// At returns the operation in slot i, or nil for an empty slot.
func (s *OperationsStack) At(i int) Operation {
	if i < 0 || i >= len(s.slots) {
		return nil
	}
	return s.slots[i]
}

// Remove empties op's slot. It reports whether op was in the stack.
func (s *OperationsStack) Remove(op Operation) bool {
	i := s.IndexOf(op)
	if i < 0 {
		return false
	}
	s.slots[i] = nil
	s.detach(op)
	s.dirtyAfter(i)
	return true
}

// Clear removes every operation.
func (s *OperationsStack) Clear() {
	for _, op := range s.slots {
		if op != nil {
			s.detach(op)
		}
	}
	s.slots = nil
}

// IndexOf returns op's slot index, or -1.
func (s *OperationsStack) IndexOf(op Operation) int {
	for i, o := range s.slots {
		if o != nil && o.base() == op.base() {
			return i
		}
	}
	return -1
}

// Operations returns the operations in pipeline order, without empty slots.
func (s *OperationsStack) Operations() []Operation {
	ops := make([]Operation, 0, len(s.slots))
	for _, op := range s.slots {
		if op != nil {
			ops = append(ops, op)
		}
	}
	return ops
}

// Len returns the number of slots, empty ones included.
func (s *OperationsStack) Len() int { return len(s.slots) }

// Find returns the first operation with the given identifier.
func (s *OperationsStack) Find(identifier string) Operation {
	for _, op := range s.slots {
		if op != nil && op.Identifier() == identifier {
			return op
		}
	}
	return nil
}

// SetDirty invalidates every operation, e.g. after the input image changed.
func (s *OperationsStack) SetDirty() {
	for _, op := range s.slots {
		if op != nil {
			op.SetDirty()
		}
	}
}

// ReleaseContext drops every cached output held for a context.
func (s *OperationsStack) ReleaseContext(id ContextID) {
	for _, op := range s.slots {
		if op != nil {
			op.ReleaseContext(id)
		}
	}
}

// LastRender returns how many operations re-rendered and how many were
// served from cache during the most recent Render.
func (s *OperationsStack) LastRender() (rendered, skipped int) {
	return s.lastRendered, s.lastSkipped
}

// Render runs the pipeline for r, leaving the result on out. out starts at
// input. Operations before the first one dirty for r are served from cache;
// that one and every enabled one after it re-render. The first failure aborts the
// chain with a *RenderError.
func (s *OperationsStack) Render(ctx context.Context, r Renderer, input *Texture, out *Sprite) error {
	ops := s.Operations()
	id := r.ID()

	first := len(ops)
	for i, op := range ops {
		if op.IsDirtyFor(id) {
			first = i
			break
		}
	}

	// Only the newest cached output before first matters; earlier steps are
	// already baked into it.
	out.SetTexture(input)
	for i := first - 1; i >= 0; i-- {
		if ops[i].base().producedOutput(id) {
			out.SetTexture(ops[i].base().output.AsTexture())
			break
		}
	}

	// Everything after the first dirty step reads a changed input.
	for _, op := range ops[min(first+1, len(ops)):] {
		delete(op.base().dirty, id)
	}

	s.lastRendered, s.lastSkipped = 0, first
	for i := first; i < len(ops); i++ {
		op := ops[i]
		before := op.RenderCount()
		if err := op.Render(ctx, r, out); err != nil {
			s.log.Error("darkroom: operation render failed",
				"operation", op.Identifier(), "index", i, "backend", r.Kind(), "err", err)
			return &RenderError{Operation: op.Identifier(), Index: i, Backend: r.Kind(), Err: err}
		}
		if op.RenderCount() > before {
			s.lastRendered++
		}
	}
	s.log.Debug("darkroom: stack rendered",
		"backend", r.Kind(), "context", id,
		"operations", len(ops), "rendered", s.lastRendered, "cached", s.lastSkipped)
	return nil
}

func (s *OperationsStack) attach(op Operation) {
	op.base().notify = s.broadcast
	op.SetDirty()
}

func (s *OperationsStack) detach(op Operation) {
	op.base().notify = nil
}

// dirtyAfter invalidates the first operation after slot i so the rest of
// the pipeline re-renders from there.
func (s *OperationsStack) dirtyAfter(i int) {
	for _, op := range s.slots[i+1:] {
		if op != nil {
			op.SetDirty()
			return
		}
	}
}

// broadcast runs synchronously inside Set: every sibling sees the change and
// may correct its own options before anything is re-rendered.
func (s *OperationsStack) broadcast(src Operation, changed []string, previous map[string]any) {
	u := OperationUpdate{Operation: src, Changed: changed, Previous: previous}
	at := s.IndexOf(src)
	for i, op := range s.slots {
		if op == nil || op.base() == src.base() {
			continue
		}
		op.operationUpdated(u, at < i)
	}
	for _, fn := range s.listeners {
		fn(u)
	}
}
