package darkroom

// historyKind is what an undo entry reverts.
type historyKind uint8

const (
	historyOptions historyKind = iota // restore option values
	historyCreate                     // remove an added operation
	historyRemove                     // put a removed operation back
)

type historyEntry struct {
	kind     historyKind
	op       Operation
	index    int
	snapshot map[string]any
	enabled  bool
}

// History is the undo stack of an editor. Option changes are recorded as
// snapshots of the operation's values from before the change.
type History struct {
	entries []historyEntry
	limit   int
}

// NewHistory creates a history keeping at most limit entries. Zero or
// negative means unlimited.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Len returns the number of undoable entries.
func (h *History) Len() int { return len(h.entries) }

// Clear drops every entry.
func (h *History) Clear() { h.entries = h.entries[:0] }

func (h *History) push(e historyEntry) {
	h.entries = append(h.entries, e)
	if h.limit > 0 && len(h.entries) > h.limit {
		h.entries = append(h.entries[:0], h.entries[len(h.entries)-h.limit:]...)
	}
}

// recordUpdate stores the state of u's operation as it was before u.
func (h *History) recordUpdate(u OperationUpdate) {
	op := u.Operation
	snap := op.Options().Snapshot()
	enabled := op.Enabled()
	for k, v := range u.Previous {
		if k == "enabled" {
			enabled, _ = v.(bool)
			continue
		}
		if v == nil {
			delete(snap, k)
			continue
		}
		snap[k] = cloneOption(v)
	}
	h.push(historyEntry{kind: historyOptions, op: op, snapshot: snap, enabled: enabled})
}

func (h *History) recordCreate(op Operation) {
	h.push(historyEntry{kind: historyCreate, op: op})
}

func (h *History) recordRemove(op Operation, index int) {
	h.push(historyEntry{kind: historyRemove, op: op, index: index})
}

func (h *History) pop() (historyEntry, bool) {
	if len(h.entries) == 0 {
		return historyEntry{}, false
	}
	e := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return e, true
}

// restore puts a snapshot back into op and broadcasts the difference so
// siblings correct themselves as for any other change.
func (b *OperationBase) restore(snap map[string]any, enabled bool) {
	previous := b.options.Snapshot()
	changed := b.options.Restore(snap)
	prev := make(map[string]any, len(changed)+1)
	for _, name := range changed {
		prev[name] = previous[name]
	}
	if b.enabled != enabled {
		prev["enabled"] = b.enabled
		changed = append(changed, "enabled")
		b.enabled = enabled
	}
	b.SetDirty()
	if len(changed) > 0 && b.notify != nil {
		b.notify(b.self, changed, prev)
	}
}
