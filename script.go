package darkroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// scriptStep is a single editor action in a script.
type scriptStep struct {
	Action     string         `json:"action"`
	Identifier string         `json:"identifier,omitempty"`
	Index      int            `json:"index,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
	Enabled    *bool          `json:"enabled,omitempty"`
	Level      float64        `json:"level,omitempty"`
	Animate    bool           `json:"animate,omitempty"`
	Frames     int            `json:"frames,omitempty"`
	Path       string         `json:"path,omitempty"`
	Format     string         `json:"format,omitempty"`
	Quality    float64        `json:"quality,omitempty"`
}

// script is the top-level JSON structure of an editor script.
type script struct {
	Steps []scriptStep `json:"steps"`
}

// ScriptRunner replays editor actions one per tick, for demos and visual
// checks. Attach it to a Host.
//
//	{"steps": [
//	  {"action": "create", "identifier": "crop", "options": {"end": [0.5, 0.5]}},
//	  {"action": "zoom", "level": 2, "animate": true},
//	  {"action": "wait", "frames": 30},
//	  {"action": "export", "path": "out.png"}
//	]}
//
// Actions: create, set, enable, remove, undo, zoom, wait, export.
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
	exported  []string
}

// LoadScript parses a JSON editor script.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var s script
	if err := json.Unmarshal(jsonData, &s); err != nil {
		return nil, fmt.Errorf("darkroom: parse script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, errors.New("darkroom: parse script: no steps")
	}
	return &ScriptRunner{steps: s.Steps}, nil
}

// Done reports whether every step has run.
func (r *ScriptRunner) Done() bool { return r.done }

// Exported returns the paths written by export steps so far.
func (r *ScriptRunner) Exported() []string { return r.exported }

// step runs at most one action against e.
func (r *ScriptRunner) step(ctx context.Context, e *Editor) error {
	if r.done {
		return nil
	}
	if r.waitCount > 0 {
		r.waitCount--
		return nil
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return nil
	}

	st := r.steps[r.cursor]
	r.cursor++
	if err := r.run(ctx, e, st); err != nil {
		return fmt.Errorf("darkroom: script step %d (%s): %w", r.cursor-1, st.Action, err)
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
	return nil
}

func (r *ScriptRunner) run(ctx context.Context, e *Editor, st scriptStep) error {
	switch st.Action {
	case "create":
		_, err := e.CreateOperation(st.Identifier, st.Options)
		return err
	case "set":
		op := e.stack.At(st.Index)
		if op == nil {
			return fmt.Errorf("no operation at index %d", st.Index)
		}
		return op.Set(st.Options)
	case "enable":
		on := st.Enabled == nil || *st.Enabled
		e.SetFeatureEnabled(st.Identifier, on)
	case "remove":
		op := e.stack.At(st.Index)
		if op == nil {
			return fmt.Errorf("no operation at index %d", st.Index)
		}
		e.RemoveOperation(op)
	case "undo":
		e.Undo()
	case "zoom":
		if st.Animate {
			e.ZoomTo(st.Level)
		} else {
			e.SetZoom(st.Level)
		}
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this tick counts as one
		}
	case "export":
		opts := ExportOptions{RenderType: RenderTypeBuffer, Format: ImageFormat(st.Format), Quality: st.Quality}
		if opts.Format == "" {
			opts.Format = FormatForPath(st.Path)
		}
		res, err := e.Export(ctx, opts)
		if err != nil {
			return err
		}
		if err := res.WriteFile(st.Path); err != nil {
			return err
		}
		r.exported = append(r.exported, st.Path)
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return nil
}
