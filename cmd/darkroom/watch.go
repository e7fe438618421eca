package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is how long the recipe must stay quiet before an export runs.
// Editors often write a file in several steps.
const debounce = 100 * time.Millisecond

// watchRecipe re-runs j every time the recipe file changes, until ctx ends.
// The directory is watched rather than the file so editors that replace the
// file on save keep triggering.
func watchRecipe(ctx context.Context, j *job) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	target, err := filepath.Abs(j.recipe)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		return err
	}
	j.log.Info("darkroom: watching", "recipe", target)

	rw := recipeWatch{target: target, wait: debounce, run: j.run, log: j.log}
	return rw.loop(ctx, w.Events, w.Errors)
}

// recipeWatch runs once per burst of changes to target, after the last event
// of the burst.
type recipeWatch struct {
	target string
	wait   time.Duration
	run    func(context.Context) error
	log    *slog.Logger
}

func (rw *recipeWatch) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	timer := time.NewTimer(rw.wait)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if name, _ := filepath.Abs(ev.Name); name != rw.target {
				continue
			}
			timer.Reset(rw.wait)
		case <-timer.C:
			if err := rw.run(ctx); err != nil {
				rw.log.Error("darkroom: export failed", "recipe", rw.target, "err", err)
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			rw.log.Warn("darkroom: watch error", "err", err)
		}
	}
}
