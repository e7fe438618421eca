// Command darkroom applies a recipe of operations to an image and exports
// the result, headless, on the rasterizer backend.
//
//	darkroom -in photo.jpg -recipe edit.yaml -out result.png
//	darkroom -in photo.jpg -recipe edit.toml -out result.jpg -quality 0.9 -watch
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/phanxgames/darkroom"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "darkroom:", err)
		os.Exit(1)
	}
}

func run() error {
	in := flag.String("in", "", "input image (png, jpeg, gif, bmp, tiff, webp)")
	recipePath := flag.String("recipe", "", "recipe of operations (.yaml or .toml)")
	out := flag.String("out", "out.png", "output file")
	format := flag.String("format", "", "png or jpeg (default from -out extension)")
	quality := flag.Float64("quality", 0, "jpeg quality in (0, 1] (default from config)")
	configPath := flag.String("config", "", "editor config (.yaml or .toml)")
	watch := flag.Bool("watch", false, "re-export whenever the recipe changes")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		return errors.New("-in is required")
	}

	cfg := darkroom.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = darkroom.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	if *verbose {
		cfg.LogLevel = darkroom.LogLevelDebug.String()
	}
	log := cfg.Logger(os.Stderr)
	darkroom.SetLogger(log)

	img, err := darkroom.LoadBaseTextureFile(*in)
	if err != nil {
		return err
	}
	opts := cfg.EditorOptions(log)
	opts.Backend = darkroom.BackendCanvas
	editor, err := darkroom.NewEditor(img, opts)
	if err != nil {
		return err
	}
	defer editor.Dispose()

	exp := darkroom.ExportOptions{
		RenderType: darkroom.RenderTypeBuffer,
		Format:     darkroom.ImageFormat(strings.ToLower(*format)),
		Quality:    *quality,
	}
	if exp.Format == "" {
		exp.Format = darkroom.FormatForPath(*out)
	}
	if exp.Format == "jpg" {
		exp.Format = darkroom.FormatJPEG
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j := &job{editor: editor, recipe: *recipePath, out: *out, export: exp, log: log}
	if err := j.run(ctx); err != nil {
		if !*watch {
			return err
		}
		log.Error("darkroom: export failed", "err", err)
	}
	if !*watch {
		return nil
	}
	if *recipePath == "" {
		return errors.New("-watch needs -recipe")
	}
	return watchRecipe(ctx, j)
}

// job rebuilds the stack from the recipe and exports once.
type job struct {
	editor *darkroom.Editor
	recipe string
	out    string
	export darkroom.ExportOptions
	log    *slog.Logger
}

func (j *job) run(ctx context.Context) error {
	j.editor.ClearOperations()
	if j.recipe != "" {
		r, err := darkroom.LoadRecipe(j.recipe)
		if err != nil {
			return err
		}
		if _, err := r.Apply(j.editor); err != nil {
			return err
		}
	}
	res, err := j.editor.Export(ctx, j.export)
	if err != nil {
		return err
	}
	if err := res.WriteFile(j.out); err != nil {
		return err
	}
	j.log.Info("darkroom: wrote", "path", j.out, "width", res.Width, "height", res.Height, "format", res.Format)
	return nil
}
