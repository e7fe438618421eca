// Package darkroom is a non-destructive image editing engine for [Ebitengine].
//
// An [Editor] holds an input image and an ordered stack of operations
// (crop, orientation, filters, adjustments, focus, border, frame, watermark,
// sprites and more). Each operation renders its input into a cached output.
// Changing an option re-renders only that operation and the ones after it;
// everything before it is served from cache.
//
// # Backends
//
// Two renderers draw the same scene graph:
//
//   - [BackendWebGL] runs on the GPU through ebiten images and Kage shaders.
//     It needs a running game loop, so it is usually created by a [Host].
//   - [BackendCanvas] rasterizes into in-memory RGBA buffers on the CPU. It
//     works headless and is what the darkroom command uses.
//
// [NewRenderer] falls back to the rasterizer when the GPU is not available,
// and an editor switches to it if the GPU context is abandoned.
//
// # Quick start
//
//	img, err := darkroom.LoadBaseTextureFile("photo.jpg")
//	if err != nil { ... }
//	e, err := darkroom.NewEditor(img, darkroom.EditorOptions{Backend: darkroom.BackendCanvas})
//	if err != nil { ... }
//	defer e.Dispose()
//
//	e.CreateOperation("crop", map[string]any{"start": []any{0.1, 0.1}, "end": []any{0.9, 0.9}})
//	e.CreateOperation("filters", map[string]any{"filter": "sepia"})
//
//	res, err := e.Export(ctx, darkroom.ExportOptions{RenderType: darkroom.RenderTypeBuffer})
//	if err != nil { ... }
//	res.WriteFile("out.png")
//
// # Operations and options
//
// Operations are created by identifier through a [Registry]. Each declares
// a [Schema] of typed options; values are coerced and validated on Set, and
// a rejected Set leaves every option unchanged. When an orientation or crop
// changes, later operations that store positions (focus, sprites) correct
// themselves so they keep pointing at the same part of the image.
//
// # Events and history
//
// The editor reports what happens on its [EventBus]. Use [Subscribe] for a
// typed handler:
//
//	darkroom.Subscribe(e.Events(), func(ev darkroom.OperationUpdated) {
//		log.Println(ev.Identifier(), ev.Changed)
//	})
//
// Option changes, additions and removals are recorded for [Editor.Undo].
//
// # Configuration
//
// [LoadConfig] reads editor settings and [LoadRecipe] reads a list of
// operations, both from YAML or TOML.
//
// [Ebitengine]: https://ebitengine.org
package darkroom
