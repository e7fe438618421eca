package darkroom

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
)

// RenderType selects the shape of an export result.
type RenderType string

const (
	RenderTypeImage   RenderType = "image"    // decoded pixels plus encoded bytes
	RenderTypeDataURL RenderType = "data-url" // base64 data URL
	RenderTypeBuffer  RenderType = "buffer"   // encoded bytes
	RenderTypeBlob    RenderType = "blob"     // encoded bytes tagged with a MIME type
	RenderTypeMSBlob  RenderType = "ms-blob"  // same as blob, for legacy consumers
)

// RenderTypes lists every accepted render type.
var RenderTypes = []RenderType{RenderTypeImage, RenderTypeDataURL, RenderTypeBuffer, RenderTypeBlob, RenderTypeMSBlob}

// ImageFormat is an export encoding.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
)

// ImageFormats lists every accepted format.
var ImageFormats = []ImageFormat{FormatPNG, FormatJPEG}

// MIME returns the media type of f.
func (f ImageFormat) MIME() string { return "image/" + string(f) }

// FormatForPath picks the format from a file extension, defaulting to PNG.
func FormatForPath(path string) ImageFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	default:
		return FormatPNG
	}
}

// ExportOptions configures Editor.Export. Zero fields take the editor's
// defaults.
type ExportOptions struct {
	RenderType RenderType
	Format     ImageFormat
	// Quality is the JPEG quality in (0, 1]. Ignored for PNG.
	Quality float64
}

// DefaultExportOptions returns image/png at quality 0.8.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{RenderType: RenderTypeImage, Format: FormatPNG, Quality: 0.8}
}

// withDefaults fills zero fields from def.
func (o ExportOptions) withDefaults(def ExportOptions) ExportOptions {
	if o.RenderType == "" {
		o.RenderType = def.RenderType
	}
	if o.Format == "" {
		o.Format = def.Format
	}
	if o.Quality == 0 {
		o.Quality = def.Quality
	}
	return o
}

// Validate checks every field and returns a *ValidationError for the first
// bad one.
func (o ExportOptions) Validate() error {
	if !containsValue(RenderTypes, o.RenderType) {
		return &ValidationError{Field: "renderType", Value: string(o.RenderType), Allowed: stringsOf(RenderTypes)}
	}
	if !containsValue(ImageFormats, o.Format) {
		return &ValidationError{Field: "imageFormat", Value: string(o.Format), Allowed: stringsOf(ImageFormats)}
	}
	if math.IsNaN(o.Quality) || o.Quality <= 0 || o.Quality > 1 {
		return &ValidationError{Field: "quality", Value: o.Quality, Allowed: []string{"(0, 1]"}}
	}
	return nil
}

func containsValue[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func stringsOf[T ~string](list []T) []string {
	out := make([]string, len(list))
	for i, v := range list {
		out[i] = string(v)
	}
	return out
}

// ExportResult is an encoded export. Which fields are set depends on the
// render type: Image only for "image", DataURL only for "data-url", Data
// for every type but "data-url".
type ExportResult struct {
	Type          RenderType
	Format        ImageFormat
	MIME          string
	Width, Height int

	Image   *image.NRGBA
	Data    []byte
	DataURL string
}

// WriteFile writes the encoded bytes to path.
func (r *ExportResult) WriteFile(path string) error {
	if len(r.Data) == 0 {
		return errors.New("darkroom: export result has no encoded data")
	}
	if err := os.WriteFile(path, r.Data, 0o644); err != nil {
		return fmt.Errorf("darkroom: write %s: %w", path, err)
	}
	return nil
}

// encodeExport un-premultiplies pixels and encodes them.
func encodeExport(px *image.RGBA, o ExportOptions) (*ExportResult, error) {
	img := unpremultiply(px)
	var enc imgio.Encoder
	switch o.Format {
	case FormatJPEG:
		enc = imgio.JPEGEncoder(max(int(math.Round(o.Quality*100)), 1))
	default:
		enc = imgio.PNGEncoder()
	}
	var buf bytes.Buffer
	if err := enc(&buf, img); err != nil {
		return nil, err
	}

	b := img.Bounds()
	res := &ExportResult{Type: o.RenderType, Format: o.Format, MIME: o.Format.MIME(), Width: b.Dx(), Height: b.Dy()}
	switch o.RenderType {
	case RenderTypeDataURL:
		res.DataURL = "data:" + res.MIME + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	case RenderTypeImage:
		res.Image = img
		res.Data = buf.Bytes()
	default:
		res.Data = buf.Bytes()
	}
	return res, nil
}

// unpremultiply converts premultiplied pixels to straight alpha.
func unpremultiply(src *image.RGBA) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		di := img.PixOffset(0, y)
		for x := 0; x < w; x++ {
			r, g, bl, a := src.Pix[si], src.Pix[si+1], src.Pix[si+2], src.Pix[si+3]
			if a > 0 && a < 255 {
				r = uint8(min(int(r)*255/int(a), 255))
				g = uint8(min(int(g)*255/int(a), 255))
				bl = uint8(min(int(bl)*255/int(a), 255))
			}
			img.Pix[di], img.Pix[di+1], img.Pix[di+2], img.Pix[di+3] = r, g, bl, a
			si += 4
			di += 4
		}
	}
	return img
}

// Export renders the stack at full resolution and encodes it. Options are
// validated before any rendering. The preview size and zoom are restored
// afterwards.
func (e *Editor) Export(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	opts = opts.withDefaults(e.exportDefaults)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := e.renderStack(ctx); err != nil {
		return nil, err
	}

	r := e.renderer
	prevW, prevH := r.Size()
	prevZoom := e.zoom.level
	defer func() {
		r.ResizeTo(prevW, prevH)
		e.zoom.level = prevZoom
	}()

	w, h := e.OutputSize()
	r.ResizeTo(w, h)
	e.zoom.level = 1
	e.layoutView(w, h)
	if err := r.Render(e.view); err != nil {
		return nil, err
	}
	px, err := r.ReadPixels(nil)
	if err != nil {
		return nil, err
	}
	res, err := encodeExport(px, opts)
	if err != nil {
		return nil, err
	}
	e.log.Debug("darkroom: exported", "type", res.Type, "format", res.Format, "width", res.Width, "height", res.Height, "bytes", len(res.Data))
	return res, nil
}
