package darkroom

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// LoadBaseTexture starts decoding r on a background goroutine and returns
// immediately. Use Poll, WaitLoaded or OnLoaded to observe completion.
func LoadBaseTexture(r io.Reader) *BaseTexture {
	bt := &BaseTexture{
		handles: make(map[ContextID]any),
		pending: make(chan loadResult, 1),
	}
	go func(out chan<- loadResult) {
		data, err := io.ReadAll(r)
		if err != nil {
			out <- loadResult{err: fmt.Errorf("darkroom: read image: %w", err)}
			return
		}
		img, err := DecodeImage(data)
		out <- loadResult{img: img, err: err}
	}(bt.pending)
	return bt
}

// LoadBaseTextureFile opens path and loads it like LoadBaseTexture. The file
// is read fully before the call returns; decoding happens in the background.
func LoadBaseTextureFile(path string) (*BaseTexture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("darkroom: load %s: %w", path, err)
	}
	return LoadBaseTexture(bytes.NewReader(data)), nil
}

// DecodeImage sniffs data and decodes it into a zero-origin RGBA image.
// Non-image data fails with ErrNotImage.
func DecodeImage(data []byte) (*image.RGBA, error) {
	if !filetype.IsImage(data) {
		kind, _ := filetype.Match(data)
		return nil, fmt.Errorf("darkroom: decode %s data: %w", kind.Extension, ErrNotImage)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("darkroom: decode %s: %w", format, err)
	}
	return toRGBA(img), nil
}
