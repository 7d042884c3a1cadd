package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"

	"github.com/disintegration/imaging"
)

// ErrEmpty is returned when there are no bytes to decode.
var ErrEmpty = errors.New("empty image data")

// Decode reads and decodes an image from r.
//
// The EXIF orientation tag is applied, so the returned image is upright. The
// concrete type depends on the format (e.g. *image.NRGBA, *image.YCbCr).
//
// # Errors
//
//   - Returns error if r cannot be read
//   - Returns error if the data is not a valid PNG, JPEG or GIF image
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeBytes decodes an in-memory image. Empty input yields ErrEmpty.
func DecodeBytes(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return Decode(bytes.NewReader(data))
}

// Load opens and decodes the image file at path.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Info is what can be learned about an image from its header alone.
type Info struct {
	// Width is the stored image width in pixels, before any EXIF rotation.
	Width int `json:"width"`

	// Height is the stored image height in pixels.
	Height int `json:"height"`

	// Format is the name the decoder registered: "png", "jpeg" or "gif".
	Format string `json:"format"`
}

// Inspect reads only the image header. It is used to reject oversized or
// unknown images before committing to a full decode.
func Inspect(data []byte) (*Info, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	return &Info{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
	}, nil
}
