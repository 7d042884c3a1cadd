package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// ThresholdLevel is the fixed cutoff used to separate land from background.
// Pixels at or above it are foreground.
const ThresholdLevel = 127

// ITU-R BT.601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Grayscale converts img to single-channel 8-bit luma. The result always has
// its origin at (0,0).
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	gray := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return gray
	}

	rgba := effect.GrayscaleWithWeights(img, lumaR, lumaG, lumaB)
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		dst := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return gray
}

// Threshold maps every pixel >= level to 255 and every other pixel to 0.
// The input is not modified.
func Threshold(g *image.Gray, level uint8) *image.Gray {
	bounds := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		src := g.Pix[y*g.Stride : y*g.Stride+bounds.Dx()]
		dst := out.Pix[y*out.Stride : y*out.Stride+bounds.Dx()]
		for x, v := range src {
			if v >= level {
				dst[x] = 255
			}
		}
	}
	return out
}

// Binarize is Grayscale followed by Threshold at ThresholdLevel.
func Binarize(img image.Image) *image.Gray {
	return Threshold(Grayscale(img), ThresholdLevel)
}
