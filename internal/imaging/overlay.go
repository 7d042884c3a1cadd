package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/seed-estimator/internal/contour"
)

// PreviewSize bounds both sides of a rendered preview.
const PreviewSize = 640

// PreviewResult is a PNG rendering of an image with its contours outlined.
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Contours    int    `json:"contours"`
}

// DataURI returns the preview as a data: URI suitable for an <img> src.
func (p *PreviewResult) DataURI() string {
	return "data:" + p.MimeType + ";base64," + p.ImageBase64
}

// Palette returns n fully saturated colours with evenly spaced hues.
func Palette(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		hue := 360 * float64(i) / float64(n)
		r, g, b := colorful.Hsv(hue, 0.9, 1).Clamped().RGB255()
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// DrawContours returns a copy of img with every contour outlined as a closed
// polygon, each in its own palette colour. Contour points are relative to the
// top-left pixel of img.
func DrawContours(img image.Image, contours []contour.Contour, lineWidth int) *image.RGBA {
	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	if lineWidth < 1 {
		lineWidth = 1
	}

	colors := Palette(len(contours))
	for i, c := range contours {
		n := len(c)
		for j := 0; j < n; j++ {
			drawLine(result, c[j], c[(j+1)%n], lineWidth, colors[i])
		}
	}
	return result
}

// Preview outlines the contours on img, scales the result to fit inside
// maxSize x maxSize and encodes it as PNG.
func Preview(img image.Image, contours []contour.Contour, maxSize int) (*PreviewResult, error) {
	if maxSize <= 0 {
		maxSize = PreviewSize
	}

	bounds := img.Bounds()
	lineWidth := max(bounds.Dx(), bounds.Dy())/maxSize + 1
	outlined := DrawContours(img, contours, lineWidth)
	fitted := imaging.Fit(outlined, maxSize, maxSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:       fitted.Bounds().Dx(),
		Height:      fitted.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Contours:    len(contours),
	}, nil
}

// drawLine draws a Bresenham line from a to b with square pens of side width.
func drawLine(img *image.RGBA, a, b image.Point, width int, c color.Color) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	err := dx + dy
	x, y := a.X, a.Y
	for {
		plot(img, x, y, width, c)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func plot(img *image.RGBA, x, y, width int, c color.Color) {
	bounds := img.Bounds()
	half := width / 2
	for py := y - half; py < y-half+width; py++ {
		for px := x - half; px < x-half+width; px++ {
			if (image.Point{X: px, Y: py}).In(bounds) {
				img.Set(px, py, c)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
