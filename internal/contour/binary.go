package contour

import (
	"image"

	"gonum.org/v1/gonum/mat"
)

// FromGray converts a thresholded grayscale image into a 0/1 matrix.
// Any non-zero pixel becomes 1. The matrix is rows × cols = height × width.
// An empty image yields nil.
func FromGray(g *image.Gray) *mat.Dense {
	bounds := g.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	data := make([]float64, width*height)
	for y := 0; y < height; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+width]
		for x, v := range row {
			if v != 0 {
				data[y*width+x] = 1
			}
		}
	}
	return mat.NewDense(height, width, data)
}
