package contour

import "image"

// Simplify compresses straight horizontal, vertical and diagonal runs of a
// closed contour down to their end points.
//
// Contours with fewer than three points are returned unchanged. A one-pixel-wide
// stroke, traced out and back, keeps its two end points and has zero area.
func Simplify(points Contour) Contour {
	n := len(points)
	if n < 3 {
		return append(Contour(nil), points...)
	}

	out := make(Contour, 0, 8)
	for i := 0; i < n; i++ {
		prev := points[(i-1+n)%n]
		cur := points[i]
		next := points[(i+1)%n]
		if step(prev, cur) != step(cur, next) {
			out = append(out, cur)
		}
	}
	if len(out) == 0 {
		out = append(out, points[0])
	}
	return out
}

// step returns the unit chain step from a to b.
func step(a, b image.Point) image.Point {
	return image.Point{X: sign(b.X - a.X), Y: sign(b.Y - a.Y)}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
