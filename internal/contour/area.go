package contour

import "math"

// Area returns the absolute area enclosed by a closed polygon (shoelace formula).
//
// The contour is treated as a polygon through its points, not as a pixel
// count. Contours with fewer than three points enclose no area.
func Area(points Contour) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}

	var sum int64
	for i := 0; i < n; i++ {
		a := points[i]
		b := points[(i+1)%n]
		sum += int64(a.X)*int64(b.Y) - int64(b.X)*int64(a.Y)
	}
	return math.Abs(float64(sum)) / 2
}

// TotalArea sums Area over every contour.
func TotalArea(contours []Contour) float64 {
	var total float64
	for _, c := range contours {
		total += Area(c)
	}
	return total
}
