// Package contour finds the boundaries of foreground regions in a binary image.
//
// Borders are traced with the Suzuki–Abe border following algorithm over a
// gonum matrix holding 0 (background) and 1 (foreground). Every border gets a
// type (outer or hole) and a parent, which is enough to select the external
// contours: outer borders whose parent is the image frame.
//
// # Coordinate System
//
// Contour points are image.Point values with X = column and Y = row, both
// 0-based from the top-left corner. Points sit on pixel centres, so a filled
// axis-aligned square of side n pixels encloses a polygon area of (n-1)².
//
// # Image Border
//
// The outermost ring of pixels is always treated as background. A region
// touching the image edge is therefore traced one pixel inside the edge,
// the same way OpenCV's findContours behaves.
//
// # Approximation
//
// Simplify drops every point that lies on a straight horizontal, vertical or
// diagonal run between its neighbours, keeping only the run end points.
// Polygon area is unchanged by this compression.
package contour
