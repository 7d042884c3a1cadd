// Package estimate measures the land area shown in an image and turns it into
// a seed recommendation.
//
// The area is the sum of the polygon areas of the external contours found
// after binarizing the image at a fixed threshold. Holes and shapes nested
// inside another shape do not count. Units are square pixels, reported to the
// user as square meters.
//
// Two backends compute the same measurement:
//   - "native": pure Go, always available
//   - "opencv": OpenCV through gocv, compiled in with -tags gocv
//
// Area and SeedAmount are pure functions and safe for concurrent use.
package estimate
