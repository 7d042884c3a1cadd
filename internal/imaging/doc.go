// Package imaging turns uploaded image bytes into the binary picture the
// contour tracer works on, and renders the contour preview shown next to a
// result.
//
// # Pipeline
//
//	bytes -> Decode -> Grayscale -> Threshold(127) -> *image.Gray (0 or 255)
//
// Decoding honours the EXIF orientation tag of JPEG photos, so a plot shot in
// portrait is measured the way it is displayed. PNG, JPEG and GIF decoders are
// registered; which extensions are accepted is decided by the caller.
//
// # Coordinate System
//
// All results are re-based so that (0,0) is the top-left pixel, X increases
// rightward and Y increases downward, whatever the bounds of the source image.
//
// # Transparency
//
// Alpha is dropped the way a three-channel decode drops it: colours are
// premultiplied first, so fully transparent pixels read as black.
//
// # Thread Safety
//
// Every function is stateless and may be called concurrently.
package imaging
