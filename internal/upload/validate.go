package upload

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// allowedExtensions are matched against the lowercased final extension.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Submission is one form post, independent of the web framework it came from.
type Submission struct {
	// Density is the raw "density" field. Blank means absent.
	Density string

	// FileName is the client-supplied name of the "image" part. It is only
	// used for the extension check.
	FileName string

	// File is the "image" part. Nil means absent.
	File io.Reader
}

// HasImage reports whether an image part was sent. Browsers send an unnamed,
// empty part when no file was chosen.
func (s Submission) HasImage() bool {
	return s.File != nil && s.FileName != ""
}

// HasDensity reports whether a non-blank density was sent.
func (s Submission) HasDensity() bool {
	return strings.TrimSpace(s.Density) != ""
}

// AllowedExtension reports whether name ends in .png, .jpg or .jpeg, ignoring
// case. Only the final extension counts: "x.txt.png" is accepted and
// "photo.png.txt" is not.
func AllowedExtension(name string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// validate checks presence, extension and density, in that order, and returns
// the parsed density.
func validate(s Submission) (int, error) {
	hasImage, hasDensity := s.HasImage(), s.HasDensity()
	switch {
	case !hasImage && !hasDensity:
		return 0, newError(ErrMissingInput, MsgMissingInput, nil)
	case !hasImage:
		return 0, newError(ErrMissingImage, MsgMissingImage, nil)
	case !hasDensity:
		return 0, newError(ErrMissingDensity, MsgMissingDensity, nil)
	}

	if !AllowedExtension(s.FileName) {
		return 0, newError(ErrInvalidFileType, MsgInvalidFileType, nil)
	}

	density, err := strconv.Atoi(strings.TrimSpace(s.Density))
	if err != nil {
		return 0, newError(ErrInvalidDensity, MsgInvalidDensity, err)
	}
	return density, nil
}
