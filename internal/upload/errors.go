package upload

import (
	"errors"
	"net/http"
)

// Error kinds. Every *Error returned by Process wraps exactly one of them.
var (
	ErrMissingInput    = errors.New("missing density and image")
	ErrMissingImage    = errors.New("missing image")
	ErrMissingDensity  = errors.New("missing density")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrInvalidDensity  = errors.New("invalid density")
	ErrTooLarge        = errors.New("image too large")
	ErrTooManyPixels   = errors.New("image dimensions too large")
	ErrNoArea          = errors.New("no area found")
)

// Messages shown to the user.
const (
	MsgMissingInput    = "Please provide both seed density and image."
	MsgMissingImage    = "Please upload an image of the land."
	MsgMissingDensity  = "Please provide the seed density."
	MsgInvalidFileType = "Invalid file type. Please upload a valid image."
	MsgInvalidDensity  = "Seed density must be a whole number."
	MsgTooLarge        = "The uploaded image is too large."
	MsgTooManyPixels   = "The uploaded image has too many pixels. Please upload a smaller image."
	MsgNoArea          = "Could not calculate the area from the uploaded image."
)

// Error is a failure the user caused and can fix.
type Error struct {
	// Kind is one of the Err* sentinels above.
	Kind error

	// Message is safe to render.
	Message string

	// Err is the underlying cause, if any. It is for logs only.
	Err error
}

func newError(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.Error() + ": " + e.Err.Error()
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Status is the HTTP status an adapter should answer with.
func (e *Error) Status() int {
	switch e.Kind {
	case ErrTooLarge, ErrTooManyPixels:
		return http.StatusRequestEntityTooLarge
	case ErrNoArea:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// KindName is a short, stable label for the error kind, used in logs and metrics.
func (e *Error) KindName() string {
	switch e.Kind {
	case ErrMissingInput:
		return "missing_input"
	case ErrMissingImage:
		return "missing_image"
	case ErrMissingDensity:
		return "missing_density"
	case ErrInvalidFileType:
		return "invalid_file_type"
	case ErrInvalidDensity:
		return "invalid_density"
	case ErrTooLarge:
		return "too_large"
	case ErrTooManyPixels:
		return "too_many_pixels"
	case ErrNoArea:
		return "no_area"
	default:
		return "unknown"
	}
}

// AsError returns the *Error inside err, if there is one.
func AsError(err error) (*Error, bool) {
	var uerr *Error
	if errors.As(err, &uerr) {
		return uerr, true
	}
	return nil, false
}
