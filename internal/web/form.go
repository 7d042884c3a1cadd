package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/ironsheep/seed-estimator/internal/upload"
)

// Form field names.
const (
	FieldDensity = "density"
	FieldImage   = "image"
)

// multipartMemory is how much of a form is kept in memory before spilling to disk.
const multipartMemory = 8 << 20

// FormOverhead is the room a request body gets on top of the image size
// limit, for multipart boundaries, part headers and the density field.
const FormOverhead = 1 << 20

// BodyLimit returns the request body cap for an upload form whose image may
// be up to maxImageBytes. The image itself is held to maxImageBytes when it
// is stored.
func BodyLimit(maxImageBytes int64) int64 {
	return maxImageBytes + FormOverhead
}

// ReadSubmission parses the upload form of r into a Submission. maxBytes is
// the image size limit; the body is capped at BodyLimit(maxBytes). The
// returned cleanup closes the file part and removes any multipart spill
// files; it must be called once the submission has been processed.
func ReadSubmission(w http.ResponseWriter, r *http.Request, maxBytes int64) (upload.Submission, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, BodyLimit(maxBytes))
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return upload.Submission{}, func() {}, TranslateBodyError(err)
	}

	sub := upload.Submission{Density: r.FormValue(FieldDensity)}
	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	f, header, err := r.FormFile(FieldImage)
	if err == nil {
		sub.File = f
		sub.FileName = header.Filename
		return sub, func() { _ = f.Close(); cleanup() }, nil
	}
	if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return sub, cleanup, fmt.Errorf("failed to read image part: %w", err)
	}
	return sub, cleanup, nil
}

// OpenFileHeader opens a multipart file header into a Submission's File and
// FileName. Used by frameworks that hand out *multipart.FileHeader.
func OpenFileHeader(sub *upload.Submission, fh *multipart.FileHeader) (func(), error) {
	f, err := fh.Open()
	if err != nil {
		return func() {}, fmt.Errorf("failed to open image part: %w", err)
	}
	sub.File = f
	sub.FileName = fh.Filename
	return func() { _ = f.Close() }, nil
}

// TranslateBodyError maps a form parsing failure to the user error it
// stands for: an oversized body is upload.ErrTooLarge, anything else is a
// form the browser did not fill in properly.
func TranslateBodyError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return &upload.Error{Kind: upload.ErrTooLarge, Message: upload.MsgTooLarge, Err: err}
	}
	return &upload.Error{Kind: upload.ErrMissingInput, Message: upload.MsgMissingInput, Err: err}
}

// Healthz answers liveness checks.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}
