// Package webtest builds requests and images for front-end tests.
package webtest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

// Field is one multipart form field. A non-nil File makes it a file part.
type Field struct {
	Name     string
	Value    string
	FileName string
	File     []byte
}

// UploadRequest builds a multipart POST to target.
func UploadRequest(t testing.TB, target string, fields ...Field) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range fields {
		if f.File == nil {
			if err := mw.WriteField(f.Name, f.Value); err != nil {
				t.Fatalf("failed to write field: %v", err)
			}
			continue
		}
		part, err := mw.CreateFormFile(f.Name, f.FileName)
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		if _, err := part.Write(f.File); err != nil {
			t.Fatalf("failed to write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// SquarePNG returns a black size x size PNG with a white side x side square
// at (off, off).
func SquarePNG(t testing.TB, size, off, side int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := off; y < off+side; y++ {
		for x := off; x < off+side; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}
