package upload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/seed-estimator/internal/estimate"
)

// squarePNG returns a black size x size PNG with a white side x side square
// whose top-left corner is at (off, off).
func squarePNG(t *testing.T, size, off, side int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := off; y < off+side; y++ {
		for x := off; x < off+side; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestProcessor(t *testing.T, opts Options) *Processor {
	t.Helper()
	if opts.Dir == "" {
		opts.Dir = filepath.Join(t.TempDir(), "uploads")
	}
	est, err := estimate.New(estimate.DefaultBackend)
	require.NoError(t, err)
	p, err := NewProcessor(est, opts)
	require.NoError(t, err)
	return p
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "upload directory should be empty")
}

func TestNewProcessor_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	p := newTestProcessor(t, Options{Dir: dir})

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, p.Dir())
}

func TestNewProcessor_Invalid(t *testing.T) {
	est, err := estimate.New("")
	require.NoError(t, err)

	_, err = NewProcessor(nil, Options{Dir: t.TempDir()})
	assert.Error(t, err)

	_, err = NewProcessor(est, Options{})
	assert.Error(t, err)
}

func TestProcess_WhiteSquare(t *testing.T) {
	p := newTestProcessor(t, Options{})

	out, err := p.Process(context.Background(), Submission{
		Density:  "10",
		FileName: "plot.png",
		File:     bytes.NewReader(squarePNG(t, 100, 25, 50)),
	})
	require.NoError(t, err)

	assert.Equal(t, 2401.0, out.Area)
	assert.Equal(t, 24010.0, out.Seeds)
	assert.Equal(t, 10, out.Density)
	assert.Equal(t, 1, out.Contours)
	assert.Equal(t,
		"Total area of the land: 2401.00 square meters<br>Approximate amount of seeds/plants needed: 24010.00 seeds/plants",
		out.Message)
	assert.Empty(t, out.Preview)

	assertDirEmpty(t, p.Dir())
}

func TestProcess_AllBlack(t *testing.T) {
	p := newTestProcessor(t, Options{})

	_, err := p.Process(context.Background(), Submission{
		Density:  "5",
		FileName: "black.png",
		File:     bytes.NewReader(squarePNG(t, 100, 0, 0)),
	})

	uerr, ok := AsError(err)
	require.True(t, ok, "want *Error, got %v", err)
	assert.ErrorIs(t, err, ErrNoArea)
	assert.Equal(t, MsgNoArea, uerr.Message)
	assert.Equal(t, 422, uerr.Status())
	assertDirEmpty(t, p.Dir())
}

func TestProcess_UndecodableImage(t *testing.T) {
	p := newTestProcessor(t, Options{})

	_, err := p.Process(context.Background(), Submission{
		Density:  "10",
		FileName: "notes.txt.png",
		File:     strings.NewReader("just some text"),
	})

	assert.ErrorIs(t, err, ErrNoArea)
	assert.ErrorIs(t, err, estimate.ErrUndecodable)
	assertDirEmpty(t, p.Dir())
}

func TestProcess_ValidationErrors(t *testing.T) {
	img := squarePNG(t, 20, 5, 10)

	tests := []struct {
		name    string
		sub     Submission
		kind    error
		message string
	}{
		{
			name:    "nothing",
			sub:     Submission{},
			kind:    ErrMissingInput,
			message: MsgMissingInput,
		},
		{
			name:    "missing image",
			sub:     Submission{Density: "10"},
			kind:    ErrMissingImage,
			message: MsgMissingImage,
		},
		{
			name:    "empty file part",
			sub:     Submission{Density: "10", FileName: "", File: bytes.NewReader(nil)},
			kind:    ErrMissingImage,
			message: MsgMissingImage,
		},
		{
			name:    "missing density",
			sub:     Submission{FileName: "a.png", File: bytes.NewReader(img)},
			kind:    ErrMissingDensity,
			message: MsgMissingDensity,
		},
		{
			name:    "blank density",
			sub:     Submission{Density: "   ", FileName: "a.png", File: bytes.NewReader(img)},
			kind:    ErrMissingDensity,
			message: MsgMissingDensity,
		},
		{
			name:    "wrong extension",
			sub:     Submission{Density: "10", FileName: "photo.png.txt", File: bytes.NewReader(img)},
			kind:    ErrInvalidFileType,
			message: MsgInvalidFileType,
		},
		{
			name:    "non-numeric density",
			sub:     Submission{Density: "ten", FileName: "a.png", File: bytes.NewReader(img)},
			kind:    ErrInvalidDensity,
			message: MsgInvalidDensity,
		},
		{
			name:    "fractional density",
			sub:     Submission{Density: "2.5", FileName: "a.png", File: bytes.NewReader(img)},
			kind:    ErrInvalidDensity,
			message: MsgInvalidDensity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProcessor(t, Options{})

			out, err := p.Process(context.Background(), tt.sub)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.kind)

			uerr, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.message, uerr.Message)
			assert.Equal(t, 400, uerr.Status())
			assertDirEmpty(t, p.Dir())
		})
	}
}

func TestProcess_ExtensionCaseAndDoubleExtension(t *testing.T) {
	p := newTestProcessor(t, Options{})
	img := squarePNG(t, 40, 10, 20)

	for _, name := range []string{"PLOT.PNG", "document.exe.jpg", "x.txt.png", "field.JpEg"} {
		t.Run(name, func(t *testing.T) {
			// JPEG-named files holding PNG data still decode: the content decides.
			out, err := p.Process(context.Background(), Submission{
				Density: "1", FileName: name, File: bytes.NewReader(img),
			})
			require.NoError(t, err)
			assert.Equal(t, 19.0*19.0, out.Area)
		})
	}
	assertDirEmpty(t, p.Dir())
}

func TestProcess_NegativeDensityPassesThrough(t *testing.T) {
	p := newTestProcessor(t, Options{})

	out, err := p.Process(context.Background(), Submission{
		Density: "-2", FileName: "plot.png", File: bytes.NewReader(squarePNG(t, 100, 25, 50)),
	})
	require.NoError(t, err)
	assert.Equal(t, -4802.0, out.Seeds)
}

func TestProcess_TooLarge(t *testing.T) {
	data := squarePNG(t, 100, 25, 50)
	p := newTestProcessor(t, Options{MaxBytes: int64(len(data) - 1)})

	_, err := p.Process(context.Background(), Submission{
		Density: "1", FileName: "plot.png", File: bytes.NewReader(data),
	})

	uerr, ok := AsError(err)
	require.True(t, ok)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, 413, uerr.Status())
	assertDirEmpty(t, p.Dir())
}

func TestProcess_TooManyPixels(t *testing.T) {
	est, err := estimate.New(estimate.DefaultBackend)
	require.NoError(t, err)
	p, err := NewProcessor(est.WithMaxPixels(50*50), Options{Dir: t.TempDir()})
	require.NoError(t, err)

	_, err = p.Process(context.Background(), Submission{
		Density: "1", FileName: "plot.png", File: bytes.NewReader(squarePNG(t, 100, 25, 50)),
	})

	uerr, ok := AsError(err)
	require.True(t, ok, "want *Error, got %v", err)
	assert.ErrorIs(t, err, ErrTooManyPixels)
	assert.ErrorIs(t, err, estimate.ErrTooManyPixels)
	assert.Equal(t, MsgTooManyPixels, uerr.Message)
	assert.Equal(t, 413, uerr.Status())
	assert.Equal(t, "too_many_pixels", uerr.KindName())
	assertDirEmpty(t, p.Dir())
}

func TestProcess_CancelledContext(t *testing.T) {
	p := newTestProcessor(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, Submission{
		Density: "1", FileName: "plot.png", File: bytes.NewReader(squarePNG(t, 40, 10, 20)),
	})

	assert.ErrorIs(t, err, context.Canceled)
	_, isUser := AsError(err)
	assert.False(t, isUser)
	assertDirEmpty(t, p.Dir())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestProcess_ReadFailure(t *testing.T) {
	p := newTestProcessor(t, Options{})

	_, err := p.Process(context.Background(), Submission{
		Density: "1", FileName: "plot.png", File: io.MultiReader(strings.NewReader("partial"), failingReader{}),
	})

	require.Error(t, err)
	_, isUser := AsError(err)
	assert.False(t, isUser)
	assertDirEmpty(t, p.Dir())
}

func TestProcess_PanicStillRemovesFile(t *testing.T) {
	estimate.Register("panics", estimate.BackendFunc(func([]byte) (*estimate.Measurement, error) {
		panic("decoder exploded")
	}))
	est, err := estimate.New("panics")
	require.NoError(t, err)

	dir := t.TempDir()
	p, err := NewProcessor(est, Options{Dir: dir})
	require.NoError(t, err)

	assert.Panics(t, func() {
		_, _ = p.Process(context.Background(), Submission{
			Density: "1", FileName: "plot.png", File: bytes.NewReader(squarePNG(t, 40, 10, 20)),
		})
	})
	assertDirEmpty(t, dir)
}

func TestProcess_Preview(t *testing.T) {
	p := newTestProcessor(t, Options{Preview: true})

	out, err := p.Process(context.Background(), Submission{
		Density: "3", FileName: "plot.png", File: bytes.NewReader(squarePNG(t, 100, 25, 50)),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.Preview, "data:image/png;base64,"))
}

func TestProcess_Concurrent(t *testing.T) {
	p := newTestProcessor(t, Options{})
	data := squarePNG(t, 100, 25, 50)

	errs := make(chan error, 16)
	for i := 0; i < cap(errs); i++ {
		go func() {
			out, err := p.Process(context.Background(), Submission{
				Density: "10", FileName: "same-name.png", File: bytes.NewReader(data),
			})
			if err == nil && out.Area != 2401 {
				err = errors.New("wrong area")
			}
			errs <- err
		}()
	}
	for i := 0; i < cap(errs); i++ {
		assert.NoError(t, <-errs)
	}
	assertDirEmpty(t, p.Dir())
}
