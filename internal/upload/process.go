package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ironsheep/seed-estimator/internal/estimate"
	"github.com/ironsheep/seed-estimator/internal/imaging"
)

// ResultFormat renders a successful estimate.
const ResultFormat = "Total area of the land: %.2f square meters<br>Approximate amount of seeds/plants needed: %.2f seeds/plants"

// Outcome is a successful estimate.
type Outcome struct {
	// Message is the formatted result. It contains a <br> and is rendered unescaped.
	Message string `json:"message"`

	Area     float64 `json:"area"`
	Seeds    float64 `json:"seeds"`
	Density  int     `json:"density"`
	Contours int     `json:"contours"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`

	// Preview is a data: URI of the image with its contours outlined, or
	// empty when previews are off.
	Preview string `json:"preview,omitempty"`
}

// Options configures a Processor.
type Options struct {
	// Dir is where uploads are stored while they are measured. It is created
	// if missing.
	Dir string

	// MaxBytes caps the stored image size. Zero means no limit.
	MaxBytes int64

	// Preview turns on the contour preview.
	Preview bool

	// PreviewSize bounds the preview; zero means imaging.PreviewSize.
	PreviewSize int
}

// Processor handles submissions. It is safe for concurrent use.
type Processor struct {
	opts      Options
	estimator *estimate.Estimator
}

// NewProcessor creates the upload directory if needed and returns a
// processor that measures with est.
func NewProcessor(est *estimate.Estimator, opts Options) (*Processor, error) {
	if est == nil {
		return nil, errors.New("estimator is required")
	}
	if opts.Dir == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if opts.PreviewSize <= 0 {
		opts.PreviewSize = imaging.PreviewSize
	}

	return &Processor{opts: opts, estimator: est}, nil
}

// Dir returns the upload directory.
func (p *Processor) Dir() string {
	return p.opts.Dir
}

// Process validates and measures one submission.
//
// User mistakes come back as an *Error (see AsError). Any other error is an
// internal failure. The stored image is gone by the time Process returns.
func (p *Processor) Process(ctx context.Context, s Submission) (*Outcome, error) {
	log := zerolog.Ctx(ctx)

	density, err := validate(s)
	if err != nil {
		return nil, err
	}
	if density < 0 {
		log.Warn().Int("density", density).Msg("negative seed density")
	}

	var out *Outcome
	err = withTempFile(p.opts.Dir, filepath.Ext(s.FileName), s.File, p.opts.MaxBytes, func(path string) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read upload: %w", err)
		}

		out, err = p.evaluate(data, density)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Float64("area", out.Area).
		Int("contours", out.Contours).
		Str("backend", p.estimator.Name()).
		Msg("estimate computed")
	return out, nil
}

func (p *Processor) evaluate(data []byte, density int) (*Outcome, error) {
	m, err := p.estimator.Measure(data)
	if err != nil {
		switch {
		case errors.Is(err, estimate.ErrUndecodable):
			return nil, newError(ErrNoArea, MsgNoArea, err)
		case errors.Is(err, estimate.ErrTooManyPixels):
			return nil, newError(ErrTooManyPixels, MsgTooManyPixels, err)
		}
		return nil, err
	}
	if m.Area <= 0 {
		return nil, newError(ErrNoArea, MsgNoArea, nil)
	}

	seeds := estimate.SeedAmount(m.Area, density)
	out := &Outcome{
		Message:  fmt.Sprintf(ResultFormat, m.Area, seeds),
		Area:     m.Area,
		Seeds:    seeds,
		Density:  density,
		Contours: len(m.Contours),
		Width:    m.Width,
		Height:   m.Height,
	}

	if p.opts.Preview {
		preview, err := p.preview(data, m)
		if err != nil {
			return nil, err
		}
		out.Preview = preview
	}
	return out, nil
}

func (p *Processor) preview(data []byte, m *estimate.Measurement) (string, error) {
	img, err := imaging.DecodeBytes(data)
	if err != nil {
		return "", err
	}
	res, err := imaging.Preview(img, m.Contours, p.opts.PreviewSize)
	if err != nil {
		return "", err
	}
	return res.DataURI(), nil
}
