package estimate

import (
	"fmt"

	"github.com/ironsheep/seed-estimator/internal/contour"
	"github.com/ironsheep/seed-estimator/internal/imaging"
)

func init() {
	Register(DefaultBackend, nativeBackend{})
}

// nativeBackend decodes with the imaging package and traces contours in Go.
type nativeBackend struct{}

func (nativeBackend) Measure(data []byte) (*Measurement, error) {
	img, err := imaging.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	binary := imaging.Binarize(img)
	contours := contour.External(contour.FromGray(binary))

	return &Measurement{
		Width:    binary.Bounds().Dx(),
		Height:   binary.Bounds().Dy(),
		Contours: contours,
		Area:     contour.TotalArea(contours),
	}, nil
}
