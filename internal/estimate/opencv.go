//go:build gocv

package estimate

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ironsheep/seed-estimator/internal/contour"
)

// OpenCVBackend is the name the OpenCV backend registers under.
const OpenCVBackend = "opencv"

func init() {
	Register(OpenCVBackend, opencvBackend{})
}

// opencvBackend runs the same pipeline through OpenCV.
type opencvBackend struct{}

func (opencvBackend) Measure(data []byte) (*Measurement, error) {
	src, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	defer src.Close()
	if src.Empty() {
		return nil, fmt.Errorf("%w: empty matrix", ErrUndecodable)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	// THRESH_BINARY keeps pixels strictly above the level, so 126 keeps >= 127.
	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, 126, 255, gocv.ThresholdBinary)

	found := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	m := &Measurement{Width: src.Cols(), Height: src.Rows()}
	for i := 0; i < found.Size(); i++ {
		pv := found.At(i)
		m.Area += gocv.ContourArea(pv)
		m.Contours = append(m.Contours, contour.Contour(pv.ToPoints()))
	}
	return m, nil
}
