package estimate

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/ironsheep/seed-estimator/internal/contour"
	"github.com/ironsheep/seed-estimator/internal/imaging"
)

var (
	// ErrUndecodable is returned when the bytes are not an image any backend can read.
	ErrUndecodable = errors.New("image could not be decoded")

	// ErrTooManyPixels is returned when the image header declares more pixels
	// than the estimator accepts. Nothing beyond the header is decoded.
	ErrTooManyPixels = errors.New("image has too many pixels")
)

// DefaultBackend is used when no backend is named.
const DefaultBackend = "native"

// DefaultMaxPixels caps the decoded size of one image (4096x4096). The
// pipeline holds several full-size copies, so memory grows with pixels, not
// with the compressed upload size.
const DefaultMaxPixels int64 = 4096 * 4096

// Measurement is what a backend saw in one image.
type Measurement struct {
	// Width and Height are the decoded image dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Contours are the external contours, simplified, in raster order.
	Contours []contour.Contour `json:"-"`

	// Area is the summed polygon area of Contours. Never negative.
	Area float64 `json:"area"`
}

// Backend measures raw image bytes.
type Backend interface {
	Measure(data []byte) (*Measurement, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(data []byte) (*Measurement, error)

// Measure calls f(data).
func (f BackendFunc) Measure(data []byte) (*Measurement, error) {
	return f(data)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Backend{}
)

// Register makes a backend available by name. Registering the same name
// twice replaces the earlier backend.
func Register(name string, b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = b
}

// Backends returns the names of the compiled-in backends, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Estimator measures images with one backend.
type Estimator struct {
	name      string
	backend   Backend
	maxPixels int64
}

// New returns an Estimator for the named backend. An empty name selects
// DefaultBackend.
func New(name string) (*Estimator, error) {
	if name == "" {
		name = DefaultBackend
	}

	registryMu.RLock()
	b, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown estimator backend %q (available: %v)", name, Backends())
	}

	return &Estimator{name: name, backend: b, maxPixels: DefaultMaxPixels}, nil
}

// WithMaxPixels returns a copy of e that rejects images with more than n
// pixels. n <= 0 removes the limit.
func (e *Estimator) WithMaxPixels(n int64) *Estimator {
	c := *e
	c.maxPixels = n
	return &c
}

// Name returns the backend name.
func (e *Estimator) Name() string {
	return e.name
}

// MaxPixels returns the pixel limit, or 0 when there is none.
func (e *Estimator) MaxPixels() int64 {
	if e.maxPixels < 0 {
		return 0
	}
	return e.maxPixels
}

// Measure decodes data and measures it. Undecodable input returns an error
// wrapping ErrUndecodable. The header is checked against the pixel limit
// before the backend decodes anything; an image over it returns an error
// wrapping ErrTooManyPixels.
func (e *Estimator) Measure(data []byte) (*Measurement, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrUndecodable)
	}

	info, err := imaging.Inspect(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if limit := e.MaxPixels(); limit > 0 && int64(info.Width)*int64(info.Height) > limit {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", ErrTooManyPixels, info.Width, info.Height, limit)
	}

	m, err := e.backend.Measure(data)
	if err != nil {
		return nil, err
	}
	if m.Area < 0 {
		m.Area = 0
	}
	return m, nil
}

// Area returns the estimated area of data, or 0 if it cannot be decoded, is
// over the pixel limit or contains no region.
func (e *Estimator) Area(data []byte) float64 {
	m, err := e.Measure(data)
	if err != nil {
		return 0
	}
	return m.Area
}

// AreaFromFile reads the file at path and returns its estimated area.
// Only a read failure is an error; undecodable content yields 0.
func (e *Estimator) AreaFromFile(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read image: %w", err)
	}
	return e.Area(data), nil
}

// Area estimates the land area in data with the default backend.
func Area(data []byte) float64 {
	return defaultEstimator().Area(data)
}

// AreaFromFile estimates the land area of the image file at path with the
// default backend.
func AreaFromFile(path string) (float64, error) {
	return defaultEstimator().AreaFromFile(path)
}

func defaultEstimator() *Estimator {
	return &Estimator{name: DefaultBackend, backend: nativeBackend{}, maxPixels: DefaultMaxPixels}
}
