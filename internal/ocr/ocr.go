package ocr

import (
	"context"
	"errors"
	"image"
	"sync"
)

// ErrUnavailable is returned (or wrapped) when no text-recognition backend can
// serve a request. Callers treat it as a degraded condition, not a failure.
var ErrUnavailable = errors.New("ocr unavailable")

// Detection is one piece of recognized text.
type Detection struct {
	// Quad is the bounding quadrilateral in frame coordinates, clockwise from
	// the top-left corner. Axis-aligned engines produce a rectangle.
	Quad [4]image.Point `json:"quad"`

	Text string `json:"text"`

	// Confidence is normalized to 0.0-1.0.
	Confidence float64 `json:"confidence"`
}

// Centroid returns the mean of the four corners of d.Quad.
func (d Detection) Centroid() (x, y float64) {
	for _, p := range d.Quad {
		x += float64(p.X)
		y += float64(p.Y)
	}
	return x / 4, y / 4
}

// QuadFromRect converts an axis-aligned rectangle to a clockwise quad.
// Max is exclusive, so the right and bottom corners sit at Max-1.
func QuadFromRect(r image.Rectangle) [4]image.Point {
	return [4]image.Point{
		{X: r.Min.X, Y: r.Min.Y},
		{X: r.Max.X - 1, Y: r.Min.Y},
		{X: r.Max.X - 1, Y: r.Max.Y - 1},
		{X: r.Min.X, Y: r.Max.Y - 1},
	}
}

// Recognizer runs text recognition over a whole frame. Implementations must
// not assume the caller relies on reading order.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]Detection, error)
}

// RecognizerFunc adapts an ordinary function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, img image.Image) ([]Detection, error)

// Recognize calls f(ctx, img).
func (f RecognizerFunc) Recognize(ctx context.Context, img image.Image) ([]Detection, error) {
	return f(ctx, img)
}

// Capability records whether a text-recognition backend was provided. It is
// decided once at construction; downstream code asks the capability instead of
// probing for the engine itself.
type Capability struct {
	recognizer Recognizer
	reason     string
}

// Available wraps a working recognizer.
func Available(r Recognizer) Capability {
	if r == nil {
		return Unavailable("nil recognizer")
	}
	return Capability{recognizer: r}
}

// Unavailable records that no backend exists and why.
func Unavailable(reason string) Capability {
	return Capability{reason: reason}
}

// Recognizer returns the wrapped recognizer, or false if unavailable.
func (c Capability) Recognizer() (Recognizer, bool) {
	return c.recognizer, c.recognizer != nil
}

// IsAvailable reports whether a recognizer was provided.
func (c Capability) IsAvailable() bool {
	return c.recognizer != nil
}

// Reason returns the reason recorded by Unavailable.
func (c Capability) Reason() string {
	return c.reason
}

// Versioned is implemented by recognizers that can report their engine version.
type Versioned interface {
	Version() string
}

// Status describes a capability for status reporting.
type Status struct {
	Available bool   `json:"available"`
	Backend   string `json:"backend,omitempty"`
	Version   string `json:"version,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Status summarizes the capability.
func (c Capability) Status() Status {
	if c.recognizer == nil {
		return Status{Reason: c.reason}
	}
	s := Status{Available: true, Backend: backendName(c.recognizer)}
	if v, ok := unwrap(c.recognizer).(Versioned); ok {
		s.Version = v.Version()
	}
	return s
}

// WithRecognizer returns a capability wrapping r when c is available, and c
// unchanged otherwise. Used to decorate the recognizer (Serialize, Recording).
func (c Capability) WithRecognizer(wrap func(Recognizer) Recognizer) Capability {
	if c.recognizer == nil {
		return c
	}
	return Capability{recognizer: wrap(c.recognizer)}
}

type serialized struct {
	mu    sync.Mutex
	inner Recognizer
}

// Serialize guards r with a mutex so that at most one Recognize call runs at
// a time. Use it when the backend is not safe for concurrent invocation.
func Serialize(r Recognizer) Recognizer {
	if s, ok := r.(*serialized); ok {
		return s
	}
	return &serialized{inner: r}
}

func (s *serialized) Recognize(ctx context.Context, img image.Image) ([]Detection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.inner.Recognize(ctx, img)
}

func unwrap(r Recognizer) Recognizer {
	for {
		switch w := r.(type) {
		case *serialized:
			r = w.inner
		case *recording:
			r = w.inner
		default:
			return r
		}
	}
}

func backendName(r Recognizer) string {
	switch unwrap(r).(type) {
	case *Tesseract:
		return "tesseract"
	case *staticRecognizer:
		return "sidecar"
	}
	return "custom"
}
