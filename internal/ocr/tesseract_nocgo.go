//go:build !cgo

package ocr

import (
	"context"
	"fmt"
	"image"
)

// Recognize always fails: this binary was built without cgo.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]Detection, error) {
	return nil, fmt.Errorf("%w: built without cgo", ErrUnavailable)
}

// Version returns an empty string without cgo.
func (t *Tesseract) Version() string {
	return ""
}

// NewDefault returns Unavailable: Tesseract requires cgo.
func NewDefault(language, tessdataPrefix string, scale float64) Capability {
	return Unavailable("built without cgo; tesseract unavailable")
}
