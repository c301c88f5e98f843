//go:build cgo

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Recognize runs word-level recognition over img.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scaled, factor := t.upscale(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("%w: failed to set tessdata path: %v", ErrUnavailable, err)
		}
	}
	if err := client.SetLanguage(t.Language); err != nil {
		return nil, fmt.Errorf("%w: failed to set language: %v", ErrUnavailable, err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get bounding boxes: %v", ErrUnavailable, err)
	}

	origin := img.Bounds().Min
	dets := make([]Detection, 0, len(boxes))
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		dets = append(dets, Detection{
			Quad:       QuadFromRect(toFrame(box.Box, factor, origin)),
			Text:       word,
			Confidence: box.Confidence / 100.0,
		})
	}
	return dets, nil
}

// Version returns the linked Tesseract version.
func (t *Tesseract) Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}

// NewDefault checks the Tesseract installation and returns Available when the
// library responds, Unavailable otherwise.
func NewDefault(language, tessdataPrefix string, scale float64) Capability {
	t := NewTesseract(language, tessdataPrefix, scale)
	if v := t.Version(); v == "" {
		return Unavailable("tesseract did not report a version")
	}
	return Available(t)
}
