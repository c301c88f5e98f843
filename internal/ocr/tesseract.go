package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// Tesseract recognizes words with the Tesseract engine through gosseract.
//
// A new gosseract client is created for every call, so a single Tesseract may
// be shared. libtesseract is memory-heavy; batch runs normally wrap it in
// Serialize anyway.
type Tesseract struct {
	// Language is the Tesseract language code, e.g. "eng".
	Language string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	// Empty uses the engine default (TESSDATA_PREFIX or the install path).
	TessdataPrefix string

	// Scale enlarges the frame before recognition. Axis labels on chart
	// screenshots are often under 12px tall, which Tesseract reads poorly.
	// Returned quads are mapped back to frame coordinates. Values <= 1 disable it.
	Scale float64
}

// NewTesseract returns a Tesseract adapter for language.
func NewTesseract(language, tessdataPrefix string, scale float64) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{Language: language, TessdataPrefix: tessdataPrefix, Scale: scale}
}

// upscale returns img enlarged by t.Scale and the factor actually applied.
func (t *Tesseract) upscale(img image.Image) (image.Image, float64) {
	if t.Scale <= 1 {
		return img, 1
	}
	b := img.Bounds()
	w := int(float64(b.Dx()) * t.Scale)
	h := int(float64(b.Dy()) * t.Scale)
	return imaging.Resize(img, w, h, imaging.Lanczos), t.Scale
}

// toFrame maps a rectangle from upscaled coordinates back to the frame.
func toFrame(r image.Rectangle, factor float64, origin image.Point) image.Rectangle {
	scale := func(v int) int { return int(float64(v)/factor + 0.5) }
	return image.Rect(scale(r.Min.X), scale(r.Min.Y), scale(r.Max.X), scale(r.Max.Y)).Add(origin)
}
