package imaging

import (
	"fmt"
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HSV is a color in hue-saturation-value space.
//
//   - H: 0-360 degrees (0=red, 120=green, 240=blue)
//   - S: 0-255 (0=gray, 255=vivid)
//   - V: 0-255 (0=black, 255=full brightness)
//
// Saturation and value use the 8-bit scale so thresholds read the same as
// the ones commonly quoted for chart color segmentation.
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// HSVAt returns the HSV color of the pixel at (x, y). Fully transparent
// pixels report zero saturation and value.
func HSVAt(img image.Image, x, y int) HSV {
	c, ok := colorful.MakeColor(img.At(x, y))
	if !ok {
		return HSV{}
	}
	h, s, v := c.Hsv()
	return HSV{H: h, S: s * 255, V: v * 255}
}

// HueBand is an inclusive hue interval in degrees.
type HueBand struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether hue h lies within the band.
func (b HueBand) Contains(h float64) bool {
	return h >= b.Min && h <= b.Max
}

// ColorRange selects pixels whose hue falls in any of Bands and whose
// saturation and value reach the floors. Colors that wrap around 0/360
// (red) are expressed as two bands.
type ColorRange struct {
	Bands         []HueBand `json:"bands" yaml:"bands"`
	MinSaturation float64   `json:"min_saturation" yaml:"min_saturation"`
	MinValue      float64   `json:"min_value" yaml:"min_value"`
}

// Contains reports whether c falls in the range.
func (r ColorRange) Contains(c HSV) bool {
	if c.S < r.MinSaturation || c.V < r.MinValue {
		return false
	}
	for _, b := range r.Bands {
		if b.Contains(c.H) {
			return true
		}
	}
	return false
}

// Validate checks that every band lies within 0-360 and is not inverted.
func (r ColorRange) Validate() error {
	if len(r.Bands) == 0 {
		return fmt.Errorf("color range needs at least one hue band")
	}
	for _, b := range r.Bands {
		if b.Min < 0 || b.Max > 360 || b.Min > b.Max {
			return fmt.Errorf("invalid hue band [%g, %g]", b.Min, b.Max)
		}
	}
	return nil
}

// Mask returns a boolean grid marking the pixels of img inside rect that fall
// in rng. The grid is indexed [y][x] relative to rect.Min.
func Mask(img image.Image, rect image.Rectangle, rng ColorRange) [][]bool {
	rect = rect.Intersect(img.Bounds())
	mask := make([][]bool, rect.Dy())
	for y := 0; y < rect.Dy(); y++ {
		mask[y] = make([]bool, rect.Dx())
		for x := 0; x < rect.Dx(); x++ {
			mask[y][x] = rng.Contains(HSVAt(img, x+rect.Min.X, y+rect.Min.Y))
		}
	}
	return mask
}

// HexAt returns the "#RRGGBB" color of a pixel.
// No bounds checking is performed; caller must ensure coordinates are valid.
func HexAt(img image.Image, x, y int) string {
	r, g, b, _ := img.At(x, y).RGBA()
	return fmt.Sprintf("#%02X%02X%02X", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}
