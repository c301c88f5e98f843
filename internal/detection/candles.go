package detection

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"sort"
	"strconv"

	"github.com/ironsheep/chart-ohlc/internal/imaging"
)

// ErrFrameMismatch is returned when the binary frame and the color frame do
// not cover the same pixels.
var ErrFrameMismatch = errors.New("binary frame does not match color frame")

// Polarity is the direction of a candle as read from its body color.
type Polarity int

const (
	// Bearish candles closed below their open (green bodies on the charts
	// this was tuned for).
	Bearish Polarity = iota
	// Bullish candles closed at or above their open (red bodies).
	Bullish
)

// String returns "bullish" or "bearish".
func (p Polarity) String() string {
	if p == Bullish {
		return "bullish"
	}
	return "bearish"
}

// MarshalText implements encoding.TextMarshaler.
func (p Polarity) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Polarity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "bullish":
		*p = Bullish
	case "bearish":
		*p = Bearish
	default:
		return fmt.Errorf("unknown polarity %q", b)
	}
	return nil
}

// Candle is one detected candlestick in frame pixel coordinates.
//
// BodyBottom is exclusive (BodyTop + body height), so a body spanning rows
// 200-249 has BodyTop 200 and BodyBottom 250. ShadowHigh <= BodyTop and
// ShadowLow >= BodyBottom always hold.
type Candle struct {
	CenterX    int      `json:"center_x"`
	BodyTop    int      `json:"body_top"`
	BodyBottom int      `json:"body_bottom"`
	ShadowHigh int      `json:"shadow_high"`
	ShadowLow  int      `json:"shadow_low"`
	Polarity   Polarity `json:"polarity"`
	Box        Bounds   `json:"box"`
}

// Region is the chart interior expressed as fractions of the frame size.
type Region struct {
	Left   float64 `json:"left" yaml:"left"`
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
}

// Rect returns the interior rectangle for a frame with the given bounds.
func (r Region) Rect(bounds image.Rectangle) image.Rectangle {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	return image.Rect(
		int(w*r.Left), int(h*r.Top),
		int(w*r.Right), int(h*r.Bottom),
	).Add(bounds.Min)
}

// Options controls candle segmentation.
type Options struct {
	// Region excludes the axis label margins.
	Region Region `json:"region" yaml:"region"`

	Bullish imaging.ColorRange `json:"bullish" yaml:"bullish"`
	Bearish imaging.ColorRange `json:"bearish" yaml:"bearish"`

	// MinWidth and MinHeight drop anti-aliasing specks and text fragments.
	MinWidth  int `json:"min_width" yaml:"min_width"`
	MinHeight int `json:"min_height" yaml:"min_height"`

	// ShadowThreshold is the luminance at or below which a pixel counts as
	// part of a drawn wick. Assumes dark wicks on a light background.
	ShadowThreshold uint8 `json:"shadow_threshold" yaml:"shadow_threshold"`

	Verbose bool `json:"-" yaml:"-"`
}

// DefaultOptions returns settings for red-up/green-down charts on a light
// background. Hue bands are in degrees; saturation and value floors use the
// 0-255 scale.
func DefaultOptions() Options {
	return Options{
		Region: Region{Left: 0.10, Top: 0.10, Right: 0.90, Bottom: 0.80},
		Bullish: imaging.ColorRange{
			Bands:         []imaging.HueBand{{Min: 0, Max: 20}, {Min: 340, Max: 360}},
			MinSaturation: 50,
			MinValue:      50,
		},
		Bearish: imaging.ColorRange{
			Bands:         []imaging.HueBand{{Min: 80, Max: 160}},
			MinSaturation: 50,
			MinValue:      50,
		},
		MinWidth:        3,
		MinHeight:       5,
		ShadowThreshold: 50,
	}
}

// Validate checks the region and color ranges.
func (o Options) Validate() error {
	r := o.Region
	if r.Left < 0 || r.Top < 0 || r.Right > 1 || r.Bottom > 1 || r.Left >= r.Right || r.Top >= r.Bottom {
		return fmt.Errorf("invalid region %+v: fractions must lie in [0,1] with left<right and top<bottom", r)
	}
	if err := o.Bullish.Validate(); err != nil {
		return fmt.Errorf("bullish: %w", err)
	}
	if err := o.Bearish.Validate(); err != nil {
		return fmt.Errorf("bearish: %w", err)
	}
	if o.MinWidth < 1 || o.MinHeight < 1 {
		return fmt.Errorf("min_width and min_height must be >= 1")
	}
	return nil
}

// DetectCandles finds candle bodies by color and measures their wicks.
//
// # Algorithm
//
//  1. Interior: the Region rectangle; everything outside is ignored
//  2. Masks: pixels whose HSV color falls in the Bullish or Bearish range
//  3. Contours: 8-connected components of each mask; a component's bounding
//     box is its body. Boxes narrower than MinWidth or shorter than MinHeight
//     are dropped
//  4. Wicks: from the body edges, walk the luminance column at CenterX up
//     (and down) while pixels stay at or below ShadowThreshold. The last dark
//     row is the wick end; a wick that reaches the interior edge ends at the
//     last row scanned. With no dark pixel the wick end is the body edge
//  5. Order: candles from both masks sorted by CenterX, then BodyTop
//
// The binary frame must have the same bounds as frame. It is the base layer
// of the "<name>_candles.png" debug overlay.
//
// # Errors
//
// ErrInvalidImage (from imaging) for an empty frame, ErrFrameMismatch when
// the two frames differ, or an options validation error. Finding no candles
// is not an error.
func DetectCandles(binary *image.Gray, frame image.Image, opts Options, debug imaging.DebugConfig) ([]Candle, error) {
	if err := imaging.ValidateFrame(frame); err != nil {
		return nil, err
	}
	if binary == nil || binary.Bounds() != frame.Bounds() {
		var got image.Rectangle
		if binary != nil {
			got = binary.Bounds()
		}
		return nil, fmt.Errorf("%w: binary %v, frame %v", ErrFrameMismatch, got, frame.Bounds())
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection options: %w", err)
	}

	interior := opts.Region.Rect(frame.Bounds())
	if interior.Empty() {
		return []Candle{}, nil
	}

	candles := make([]Candle, 0)
	candles = append(candles, extract(frame, interior, opts.Bullish, Bullish, opts)...)
	candles = append(candles, extract(frame, interior, opts.Bearish, Bearish, opts)...)

	sort.SliceStable(candles, func(i, j int) bool {
		if candles[i].CenterX != candles[j].CenterX {
			return candles[i].CenterX < candles[j].CenterX
		}
		return candles[i].BodyTop < candles[j].BodyTop
	})

	if opts.Verbose {
		log.Printf("[DEBUG] detection: %d candles in interior %v", len(candles), interior)
	}

	if debug.Enabled {
		debug.Emit("candles", drawCandles(binary, candles))
	}

	return candles, nil
}

func extract(frame image.Image, interior image.Rectangle, rng imaging.ColorRange, polarity Polarity, opts Options) []Candle {
	mask := imaging.Mask(frame, interior, rng)

	var out []Candle
	for _, contour := range findContours(mask, 1) {
		box := boundingBox(contour)
		if box.Width() < opts.MinWidth || box.Height() < opts.MinHeight {
			continue
		}

		// translate back to frame coordinates
		box.X1 += interior.Min.X
		box.X2 += interior.Min.X
		box.Y1 += interior.Min.Y
		box.Y2 += interior.Min.Y

		c := Candle{
			CenterX:    box.X1 + box.Width()/2,
			BodyTop:    box.Y1,
			BodyBottom: box.Y2,
			Polarity:   polarity,
			Box:        box,
		}
		c.ShadowHigh = shadowHigh(frame, c.CenterX, c.BodyTop, interior.Min.Y, opts.ShadowThreshold)
		c.ShadowLow = shadowLow(frame, c.CenterX, c.BodyBottom, interior.Max.Y, opts.ShadowThreshold)
		out = append(out, c)
	}
	return out
}

// shadowHigh walks upward from bodyTop-1 to limit (inclusive) and returns
// the last dark row, or bodyTop when the first pixel is already bright.
// A wick still dark at limit ends at limit, not back at the body edge.
func shadowHigh(frame image.Image, x, bodyTop, limit int, threshold uint8) int {
	high := bodyTop
	for y := bodyTop - 1; y >= limit; y-- {
		if imaging.Luminance(frame, x, y) > threshold {
			break
		}
		high = y
	}
	return high
}

// shadowLow walks downward from bodyBottom+1 to limit (exclusive). A wick
// still dark at the last scanned row ends there.
func shadowLow(frame image.Image, x, bodyBottom, limit int, threshold uint8) int {
	low := bodyBottom
	for y := bodyBottom + 1; y < limit; y++ {
		if imaging.Luminance(frame, x, y) > threshold {
			break
		}
		low = y
	}
	return low
}

var (
	bullishInk = color.RGBA{220, 30, 30, 255}
	bearishInk = color.RGBA{20, 160, 60, 255}
	wickInk    = color.RGBA{40, 80, 220, 255}
)

func drawCandles(binary *image.Gray, candles []Candle) image.Image {
	o := imaging.NewOverlay(binary)
	for i, c := range candles {
		ink := bearishInk
		if c.Polarity == Bullish {
			ink = bullishInk
		}
		o.Rect(c.Box.Rect(), ink)
		o.VLine(c.CenterX, c.ShadowHigh, c.ShadowLow, wickInk)
		o.Label(c.Box.X1, c.ShadowHigh-2, strconv.Itoa(i), ink)
	}
	return o.Image()
}
