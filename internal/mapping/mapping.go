package mapping

import (
	"fmt"
	"image"
	"log"
	"time"

	"github.com/ironsheep/chart-ohlc/internal/axis"
	"github.com/ironsheep/chart-ohlc/internal/detection"
	"github.com/ironsheep/chart-ohlc/internal/ohlc"
	"github.com/shopspring/decimal"
)

// Options controls the fallback scale and date labels.
type Options struct {
	// FallbackMin/FallbackMax is the synthetic price range used when the
	// calibration is degraded.
	FallbackMin float64 `json:"fallback_min" yaml:"fallback_min"`
	FallbackMax float64 `json:"fallback_max" yaml:"fallback_max"`

	// FallbackTop/FallbackBottom place FallbackMax and FallbackMin at these
	// fractions of the frame height.
	FallbackTop    float64 `json:"fallback_top" yaml:"fallback_top"`
	FallbackBottom float64 `json:"fallback_bottom" yaml:"fallback_bottom"`

	// DateFormat is the time layout for synthesized dates.
	DateFormat string `json:"date_format" yaml:"date_format"`

	// Now anchors synthesized dates. Nil means time.Now.
	Now func() time.Time `json:"-" yaml:"-"`

	Verbose bool `json:"-" yaml:"-"`
}

// DefaultOptions returns the 100-200 fallback scale over 10%-80% of the height.
func DefaultOptions() Options {
	return Options{
		FallbackMin:    100,
		FallbackMax:    200,
		FallbackTop:    0.10,
		FallbackBottom: 0.80,
		DateFormat:     "2006-01-02",
	}
}

// Validate checks the fallback scale.
func (o Options) Validate() error {
	if o.FallbackMin <= 0 || o.FallbackMin >= o.FallbackMax {
		return fmt.Errorf("fallback range must satisfy 0 < min < max, got [%g, %g]", o.FallbackMin, o.FallbackMax)
	}
	if o.FallbackTop < 0 || o.FallbackBottom > 1 || o.FallbackTop >= o.FallbackBottom {
		return fmt.Errorf("fallback rows must satisfy 0 <= top < bottom <= 1, got [%g, %g]", o.FallbackTop, o.FallbackBottom)
	}
	if o.DateFormat == "" {
		return fmt.Errorf("date_format is required")
	}
	return nil
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Scale is a linear pixel-row to price mapping. Max sits at row Top and Min at
// row Bottom; rows outside [Top, Bottom] extrapolate.
type Scale struct {
	Top      int     `json:"top"`
	Bottom   int     `json:"bottom"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Fallback bool    `json:"fallback"`
}

// NewScale derives the scale from a calibration, falling back to the synthetic
// range when it is degraded.
func NewScale(cal axis.Calibration, bounds image.Rectangle, opts Options) Scale {
	if top, bottom, ok := cal.Extremes(); ok {
		return Scale{Top: top.Row, Bottom: bottom.Row, Min: cal.PriceMin, Max: cal.PriceMax}
	}

	h := float64(bounds.Dy())
	s := Scale{
		Top:      bounds.Min.Y + int(h*opts.FallbackTop),
		Bottom:   bounds.Min.Y + int(h*opts.FallbackBottom),
		Min:      opts.FallbackMin,
		Max:      opts.FallbackMax,
		Fallback: true,
	}
	if s.Bottom <= s.Top {
		s.Bottom = s.Top + 1
	}
	return s
}

// Price maps row y to a price rounded half away from zero to 2 decimals.
//
// The axis is assumed linear and decreasing with row (top of the image is the
// highest price). Log-scale charts are not detected.
func (s Scale) Price(y int) float64 {
	ratio := float64(y-s.Top) / float64(s.Bottom-s.Top)
	p := s.Max - ratio*(s.Max-s.Min)
	v, _ := decimal.NewFromFloat(p).Round(2).Float64()
	return v
}

// Mapping is the output of Map.
type Mapping struct {
	Records  []ohlc.Record `json:"records"`
	Rejected int           `json:"rejected"`
	Scale    Scale         `json:"scale"`
}

// Map converts candles into records, keeping their order.
//
// Bullish candles open at the body bottom and close at the body top; bearish
// candles the reverse. This is the usual chart convention, not something the
// pixels prove. High and low come from the wick ends and are clamped to cover
// the body.
//
// Candles whose prices are not all positive (the fallback scale extrapolated
// below zero) are dropped and counted in Rejected.
//
// Dates come from the calibration when there is at least one date anchor per
// candle: each candle takes the label nearest its CenterX. Otherwise candle i
// of n is dated n-i days before Now, so the leftmost is the oldest.
func Map(candles []detection.Candle, cal axis.Calibration, bounds image.Rectangle, opts Options) Mapping {
	scale := NewScale(cal, bounds, opts)
	m := Mapping{Records: make([]ohlc.Record, 0, len(candles)), Scale: scale}

	dates := assignDates(candles, cal.DateAnchors, opts)

	for i, c := range candles {
		top, bottom := scale.Price(c.BodyTop), scale.Price(c.BodyBottom)

		var open, close float64
		if c.Polarity == detection.Bullish {
			open, close = bottom, top
		} else {
			open, close = top, bottom
		}

		high := max(scale.Price(c.ShadowHigh), open, close)
		low := min(scale.Price(c.ShadowLow), open, close)

		rec, err := ohlc.NewRecord(dates[i], open, high, low, close)
		if err != nil {
			log.Printf("[WARN] mapping: candle %d at x=%d rejected: %v", i, c.CenterX, err)
			m.Rejected++
			continue
		}
		m.Records = append(m.Records, rec)
	}

	if opts.Verbose {
		log.Printf("[DEBUG] mapping: scale %+v, %d records, %d rejected", scale, len(m.Records), m.Rejected)
	}
	return m
}

func assignDates(candles []detection.Candle, anchors []axis.DateAnchor, opts Options) []string {
	n := len(candles)
	dates := make([]string, n)

	if n > 0 && len(anchors) >= n {
		for i, c := range candles {
			best := anchors[0]
			for _, a := range anchors[1:] {
				if abs(a.Column-c.CenterX) < abs(best.Column-c.CenterX) {
					best = a
				}
			}
			dates[i] = best.Label
		}
		return dates
	}

	now := opts.now()
	for i := range candles {
		dates[i] = now.AddDate(0, 0, -(n - i)).Format(opts.DateFormat)
	}
	return dates
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
