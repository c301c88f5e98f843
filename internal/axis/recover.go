package axis

import (
	"context"
	"fmt"
	"image"
	"log"
	"sort"

	"github.com/ironsheep/chart-ohlc/internal/ocr"
)

// Options sets where labels are expected and which prices are plausible.
// Bands are fractions of the frame width or height.
type Options struct {
	// PriceBand: a label whose centroid x is within PriceBand*w of either
	// edge is a price candidate.
	PriceBand float64 `json:"price_band" yaml:"price_band"`

	// DateBand: centroid y > DateBand*h is a date candidate.
	DateBand float64 `json:"date_band" yaml:"date_band"`

	// TitleBand: centroid y < TitleBand*h is a symbol candidate.
	TitleBand float64 `json:"title_band" yaml:"title_band"`

	MinPrice float64 `json:"min_price" yaml:"min_price"`
	MaxPrice float64 `json:"max_price" yaml:"max_price"`

	// MinConfidence drops detections the engine was unsure about. It is set
	// from the ocr section of the configuration.
	MinConfidence float64 `json:"-" yaml:"-"`

	Verbose bool `json:"-" yaml:"-"`
}

// DefaultOptions returns the bands used for typical broker screenshots.
func DefaultOptions() Options {
	return Options{
		PriceBand: 0.15,
		DateBand:  0.85,
		TitleBand: 0.10,
		MinPrice:  0.01,
		MaxPrice:  1_000_000,
	}
}

// Validate checks that bands are fractions and the price range is usable.
func (o Options) Validate() error {
	bands := []struct {
		name string
		v    float64
	}{
		{"price_band", o.PriceBand},
		{"date_band", o.DateBand},
		{"title_band", o.TitleBand},
	}
	for _, b := range bands {
		if b.v < 0 || b.v > 1 {
			return fmt.Errorf("%s must be within [0,1], got %g", b.name, b.v)
		}
	}
	if o.MinPrice >= o.MaxPrice {
		return fmt.Errorf("min_price (%g) must be below max_price (%g)", o.MinPrice, o.MaxPrice)
	}
	if o.MinConfidence < 0 || o.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be within [0,1], got %g", o.MinConfidence)
	}
	return nil
}

// WarnOCRUnavailable is the calibration warning for a missing or failing engine.
const WarnOCRUnavailable = "ocr unavailable"

// Recover reads the price scale, date labels and symbol from frame.
//
// The capability is invoked once over the full frame. Each detection is
// classified by its centroid; the three tests are independent, so one
// label may count as both a price and a date:
//
//   - x in [0, PriceBand*w] or [(1-PriceBand)*w, w]: price label
//   - y > DateBand*h: date label
//   - y < TitleBand*h: symbol or title
//
// Recover never fails. An unavailable capability, an engine error or an empty
// result all produce an empty (degraded) calibration; engine errors are
// logged and recorded as a warning.
func Recover(ctx context.Context, frame image.Image, capability ocr.Capability, opts Options) Calibration {
	rec, ok := capability.Recognizer()
	if !ok {
		if opts.Verbose {
			log.Printf("[DEBUG] axis: ocr unavailable: %s", capability.Reason())
		}
		return Calibration{Warnings: []string{WarnOCRUnavailable}}
	}

	dets, err := rec.Recognize(ctx, frame)
	if err != nil {
		err = fmt.Errorf("%w: %v", ocr.ErrUnavailable, err)
		log.Printf("[WARN] axis recovery: %v", err)
		return Calibration{Warnings: []string{WarnOCRUnavailable}}
	}

	c := fromDetections(dets, frame.Bounds(), opts)
	if opts.Verbose {
		log.Printf("[DEBUG] axis: %d detections, %d price anchors, %d date anchors, symbol=%q",
			len(dets), len(c.PriceAnchors), len(c.DateAnchors), c.Symbol)
	}
	return c
}

type symbolCandidate struct {
	text       string
	confidence float64
	x, y       float64
}

func fromDetections(dets []ocr.Detection, bounds image.Rectangle, opts Options) Calibration {
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	var (
		prices  []PriceAnchor
		dates   []DateAnchor
		symbols []symbolCandidate
	)

	for _, d := range dets {
		if d.Confidence < opts.MinConfidence {
			continue
		}
		cx, cy := d.Centroid()
		x := cx - float64(bounds.Min.X)
		y := cy - float64(bounds.Min.Y)

		if x <= opts.PriceBand*w || x >= (1-opts.PriceBand)*w {
			if p, ok := ParsePrice(d.Text, opts.MinPrice, opts.MaxPrice); ok {
				prices = append(prices, PriceAnchor{Row: int(cy), Price: p, Confidence: d.Confidence})
			}
		}
		if y > opts.DateBand*h {
			if label, ok := ParseDate(d.Text); ok {
				dates = append(dates, DateAnchor{Column: int(cx), Label: label})
			}
		}
		if y < opts.TitleBand*h {
			if s, ok := ParseSymbol(d.Text); ok {
				symbols = append(symbols, symbolCandidate{text: s, confidence: d.Confidence, x: x, y: y})
			}
		}
	}

	c := NewCalibration(prices, dates)
	c.Symbol = pickSymbol(symbols)
	return c
}

// pickSymbol prefers the most confident candidate, then the leftmost, then
// the topmost, so the choice does not depend on engine output order.
func pickSymbol(cands []symbolCandidate) string {
	if len(cands) == 0 {
		return ""
	}
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.confidence != b.confidence {
			return a.confidence > b.confidence
		}
		if a.x != b.x {
			return a.x < b.x
		}
		return a.y < b.y
	})
	return cands[0].text
}
