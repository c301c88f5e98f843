package ohlc

import "math"

// PriceDiff is the absolute difference between two records at one index.
type PriceDiff struct {
	Index int     `json:"index"`
	Open  float64 `json:"open_diff"`
	High  float64 `json:"high_diff"`
	Low   float64 `json:"low_diff"`
	Close float64 `json:"close_diff"`
}

// Comparison describes how two results for the same chart differ.
type Comparison struct {
	CountDiff      int         `json:"count_diff"`
	ConfidenceDiff float64     `json:"confidence_diff"`
	Prices         []PriceDiff `json:"price_differences"`
}

// MaxAbs returns the largest price difference across all compared records.
func (c Comparison) MaxAbs() float64 {
	var m float64
	for _, d := range c.Prices {
		m = math.Max(m, math.Max(math.Max(d.Open, d.High), math.Max(d.Low, d.Close)))
	}
	return m
}

// Compare diffs a against b position by position over their common prefix.
func Compare(a, b Result) Comparison {
	c := Comparison{
		CountDiff:      len(a.DataPoints) - len(b.DataPoints),
		ConfidenceDiff: a.Confidence - b.Confidence,
		Prices:         []PriceDiff{},
	}
	n := len(a.DataPoints)
	if len(b.DataPoints) < n {
		n = len(b.DataPoints)
	}
	for i := 0; i < n; i++ {
		x, y := a.DataPoints[i], b.DataPoints[i]
		c.Prices = append(c.Prices, PriceDiff{
			Index: i,
			Open:  math.Abs(x.Open - y.Open),
			High:  math.Abs(x.High - y.High),
			Low:   math.Abs(x.Low - y.Low),
			Close: math.Abs(x.Close - y.Close),
		})
	}
	return c
}
