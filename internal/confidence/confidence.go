// Package confidence scores how far a recognition result can be trusted.
//
// The score is a heuristic, not a probability. It starts at 1.0 and is
// multiplied down for every problem found.
package confidence

import (
	"math"

	"github.com/ironsheep/chart-ohlc/internal/axis"
	"github.com/ironsheep/chart-ohlc/internal/ohlc"
	"github.com/shopspring/decimal"
)

const (
	// DegradedPenalty applies when the fallback price scale was used.
	DegradedPenalty = 0.5

	// RecordPenalty applies once per inconsistency found in a record and
	// once per candle the mapper rejected.
	RecordPenalty = 0.8
)

// Score rates records recovered with cal. rejected is the number of candles
// dropped while mapping because their prices broke the record invariants;
// they count like records with open or close <= 0.
//
//   - no records: 0.0, with no further adjustment
//   - degraded calibration (fewer than two price anchors): x0.5
//   - each record with high < low: x0.8
//   - each record with open <= 0 or close <= 0: x0.8
//   - each rejected candle: x0.8
//
// Penalties compound without a floor. The result is rounded to 2 decimals
// and clamped to [0, 1].
func Score(records []ohlc.Record, rejected int, cal axis.Calibration) float64 {
	if len(records) == 0 {
		return 0
	}

	score := 1.0
	if cal.Degraded() {
		score *= DegradedPenalty
	}
	for _, r := range records {
		if r.High < r.Low {
			score *= RecordPenalty
		}
		if r.Open <= 0 || r.Close <= 0 {
			score *= RecordPenalty
		}
	}
	for i := 0; i < rejected; i++ {
		score *= RecordPenalty
	}

	v, _ := decimal.NewFromFloat(score).Round(2).Float64()
	return math.Max(0, math.Min(1, v))
}
