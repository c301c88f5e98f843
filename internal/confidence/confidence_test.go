package confidence

import (
	"testing"

	"github.com/ironsheep/chart-ohlc/internal/axis"
	"github.com/ironsheep/chart-ohlc/internal/ohlc"
	"github.com/stretchr/testify/assert"
)

func calibrated() axis.Calibration {
	return axis.NewCalibration([]axis.PriceAnchor{
		{Row: 100, Price: 200},
		{Row: 400, Price: 100},
	}, nil)
}

func good(n int) []ohlc.Record {
	out := make([]ohlc.Record, n)
	for i := range out {
		out[i] = ohlc.Record{Date: "d", Open: 10, High: 12, Low: 9, Close: 11}
	}
	return out
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		records  []ohlc.Record
		rejected int
		cal      axis.Calibration
		want     float64
	}{
		{"empty", nil, 0, calibrated(), 0},
		{"empty degraded", []ohlc.Record{}, 0, axis.Calibration{}, 0},
		{"clean", good(5), 0, calibrated(), 1.0},
		{"degraded", good(5), 0, axis.Calibration{}, 0.5},
		{"one inverted", append(good(2), ohlc.Record{Open: 10, High: 8, Low: 9, Close: 10}), 0, calibrated(), 0.8},
		{"non-positive open", []ohlc.Record{{Open: 0, High: 12, Low: 9, Close: 11}}, 0, calibrated(), 0.8},
		{"both violations", []ohlc.Record{{Open: -1, High: 8, Low: 9, Close: 10}}, 0, calibrated(), 0.64},
		{"open and close both bad count once", []ohlc.Record{{Open: -1, High: 12, Low: 9, Close: -2}}, 0, calibrated(), 0.8},
		{"degraded and bad", []ohlc.Record{{Open: 10, High: 8, Low: 9, Close: 10}}, 0, axis.Calibration{}, 0.4},
		{"one rejected", good(3), 1, calibrated(), 0.8},
		{"two rejected degraded", good(3), 2, axis.Calibration{}, 0.32},
		{"rejected without records", nil, 3, calibrated(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.records, tt.rejected, tt.cal))
		})
	}
}

func TestScore_CompoundsTowardZero(t *testing.T) {
	bad := make([]ohlc.Record, 40)
	for i := range bad {
		bad[i] = ohlc.Record{Open: 10, High: 8, Low: 9, Close: 10}
	}
	s := Score(bad, 0, calibrated())
	assert.Equal(t, 0.0, s)
}

func TestScore_AlwaysInRange(t *testing.T) {
	for n := 0; n < 10; n++ {
		for _, cal := range []axis.Calibration{{}, calibrated()} {
			s := Score(good(n), n, cal)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}
