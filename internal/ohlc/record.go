package ohlc

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRecord is wrapped by every record invariant violation.
var ErrInvalidRecord = errors.New("invalid ohlc record")

// Record is one candle's prices. Date is a free-form label; it is only
// guaranteed to be ISO-8601 when it was synthesized.
type Record struct {
	Date   string   `json:"date"`
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume *float64 `json:"volume"`
}

// NewRecord builds a record and checks its invariants.
func NewRecord(date string, open, high, low, close float64) (Record, error) {
	r := Record{Date: date, Open: open, High: high, Low: low, Close: close}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Validate reports the first broken invariant:
//   - every price is finite and > 0
//   - High >= max(Open, Close)
//   - Low <= min(Open, Close)
func (r Record) Validate() error {
	for _, p := range []struct {
		name string
		v    float64
	}{{"open", r.Open}, {"high", r.High}, {"low", r.Low}, {"close", r.Close}} {
		if math.IsNaN(p.v) || math.IsInf(p.v, 0) || p.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidRecord, p.name, p.v)
		}
	}
	if r.High < math.Max(r.Open, r.Close) {
		return fmt.Errorf("%w: high %g below max(open, close)", ErrInvalidRecord, r.High)
	}
	if r.Low > math.Min(r.Open, r.Close) {
		return fmt.Errorf("%w: low %g above min(open, close)", ErrInvalidRecord, r.Low)
	}
	return nil
}

// WithVolume returns a copy of r carrying volume v.
func (r Record) WithVolume(v float64) Record {
	r.Volume = &v
	return r
}

// ValidateAll checks every record and returns one message per problem,
// prefixed with the record index. An empty slice means all records are valid.
func ValidateAll(records []Record) []string {
	var problems []string
	for i, r := range records {
		if err := r.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("record %d: %v", i, err))
		}
	}
	return problems
}
