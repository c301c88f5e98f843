package ohlc

import (
	"fmt"
	"math"
)

// Result is the outcome of recognizing one image. It is produced once and not
// modified afterwards.
type Result struct {
	ImageName  string   `json:"image_name"`
	Symbol     string   `json:"symbol"`
	DataPoints []Record `json:"data_points"`
	Confidence float64  `json:"confidence"`
	Error      string   `json:"error"`

	// Warnings lists degraded-but-successful conditions such as a missing
	// OCR engine or too few price anchors.
	Warnings []string `json:"warnings,omitempty"`

	// Rejected counts candles whose mapped prices broke the record invariants
	// and were left out of DataPoints.
	Rejected int `json:"rejected,omitempty"`
}

// Failed returns the result for an image that could not be processed.
func Failed(imageName string, err error) Result {
	return Result{
		ImageName:  imageName,
		DataPoints: []Record{},
		Confidence: 0,
		Error:      err.Error(),
	}
}

// OK reports whether the result carries no error.
func (r Result) OK() bool {
	return r.Error == ""
}

// Validate checks that confidence is in [0,1] and every record is valid.
func (r Result) Validate() error {
	if math.IsNaN(r.Confidence) || r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence %g outside [0,1]", r.Confidence)
	}
	for i, rec := range r.DataPoints {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("data point %d: %w", i, err)
		}
	}
	return nil
}

// Quality buckets a confidence score.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// Classify maps confidence to a quality bucket:
// high above 0.8, medium from 0.5 to 0.8, low below 0.5.
func Classify(confidence float64) Quality {
	switch {
	case confidence > 0.8:
		return QualityHigh
	case confidence >= 0.5:
		return QualityMedium
	default:
		return QualityLow
	}
}

// SplitByQuality groups results by Classify. All three keys are present.
func SplitByQuality(results []Result) map[Quality][]Result {
	out := map[Quality][]Result{
		QualityHigh:   {},
		QualityMedium: {},
		QualityLow:    {},
	}
	for _, r := range results {
		q := Classify(r.Confidence)
		out[q] = append(out[q], r)
	}
	return out
}

// Summary counts a batch by outcome.
type Summary struct {
	Total      int     `json:"total"`
	Succeeded  int     `json:"succeeded"`
	Failed     int     `json:"failed"`
	High       int     `json:"high"`
	Medium     int     `json:"medium"`
	Low        int     `json:"low"`
	DataPoints int     `json:"data_points"`
	MeanConf   float64 `json:"mean_confidence"`
}

// Summarize builds a Summary over results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	var sum float64
	for _, r := range results {
		if r.OK() {
			s.Succeeded++
		} else {
			s.Failed++
		}
		switch Classify(r.Confidence) {
		case QualityHigh:
			s.High++
		case QualityMedium:
			s.Medium++
		default:
			s.Low++
		}
		s.DataPoints += len(r.DataPoints)
		sum += r.Confidence
	}
	if s.Total > 0 {
		s.MeanConf = math.Round(sum/float64(s.Total)*100) / 100
	}
	return s
}
