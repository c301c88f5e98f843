package ohlc

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	tests := []struct {
		name                   string
		open, high, low, close float64
		wantErr                bool
	}{
		{"valid bullish", 10, 12, 9, 11, false},
		{"valid flat", 10, 10, 10, 10, false},
		{"high below close", 10, 10.5, 9, 11, true},
		{"low above open", 10, 12, 10.5, 11, true},
		{"zero open", 0, 12, 0, 11, true},
		{"negative low", 10, 12, -1, 11, true},
		{"nan", math.NaN(), 12, 9, 11, true},
		{"inf high", 10, math.Inf(1), 9, 11, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRecord("2024-01-02", tt.open, tt.high, tt.low, tt.close)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRecord))
				assert.Equal(t, Record{}, r)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "2024-01-02", r.Date)
			assert.Nil(t, r.Volume)
		})
	}
}

func TestRecord_JSON(t *testing.T) {
	r, err := NewRecord("2024-01-02", 10, 12, 9, 11)
	require.NoError(t, err)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-01-02","open":10,"high":12,"low":9,"close":11,"volume":null}`, string(data))

	data, err = json.Marshal(r.WithVolume(1500))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"volume":1500`)
	assert.Nil(t, r.Volume, "WithVolume must not modify the receiver")
}

func TestValidateAll(t *testing.T) {
	good := Record{Date: "a", Open: 1, High: 2, Low: 1, Close: 2}
	bad := Record{Date: "b", Open: 1, High: 0.5, Low: 1, Close: 2}

	assert.Empty(t, ValidateAll([]Record{good, good}))
	problems := ValidateAll([]Record{good, bad})
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "record 1")
}

func TestFailed(t *testing.T) {
	r := Failed("chart.png", errors.New("invalid image: truncated"))
	assert.False(t, r.OK())
	assert.Zero(t, r.Confidence)
	assert.NotNil(t, r.DataPoints)
	assert.Empty(t, r.DataPoints)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"data_points":[]`)
	assert.Contains(t, string(data), `"error":"invalid image: truncated"`)
}

func TestResult_Validate(t *testing.T) {
	ok := Result{Confidence: 0.5, DataPoints: []Record{{Open: 1, High: 2, Low: 1, Close: 2}}}
	assert.NoError(t, ok.Validate())

	assert.Error(t, Result{Confidence: 1.5}.Validate())
	assert.Error(t, Result{Confidence: math.NaN()}.Validate())
	assert.Error(t, Result{DataPoints: []Record{{Open: 1, High: 0.5, Low: 1, Close: 2}}}.Validate())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		conf float64
		want Quality
	}{
		{1.0, QualityHigh},
		{0.81, QualityHigh},
		{0.8, QualityMedium},
		{0.5, QualityMedium},
		{0.49, QualityLow},
		{0, QualityLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.conf), "Classify(%v)", tt.conf)
	}
}

func TestSplitByQuality(t *testing.T) {
	groups := SplitByQuality([]Result{{Confidence: 0.9}, {Confidence: 0.6}, {Confidence: 0.7}})
	assert.Len(t, groups[QualityHigh], 1)
	assert.Len(t, groups[QualityMedium], 2)
	assert.NotNil(t, groups[QualityLow])
	assert.Empty(t, groups[QualityLow])
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Result{
		{Confidence: 1.0, DataPoints: make([]Record, 3)},
		{Confidence: 0.5, DataPoints: make([]Record, 2)},
		Failed("x.png", errors.New("boom")),
	})
	assert.Equal(t, Summary{
		Total: 3, Succeeded: 2, Failed: 1,
		High: 1, Medium: 1, Low: 1,
		DataPoints: 5, MeanConf: 0.5,
	}, s)

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestCompare(t *testing.T) {
	a := Result{Confidence: 0.9, DataPoints: []Record{
		{Open: 10, High: 12, Low: 9, Close: 11},
		{Open: 11, High: 13, Low: 10, Close: 12},
	}}
	b := Result{Confidence: 0.5, DataPoints: []Record{
		{Open: 10.5, High: 12, Low: 8, Close: 11},
	}}

	c := Compare(a, b)
	assert.Equal(t, 1, c.CountDiff)
	assert.InDelta(t, 0.4, c.ConfidenceDiff, 1e-9)
	require.Len(t, c.Prices, 1)
	assert.Equal(t, PriceDiff{Index: 0, Open: 0.5, High: 0, Low: 1, Close: 0}, c.Prices[0])
	assert.Equal(t, 1.0, c.MaxAbs())

	assert.Empty(t, Compare(Result{}, b).Prices)
}
