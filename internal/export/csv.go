package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ironsheep/chart-ohlc/internal/ohlc"
)

// CSVHeader is the column order of WriteCSV.
var CSVHeader = []string{"image", "symbol", "date", "open", "high", "low", "close", "volume", "confidence", "error"}

// WriteCSV flattens results to one row per record. An image without records
// still gets one row, with empty price columns, so failures stay visible.
func WriteCSV(w io.Writer, results []ohlc.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range results {
		conf := formatFloat(r.Confidence)
		if len(r.DataPoints) == 0 {
			if err := cw.Write([]string{r.ImageName, r.Symbol, "", "", "", "", "", "", conf, r.Error}); err != nil {
				return fmt.Errorf("failed to write csv row: %w", err)
			}
			continue
		}
		for _, d := range r.DataPoints {
			row := []string{
				r.ImageName, r.Symbol, d.Date,
				formatFloat(d.Open), formatFloat(d.High), formatFloat(d.Low), formatFloat(d.Close),
				formatVolume(d.Volume),
				conf, r.Error,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write csv row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTradingView writes records as TradingView's import CSV:
// time (unix seconds, UTC midnight of the date), open, high, low, close,
// volume (0 when unknown). Records whose date does not parse with layout
// are skipped; the count of skipped records is returned.
func WriteTradingView(w io.Writer, records []ohlc.Record, layout string) (int, error) {
	if layout == "" {
		layout = "2006-01-02"
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "open", "high", "low", "close", "volume"}); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}

	skipped := 0
	for _, d := range records {
		t, err := time.ParseInLocation(layout, d.Date, time.UTC)
		if err != nil {
			skipped++
			continue
		}
		vol := "0"
		if d.Volume != nil {
			vol = formatFloat(*d.Volume)
		}
		row := []string{
			strconv.FormatInt(t.Unix(), 10),
			formatFloat(d.Open), formatFloat(d.High), formatFloat(d.Low), formatFloat(d.Close),
			vol,
		}
		if err := cw.Write(row); err != nil {
			return skipped, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return skipped, cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatVolume(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
