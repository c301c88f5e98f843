package export

import (
	"fmt"
	"io"

	"github.com/ironsheep/chart-ohlc/internal/ohlc"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// PlotPNG renders the high, low and close series of r as a line chart.
// At least two records are needed to draw a line.
func PlotPNG(w io.Writer, r ohlc.Result) error {
	n := len(r.DataPoints)
	if n < 2 {
		return fmt.Errorf("plot needs at least 2 records, got %d", n)
	}

	xs := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	minY, maxY := r.DataPoints[0].Low, r.DataPoints[0].High
	for i, d := range r.DataPoints {
		xs[i] = float64(i)
		highs[i], lows[i], closes[i] = d.High, d.Low, d.Close
		minY = min(minY, d.Low)
		maxY = max(maxY, d.High)
	}
	pad := (maxY - minY) * 0.05
	if pad == 0 {
		pad = 1
	}

	title := r.ImageName
	if r.Symbol != "" {
		title = r.Symbol + " (" + r.ImageName + ")"
	}

	graph := chart.Chart{
		Title:  title,
		Width:  1200,
		Height: 600,
		XAxis:  chart.XAxis{Name: "candle"},
		YAxis: chart.YAxis{
			Name:  "price",
			Range: &chart.ContinuousRange{Min: minY - pad, Max: maxY + pad},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "high",
				XValues: xs,
				YValues: highs,
				Style:   chart.Style{StrokeColor: drawing.ColorRed, StrokeWidth: 1},
			},
			chart.ContinuousSeries{
				Name:    "low",
				XValues: xs,
				YValues: lows,
				Style:   chart.Style{StrokeColor: drawing.ColorGreen, StrokeWidth: 1},
			},
			chart.ContinuousSeries{
				Name:    "close",
				XValues: xs,
				YValues: closes,
				Style:   chart.Style{StrokeColor: drawing.ColorBlack, StrokeWidth: 2},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	return nil
}
