package pipeline

import (
	"image"
	"image/color"
	"strconv"

	"github.com/ironsheep/chart-ohlc/internal/axis"
	"github.com/ironsheep/chart-ohlc/internal/imaging"
	"github.com/ironsheep/chart-ohlc/internal/mapping"
)

// axisGridSpacing is the pixel pitch of the reference grid under the axis overlay.
const axisGridSpacing = 50

var (
	gridColor   = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	anchorColor = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	scaleColor  = color.RGBA{R: 255, G: 140, B: 0, A: 255}
)

// emitAxisOverlay writes "<name>_axis.png": the frame with a coordinate grid,
// one line per price anchor labelled with its price, the rows the price scale
// spans, and a tick per date anchor.
func emitAxisOverlay(debug imaging.DebugConfig, img image.Image, cal axis.Calibration, scale mapping.Scale) {
	if !debug.Enabled {
		return
	}
	b := img.Bounds()
	o := imaging.NewOverlay(img)
	o.Grid(axisGridSpacing, gridColor, false)

	o.HLine(scale.Top, b.Min.X, b.Max.X-1, scaleColor)
	o.HLine(scale.Bottom, b.Min.X, b.Max.X-1, scaleColor)

	for _, a := range cal.PriceAnchors {
		o.HLine(a.Row, b.Min.X, b.Max.X-1, anchorColor)
		o.Label(b.Min.X+2, a.Row-2, strconv.FormatFloat(a.Price, 'f', -1, 64), anchorColor)
	}
	for _, d := range cal.DateAnchors {
		o.VLine(d.Column, b.Max.Y-10, b.Max.Y-1, anchorColor)
	}

	debug.Emit("axis", o.Image())
}
