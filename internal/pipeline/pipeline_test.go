package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ironsheep/chart-ohlc/internal/axis"
	"github.com/ironsheep/chart-ohlc/internal/imaging"
	"github.com/ironsheep/chart-ohlc/internal/ocr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.RGBA{220, 30, 30, 255}
	green = color.RGBA{20, 160, 60, 255}
)

func blankChart(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func drawCandle(img *image.RGBA, x, w, top, bottom, upper, lower int, body color.Color) {
	for y := top; y < bottom; y++ {
		for dx := 0; dx < w; dx++ {
			img.Set(x+dx, y, body)
		}
	}
	cx := x + w/2
	for y := top - upper; y < top; y++ {
		img.Set(cx, y, color.Black)
	}
	for y := bottom; y < bottom+lower; y++ {
		img.Set(cx, y, color.Black)
	}
}

// twentyCandleChart draws 20 alternating bullish/bearish candles with no axis
// labels on an 800x500 frame.
func twentyCandleChart() *image.RGBA {
	img := blankChart(800, 500)
	for i := 0; i < 20; i++ {
		body := red
		if i%2 == 1 {
			body = green
		}
		top := 150 + (i%5)*20
		drawCandle(img, 100+i*30, 10, top, top+40, 10, 10, body)
	}
	return img
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func label(x, y int, text string) ocr.Detection {
	return ocr.Detection{
		Quad:       [4]image.Point{{x - 10, y - 5}, {x + 10, y - 5}, {x + 10, y + 5}, {x - 10, y + 5}},
		Text:       text,
		Confidence: 0.95,
	}
}

func staticOCR(dets ...ocr.Detection) ocr.Capability {
	return ocr.Available(ocr.RecognizerFunc(func(context.Context, image.Image) ([]ocr.Detection, error) {
		return dets, nil
	}))
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Mapping.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return opts
}

func newRecognizer(t *testing.T, c ocr.Capability) *Recognizer {
	t.Helper()
	r, err := New(c, testOptions())
	require.NoError(t, err)
	return r
}

func TestRecognizeImage_TwentyCandlesNoLabels(t *testing.T) {
	r := newRecognizer(t, ocr.Unavailable("not installed"))

	res := r.RecognizeImage(context.Background(), "synthetic.png", twentyCandleChart())

	assert.True(t, res.OK())
	require.Len(t, res.DataPoints, 20)
	assert.LessOrEqual(t, res.Confidence, 0.5)
	assert.Equal(t, 0.5, res.Confidence)
	assert.Contains(t, res.Warnings, axis.WarnOCRUnavailable)
	assert.Contains(t, res.Warnings, "calibration degraded: 0 price anchors")
	assert.Empty(t, res.Symbol)
	assert.NoError(t, res.Validate())

	first := res.DataPoints[0]
	assert.Equal(t, 160.00, first.Open)
	assert.Equal(t, 171.43, first.Close)
	assert.Equal(t, 174.29, first.High)
	assert.Equal(t, 157.43, first.Low)
	assert.Equal(t, "2024-05-12", first.Date)
	assert.Equal(t, "2024-05-31", res.DataPoints[19].Date)

	for i, rec := range res.DataPoints {
		if i%2 == 0 {
			assert.GreaterOrEqual(t, rec.Close, rec.Open, "candle %d should be bullish", i)
		} else {
			assert.Less(t, rec.Close, rec.Open, "candle %d should be bearish", i)
		}
	}
}

func TestRecognizeImage_Blank(t *testing.T) {
	r := newRecognizer(t, ocr.Unavailable("not installed"))

	res := r.RecognizeImage(context.Background(), "blank.png", blankChart(400, 300))

	assert.Empty(t, res.Error)
	assert.Equal(t, 0.0, res.Confidence)
	assert.NotNil(t, res.DataPoints)
	assert.Empty(t, res.DataPoints)
	assert.Contains(t, res.Warnings, WarnNoCandles)
}

func TestRecognizeImage_TwoAnchors(t *testing.T) {
	img := blankChart(800, 500)
	drawCandle(img, 300, 10, 200, 250, 0, 0, red)

	r := newRecognizer(t, staticOCR(
		label(20, 100, "200.00"),
		label(20, 400, "100.00"),
		label(400, 20, "AAPL"),
	))
	res := r.RecognizeImage(context.Background(), "aapl.png", img)

	require.Len(t, res.DataPoints, 1)
	rec := res.DataPoints[0]
	assert.Equal(t, 150.00, rec.Open)
	assert.Equal(t, 166.67, rec.Close)
	assert.Equal(t, "AAPL", res.Symbol)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Empty(t, res.Warnings)
}

func TestRecognizeImage_OCRErrorDegrades(t *testing.T) {
	failing := ocr.Available(ocr.RecognizerFunc(func(context.Context, image.Image) ([]ocr.Detection, error) {
		return nil, errors.New("engine crashed")
	}))
	r := newRecognizer(t, failing)

	res := r.RecognizeImage(context.Background(), "synthetic.png", twentyCandleChart())
	assert.True(t, res.OK(), "ocr failure must not fail the image")
	assert.Len(t, res.DataPoints, 20)
	assert.Equal(t, 0.5, res.Confidence)
}

func TestRecognizeImage_Idempotent(t *testing.T) {
	r := newRecognizer(t, staticOCR(label(20, 100, "200.00"), label(20, 400, "100.00")))
	img := twentyCandleChart()

	a := r.RecognizeImage(context.Background(), "c.png", img)
	b := r.RecognizeImage(context.Background(), "c.png", img)
	assert.Equal(t, a, b)
}

func TestRecognizeImage_InvalidFrame(t *testing.T) {
	r := newRecognizer(t, ocr.Unavailable(""))
	res := r.RecognizeImage(context.Background(), "empty.png", image.NewRGBA(image.Rect(0, 0, 0, 0)))

	assert.False(t, res.OK())
	assert.Zero(t, res.Confidence)
	assert.Empty(t, res.DataPoints)
}

func TestRecognizeFile_InvalidImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0644))

	r := newRecognizer(t, ocr.Unavailable(""))
	res := r.RecognizeFile(context.Background(), path)

	assert.Equal(t, "broken.png", res.ImageName)
	assert.Contains(t, res.Error, imaging.ErrInvalidImage.Error())
	assert.Zero(t, res.Confidence)
	assert.NotNil(t, res.DataPoints)
}

func TestRecognizeFile_Sidecar(t *testing.T) {
	dir := t.TempDir()
	img := blankChart(800, 500)
	drawCandle(img, 300, 10, 200, 250, 0, 0, green)
	path := writePNG(t, dir, "chart.png", img)

	require.NoError(t, ocr.WriteSidecar(ocr.SidecarPath(path), []ocr.Detection{
		label(780, 100, "200.00"),
		label(780, 400, "100.00"),
	}))

	opts := testOptions()
	opts.Sidecars = true
	r, err := New(ocr.Unavailable("not installed"), opts)
	require.NoError(t, err)

	res := r.RecognizeFile(context.Background(), path)
	require.Len(t, res.DataPoints, 1)
	assert.Equal(t, 166.67, res.DataPoints[0].Open)
	assert.Equal(t, 150.00, res.DataPoints[0].Close)
	assert.Equal(t, 1.0, res.Confidence)
}

func TestRecognizeFile_RecordSidecar(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "chart.png", twentyCandleChart())

	opts := testOptions()
	opts.RecordSidecars = true
	r, err := New(staticOCR(label(20, 100, "200.00")), opts)
	require.NoError(t, err)

	r.RecognizeFile(context.Background(), path)

	replay, err := ocr.LoadSidecar(ocr.SidecarPath(path))
	require.NoError(t, err)
	dets, err := replay.Recognize(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "200.00", dets[0].Text)
}

func TestRecognizeImage_DebugArtifacts(t *testing.T) {
	sink := imaging.NewMemorySink()
	opts := testOptions()
	opts.Debug = imaging.DebugConfig{Enabled: true, Sink: sink}
	r, err := New(ocr.Unavailable(""), opts)
	require.NoError(t, err)

	r.RecognizeImage(context.Background(), "dir/chart.png", twentyCandleChart())
	assert.Equal(t, []string{"chart_axis.png", "chart_candles.png", "chart_preprocessed.png"}, sink.Names())
}

func TestRecognizeImage_Downscales(t *testing.T) {
	opts := testOptions()
	opts.MaxWidth, opts.MaxHeight = 400, 250
	r, err := New(ocr.Unavailable(""), opts)
	require.NoError(t, err)

	a, err := r.Analyze(context.Background(), "c.png", twentyCandleChart())
	require.NoError(t, err)
	assert.Equal(t, 400, a.Frame.Bounds().Dx())
	assert.Equal(t, a.Frame.Bounds(), a.Binary.Bounds())
}

func TestRecognizeImage_CanceledContext(t *testing.T) {
	r := newRecognizer(t, ocr.Unavailable(""))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := r.RecognizeImage(ctx, "c.png", twentyCandleChart())
	assert.False(t, res.OK())
	assert.Contains(t, res.Error, ErrTimeout.Error())
}

func TestNew_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Preprocess.BlockSize = 4
	_, err := New(ocr.Unavailable(""), opts)
	assert.Error(t, err)
}

func TestStem(t *testing.T) {
	assert.Equal(t, "chart", stem("a/b/chart.png"))
	assert.Equal(t, "chart.v2", stem("chart.v2.jpeg"))
	assert.Equal(t, "noext", stem("noext"))
}

func TestRecognizeImage_AxisOverlay(t *testing.T) {
	sink := imaging.NewMemorySink()
	opts := testOptions()
	opts.Debug = imaging.DebugConfig{Enabled: true, Sink: sink}
	r, err := New(staticOCR(label(20, 100, "200.00"), label(20, 400, "100.00")), opts)
	require.NoError(t, err)

	r.RecognizeImage(context.Background(), "chart.png", twentyCandleChart())

	img, ok := sink.Get("chart_axis.png")
	require.True(t, ok)
	rgba, ok := img.(*image.RGBA)
	require.True(t, ok)

	// anchor rows are drawn across the full width, past the candle area
	assert.Equal(t, anchorColor, rgba.RGBAAt(790, 100))
	assert.Equal(t, anchorColor, rgba.RGBAAt(790, 400))
	assert.NotEqual(t, anchorColor, rgba.RGBAAt(790, 250))
}

func TestRecognizeImage_LargeFrameKeepsWicks(t *testing.T) {
	// larger than 1920x1080 in both directions
	img := blankChart(2000, 1200)
	for i := 0; i < 10; i++ {
		drawCandle(img, 300+i*150, 20, 450, 550, 150, 150, red)
	}

	r := newRecognizer(t, ocr.Unavailable(""))
	a, err := r.Analyze(context.Background(), "hidpi.png", img)
	require.NoError(t, err)

	assert.Equal(t, img.Bounds(), a.Frame.Bounds(), "frame processed at native size")
	require.Len(t, a.Result.DataPoints, 10)
	for i, rec := range a.Result.DataPoints {
		assert.Greater(t, rec.High, rec.Close, "record %d high", i)
		assert.Less(t, rec.Low, rec.Open, "record %d low", i)
	}
}

func TestRecognizeImage_EnhanceContrast(t *testing.T) {
	sink := imaging.NewMemorySink()
	opts := testOptions()
	opts.Preprocess.EnhanceContrast = true
	opts.Debug = imaging.DebugConfig{Enabled: true, Sink: sink}
	r, err := New(ocr.Unavailable(""), opts)
	require.NoError(t, err)

	res := r.RecognizeImage(context.Background(), "chart.png", twentyCandleChart())

	require.Len(t, res.DataPoints, 20)
	for i, rec := range res.DataPoints {
		assert.Greater(t, rec.High, math.Max(rec.Open, rec.Close), "record %d high", i)
		assert.Less(t, rec.Low, math.Min(rec.Open, rec.Close), "record %d low", i)
	}
	assert.Contains(t, sink.Names(), "chart_enhanced.png")
}

func TestRecognizeImage_RejectedCandlesLowerConfidence(t *testing.T) {
	// rows 100 and 200 read 2.00 and 1.00, so prices reach zero at row 300
	img := blankChart(800, 500)
	drawCandle(img, 100, 10, 150, 190, 10, 10, red)
	drawCandle(img, 150, 10, 160, 180, 10, 10, green)
	drawCandle(img, 200, 10, 320, 360, 10, 10, red)

	r := newRecognizer(t, staticOCR(label(20, 100, "2.00"), label(20, 200, "1.00")))
	res := r.RecognizeImage(context.Background(), "low.png", img)

	require.Len(t, res.DataPoints, 2)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 0.8, res.Confidence)
	for _, rec := range res.DataPoints {
		assert.NoError(t, rec.Validate())
	}
}
