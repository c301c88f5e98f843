package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/chart-ohlc/internal/axis"
	"github.com/ironsheep/chart-ohlc/internal/confidence"
	"github.com/ironsheep/chart-ohlc/internal/detection"
	"github.com/ironsheep/chart-ohlc/internal/imaging"
	"github.com/ironsheep/chart-ohlc/internal/mapping"
	"github.com/ironsheep/chart-ohlc/internal/ocr"
	"github.com/ironsheep/chart-ohlc/internal/ohlc"
)

// ErrTimeout marks a result abandoned because its per-image deadline passed.
var ErrTimeout = errors.New("recognition timed out")

// Warning texts attached to results.
const (
	WarnNoCandles = "no candles detected"
)

// Options configures every stage of one recognition.
type Options struct {
	Preprocess imaging.PreprocessOptions
	Axis       axis.Options
	Detection  detection.Options
	Mapping    mapping.Options

	// MaxWidth/MaxHeight downscale oversized frames before processing.
	// Zero disables resizing. Downscaling blends 1px wicks into the
	// background, so it is off by default.
	MaxWidth  int
	MaxHeight int

	Debug imaging.DebugConfig

	// Sidecars replays "<image>.ocr.json" instead of running the engine when
	// the file exists. RecordSidecars writes that file after each engine run.
	Sidecars       bool
	RecordSidecars bool

	Verbose bool
}

// DefaultOptions returns each stage's defaults. Frames are processed at
// their native size.
func DefaultOptions() Options {
	return Options{
		Preprocess: imaging.DefaultPreprocessOptions(),
		Axis:       axis.DefaultOptions(),
		Detection:  detection.DefaultOptions(),
		Mapping:    mapping.DefaultOptions(),
	}
}

// Validate checks every stage's options.
func (o Options) Validate() error {
	if err := o.Preprocess.Validate(); err != nil {
		return fmt.Errorf("preprocess: %w", err)
	}
	if err := o.Axis.Validate(); err != nil {
		return fmt.Errorf("axis: %w", err)
	}
	if err := o.Detection.Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	if err := o.Mapping.Validate(); err != nil {
		return fmt.Errorf("mapping: %w", err)
	}
	if o.MaxWidth < 0 || o.MaxHeight < 0 {
		return fmt.Errorf("max width/height must be >= 0")
	}
	return nil
}

// Recognizer runs the full chart digitization pipeline on single images.
// It holds no per-image state and is safe for concurrent use as long as the
// OCR capability is (see ocr.Serialize).
type Recognizer struct {
	capability ocr.Capability
	opts       Options
}

// New returns a Recognizer after validating opts.
func New(capability ocr.Capability, opts Options) (*Recognizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline options: %w", err)
	}
	opts.Axis.Verbose = opts.Axis.Verbose || opts.Verbose
	opts.Detection.Verbose = opts.Detection.Verbose || opts.Verbose
	opts.Mapping.Verbose = opts.Mapping.Verbose || opts.Verbose
	return &Recognizer{capability: capability, opts: opts}, nil
}

// Capability returns the OCR capability the recognizer was built with.
func (r *Recognizer) Capability() ocr.Capability {
	return r.capability
}

// Options returns the validated options.
func (r *Recognizer) Options() Options {
	return r.opts
}

// Analysis holds every intermediate product of one recognition.
type Analysis struct {
	Frame       image.Image
	Binary      *image.Gray
	Calibration axis.Calibration
	Candles     []detection.Candle
	Mapping     mapping.Mapping
	Result      ohlc.Result
}

// RecognizeFile loads path and recognizes it. Load failures produce a failed
// result, never an error.
func (r *Recognizer) RecognizeFile(ctx context.Context, path string) ohlc.Result {
	a, err := r.AnalyzeFile(ctx, path)
	if err != nil {
		return ohlc.Failed(filepath.Base(path), err)
	}
	return a.Result
}

// RecognizeImage recognizes an already decoded frame.
func (r *Recognizer) RecognizeImage(ctx context.Context, name string, img image.Image) ohlc.Result {
	a, err := r.Analyze(ctx, name, img)
	if err != nil {
		return ohlc.Failed(name, err)
	}
	return a.Result
}

// AnalyzeFile is RecognizeFile returning the intermediate products. Sidecar
// replay and recording apply here, since they are keyed by file path.
func (r *Recognizer) AnalyzeFile(ctx context.Context, path string) (*Analysis, error) {
	img, err := imaging.Load(path)
	if err != nil {
		return nil, err
	}
	return r.AnalyzeLoaded(ctx, path, img)
}

// AnalyzeLoaded analyzes a frame already decoded from path, for callers that
// cache frames. Sidecars are resolved against path.
func (r *Recognizer) AnalyzeLoaded(ctx context.Context, path string, img image.Image) (*Analysis, error) {
	return r.analyze(ctx, filepath.Base(path), img, r.capabilityFor(path))
}

// Analyze is RecognizeImage returning the intermediate products.
//
// Errors are returned only for failures that make the whole image unusable
// (an invalid frame, an expired context). Degraded outcomes such as missing
// OCR or no candles are reported through the result's warnings.
func (r *Recognizer) Analyze(ctx context.Context, name string, img image.Image) (*Analysis, error) {
	return r.analyze(ctx, name, img, r.capability)
}

func (r *Recognizer) capabilityFor(path string) ocr.Capability {
	sidecar := ocr.SidecarPath(path)
	if r.opts.Sidecars {
		if _, err := os.Stat(sidecar); err == nil {
			rec, err := ocr.LoadSidecar(sidecar)
			if err == nil {
				return ocr.Available(rec)
			}
			log.Printf("[WARN] ignoring sidecar %s: %v", sidecar, err)
		}
	}
	if r.opts.RecordSidecars {
		return r.capability.WithRecognizer(func(rec ocr.Recognizer) ocr.Recognizer {
			return ocr.Recording(rec, sidecar)
		})
	}
	return r.capability
}

func (r *Recognizer) analyze(ctx context.Context, name string, img image.Image, capability ocr.Capability) (*Analysis, error) {
	if err := imaging.ValidateFrame(img); err != nil {
		return nil, err
	}
	img = imaging.Fit(img, r.opts.MaxWidth, r.opts.MaxHeight)
	debug := r.opts.Debug.WithName(stem(name))

	img, err := imaging.EnhanceContrast(img, r.opts.Preprocess, debug)
	if err != nil {
		return nil, fmt.Errorf("contrast enhancement failed: %w", err)
	}

	binary, err := imaging.Preprocess(img, r.opts.Preprocess, debug)
	if err != nil {
		return nil, fmt.Errorf("preprocess failed: %w", err)
	}

	cal := axis.Recover(ctx, img, capability, r.opts.Axis)

	candles, err := detection.DetectCandles(binary, img, r.opts.Detection, debug)
	if err != nil {
		return nil, fmt.Errorf("candle detection failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	a := &Analysis{Frame: img, Binary: binary, Calibration: cal, Candles: candles}

	res := ohlc.Result{
		ImageName:  name,
		Symbol:     cal.Symbol,
		DataPoints: []ohlc.Record{},
	}
	res.Warnings = append(res.Warnings, cal.Warnings...)
	if cal.Degraded() {
		res.Warnings = append(res.Warnings, fmt.Sprintf("calibration degraded: %d price anchors", len(cal.PriceAnchors)))
	}

	if len(candles) == 0 {
		res.Warnings = append(res.Warnings, WarnNoCandles)
		a.Mapping = mapping.Mapping{Records: []ohlc.Record{}, Scale: mapping.NewScale(cal, img.Bounds(), r.opts.Mapping)}
		emitAxisOverlay(debug, img, cal, a.Mapping.Scale)
		a.Result = res
		return a, nil
	}

	a.Mapping = mapping.Map(candles, cal, img.Bounds(), r.opts.Mapping)
	emitAxisOverlay(debug, img, cal, a.Mapping.Scale)
	res.DataPoints = a.Mapping.Records
	res.Rejected = a.Mapping.Rejected
	if res.Rejected > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d candles rejected by price validation", res.Rejected))
	}
	res.Warnings = append(res.Warnings, ohlc.ValidateAll(res.DataPoints)...)
	res.Confidence = confidence.Score(res.DataPoints, res.Rejected, cal)

	if r.opts.Verbose {
		log.Printf("[DEBUG] %s: %d candles, %d records, confidence %.2f", name, len(candles), len(res.DataPoints), res.Confidence)
	}

	a.Result = res
	return a, nil
}

func stem(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}
