package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"path/filepath"

	"github.com/ironsheep/chart-ohlc/internal/axis"
	"github.com/ironsheep/chart-ohlc/internal/detection"
	"github.com/ironsheep/chart-ohlc/internal/imaging"
	"github.com/ironsheep/chart-ohlc/internal/mapping"
	"github.com/ironsheep/chart-ohlc/internal/ohlc"
	"github.com/ironsheep/chart-ohlc/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "chart_recognize", "chart_axis").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// A chart that cannot be recognized is not a tool error: chart_recognize
// returns a result whose error field is set.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Recognition
	case "chart_recognize":
		return s.handleRecognize(ctx, args)
	case "chart_recognize_batch":
		return s.handleRecognizeBatch(ctx, args)
	case "chart_compare":
		return s.handleCompare(ctx, args)

	// Pipeline stages
	case "chart_axis":
		return s.handleAxis(ctx, args)
	case "chart_detect_candles":
		return s.handleDetectCandles(ctx, args)
	case "chart_preprocess":
		return s.handlePreprocess(args)

	// Engine status
	case "chart_ocr_status":
		return s.rec.Capability().Status(), nil
	case "chart_cache_clear":
		return s.handleCacheClear(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// analyze runs the pipeline on a cached frame.
func (s *Server) analyze(ctx context.Context, path string) (*pipeline.Analysis, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	return s.rec.AnalyzeLoaded(ctx, path, img)
}

// recognize is analyze reduced to a result; failures become failed results.
func (s *Server) recognize(ctx context.Context, path string) ohlc.Result {
	a, err := s.analyze(ctx, path)
	if err != nil {
		return ohlc.Failed(filepath.Base(path), err)
	}
	return a.Result
}

// === Recognition Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleRecognize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return s.recognize(ctx, a.Path), nil
}

type recognizeBatchArgs struct {
	Dir        string `json:"dir"`
	MaxWorkers int    `json:"max_workers"`
}

// BatchResponse is the chart_recognize_batch result.
type BatchResponse struct {
	Results []ohlc.Result             `json:"results"`
	Summary ohlc.Summary              `json:"summary"`
	Quality map[ohlc.Quality][]string `json:"quality"`
}

func (s *Server) handleRecognizeBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a recognizeBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Dir == "" {
		return nil, fmt.Errorf("dir is required")
	}

	opts := s.batch
	if a.MaxWorkers > 0 {
		opts.MaxWorkers = a.MaxWorkers
	}
	results, err := pipeline.NewBatch(s.rec, opts).RunDir(ctx, a.Dir)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []ohlc.Result{}
	}

	quality := make(map[ohlc.Quality][]string)
	for q, rs := range ohlc.SplitByQuality(results) {
		names := make([]string, 0, len(rs))
		for _, r := range rs {
			names = append(names, r.ImageName)
		}
		quality[q] = names
	}

	return &BatchResponse{
		Results: results,
		Summary: ohlc.Summarize(results),
		Quality: quality,
	}, nil
}

type compareArgs struct {
	PathA string `json:"path_a"`
	PathB string `json:"path_b"`
}

// CompareResponse is the chart_compare result.
type CompareResponse struct {
	A          ohlc.Result     `json:"a"`
	B          ohlc.Result     `json:"b"`
	Comparison ohlc.Comparison `json:"comparison"`
	MaxDiff    float64         `json:"max_price_difference"`
}

func (s *Server) handleCompare(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a compareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.PathA == "" || a.PathB == "" {
		return nil, fmt.Errorf("path_a and path_b are required")
	}
	ra, rb := s.recognize(ctx, a.PathA), s.recognize(ctx, a.PathB)
	c := ohlc.Compare(ra, rb)
	return &CompareResponse{A: ra, B: rb, Comparison: c, MaxDiff: c.MaxAbs()}, nil
}

// === Pipeline Stage Handlers ===

// AxisResponse is the chart_axis result.
type AxisResponse struct {
	Calibration axis.Calibration `json:"calibration"`
	Degraded    bool             `json:"degraded"`
	Scale       mapping.Scale    `json:"scale"`
}

func (s *Server) handleAxis(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	an, err := s.analyze(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	return &AxisResponse{
		Calibration: an.Calibration,
		Degraded:    an.Calibration.Degraded(),
		Scale:       an.Mapping.Scale,
	}, nil
}

// CandlesResponse is the chart_detect_candles result.
type CandlesResponse struct {
	Dimensions imaging.DimensionsResult `json:"dimensions"`
	Interior   detection.Bounds         `json:"interior"`
	Count      int                      `json:"count"`
	Candles    []DetectedCandle         `json:"candles"`
}

// DetectedCandle is a candle with the color sampled at the center of its body.
type DetectedCandle struct {
	detection.Candle
	BodyColor string `json:"body_color"`
}

func (s *Server) handleDetectCandles(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	an, err := s.analyze(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	in := s.rec.Options().Detection.Region.Rect(an.Frame.Bounds())
	candles := make([]DetectedCandle, len(an.Candles))
	for i, c := range an.Candles {
		candles[i] = DetectedCandle{
			Candle:    c,
			BodyColor: imaging.HexAt(an.Frame, c.CenterX, (c.BodyTop+c.BodyBottom)/2),
		}
	}
	return &CandlesResponse{
		Dimensions: imaging.Dimensions(an.Frame),
		Interior:   detection.Bounds{X1: in.Min.X, Y1: in.Min.Y, X2: in.Max.X, Y2: in.Max.Y},
		Count:      len(an.Candles),
		Candles:    candles,
	}, nil
}

type cacheArgs struct {
	Path string `json:"path"`
}

// CacheResponse is the chart_cache_clear result.
type CacheResponse struct {
	Evicted int `json:"evicted"`
	Cached  int `json:"cached"`
}

// handleCacheClear drops one decoded frame, or every frame when no path is
// given, so a chart rewritten on disk is decoded again.
func (s *Server) handleCacheClear(args json.RawMessage) (interface{}, error) {
	var a cacheArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, err
		}
	}

	before := s.cache.Len()
	if a.Path != "" {
		s.cache.Evict(a.Path)
	} else {
		s.cache.Clear()
	}
	return &CacheResponse{Evicted: before - s.cache.Len(), Cached: s.cache.Len()}, nil
}

type preprocessArgs struct {
	Path  string  `json:"path"`
	X1    *int    `json:"x1"`
	Y1    *int    `json:"y1"`
	X2    *int    `json:"x2"`
	Y2    *int    `json:"y2"`
	Scale float64 `json:"scale"`

	GridSpacing int    `json:"grid_spacing"`
	GridColor   string `json:"grid_color"`
}

// region returns the requested crop, or ok=false when no coordinate was given.
func (a preprocessArgs) region() (r image.Rectangle, ok bool, err error) {
	coords := []*int{a.X1, a.Y1, a.X2, a.Y2}
	set := 0
	for _, c := range coords {
		if c != nil {
			set++
		}
	}
	switch set {
	case 0:
		return image.Rectangle{}, false, nil
	case 4:
		return image.Rect(*a.X1, *a.Y1, *a.X2, *a.Y2), true, nil
	default:
		return image.Rectangle{}, false, fmt.Errorf("x1, y1, x2 and y2 must be given together")
	}
}

func (s *Server) handlePreprocess(args json.RawMessage) (interface{}, error) {
	var a preprocessArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	region, crop, err := a.region()
	if err != nil {
		return nil, err
	}

	if a.GridSpacing < 0 {
		return nil, fmt.Errorf("grid_spacing must be >= 0, got %d", a.GridSpacing)
	}
	if a.GridColor == "" {
		a.GridColor = "#FF0000"
	}
	gridColor, err := imaging.ParseHexColor(a.GridColor)
	if err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	opts := s.rec.Options()
	img = imaging.Fit(img, opts.MaxWidth, opts.MaxHeight)
	if img, err = imaging.EnhanceContrast(img, opts.Preprocess, imaging.DebugConfig{}); err != nil {
		return nil, err
	}

	binary, err := imaging.Preprocess(img, opts.Preprocess, imaging.DebugConfig{})
	if err != nil {
		return nil, err
	}

	var out image.Image = binary
	if a.GridSpacing > 0 {
		// drawn before cropping so labels carry frame coordinates
		o := imaging.NewOverlay(binary)
		o.Grid(a.GridSpacing, gridColor, true)
		out = o.Image()
	}
	if crop {
		if out, err = imaging.Crop(out, region); err != nil {
			return nil, err
		}
	}
	return imaging.EncodePNG(out, a.Scale)
}
