package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the chart screenshot",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Recognition
		{
			Name:        "chart_recognize",
			Description: "Recognize a candlestick chart screenshot and return its OHLC records, symbol, confidence and warnings. An unreadable image returns a result with the error field set.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "chart_recognize_batch",
			Description: "Recognize every supported image directly inside a directory. Returns per-image results in file name order, a summary, and image names grouped by quality (high > 0.8, medium >= 0.5, low).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the directory of screenshots",
					},
					"max_workers": map[string]interface{}{
						"type":        "integer",
						"description": "Optional number of images processed at once. Defaults to the server configuration",
					},
				},
				"required": []string{"dir"},
			},
		},
		{
			Name:        "chart_compare",
			Description: "Recognize two screenshots of the same chart and report record count, confidence and per-record price differences.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path_a": pathProperty(),
					"path_b": pathProperty(),
				},
				"required": []string{"path_a", "path_b"},
			},
		},

		// Pipeline stages
		{
			Name:        "chart_axis",
			Description: "Run axis recovery only: price anchors (pixel row to price), date labels, symbol, and the resulting pixel-to-price scale. Use this to check why a chart fell back to the synthetic scale.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "chart_detect_candles",
			Description: "Detect candle bodies and wicks in pixel coordinates without mapping them to prices.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "chart_preprocess",
			Description: "Return the binarized frame used for geometric analysis as base64 PNG, optionally cropped to a region.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Optional left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Optional top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Optional right edge X coordinate (exclusive). Omit all four to return the whole frame",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Optional bottom edge Y coordinate (exclusive)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor. Default 1.0",
						"default":     1.0,
					},
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Optional pixel spacing of a labelled coordinate grid drawn over the frame. 0 draws none",
						"default":     0,
					},
					"grid_color": map[string]interface{}{
						"type":        "string",
						"description": "Grid color as hex (#RRGGBB). Default #FF0000",
						"default":     "#FF0000",
					},
				},
				"required": []string{"path"},
			},
		},

		// Engine status
		{
			Name:        "chart_ocr_status",
			Description: "Report whether text recognition is available, which backend is in use, and why not when unavailable.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "chart_cache_clear",
			Description: "Drop decoded frames held by the server so charts rewritten on disk are read again. Without a path every frame is dropped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path of the one frame to drop",
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
