// Package server implements the MCP (Model Context Protocol) server for chart digitization.
//
// This package provides a JSON-RPC 2.0 server that exposes the recognition
// pipeline and its individual stages as MCP tools, so a client can recognize
// a chart and then inspect why it came out the way it did.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Recognition:
//   - chart_recognize: OHLC records, symbol and confidence for one image
//   - chart_recognize_batch: every image in a directory, with a quality summary
//   - chart_compare: per-record price differences between two screenshots
//
// Pipeline stages:
//   - chart_axis: price anchors, date labels, symbol and the price scale
//   - chart_detect_candles: candle bodies and wicks in pixel coordinates, each
//     with its sampled body color
//   - chart_preprocess: the binarized frame as base64 PNG
//
// Engine status:
//   - chart_ocr_status: whether text recognition is available and why not
//   - chart_cache_clear: drop one cached frame, or all of them
//
// # Image Caching
//
// Frames are cached by path and reused across tool calls, so inspecting the
// axis and then the candles of one screenshot decodes it once. The cache
// persists for the lifetime of the server process, or until chart_cache_clear
// drops it after a screenshot is replaced on disk. Batch runs bypass it.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// chart_recognize is the exception: an unreadable image yields a normal
// response carrying a failed result, the same as in a batch.
//
// # Usage
//
//	rec, _ := pipeline.New(cfg.OCRCapability(), opts)
//	srv := server.New(rec, cfg.BatchOptions(), version)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
