// Package detection finds candlesticks in a chart frame.
//
// Candles are segmented by body color rather than by edges: bullish and
// bearish bodies are separated with HSV masks (see imaging.ColorRange), each
// mask is split into 8-connected components, and the bounding box of each
// component becomes a candle body. Wicks are then measured by walking the
// luminance column through the body center.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// # Assumptions
//
// The defaults fit red-up/green-down charts on a light background with dark
// wicks. Dark-theme charts invert the wick test and need a different
// ShadowThreshold strategy; that case is not handled. Overlapping or touching
// candles merge into a single component.
//
// # Performance
//
// Every interior pixel is converted to HSV twice (once per mask). For very
// large screenshots, downscale with imaging.Fit first.
package detection
