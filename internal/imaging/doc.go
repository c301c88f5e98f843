// Package imaging provides frame loading and pixel-level operations for chart digitization.
//
// This package implements the image-facing half of the pipeline: decoding chart
// screenshots, binarizing them for geometric analysis, color-space conversion for
// candle segmentation, and emitting debug artifacts. All operations work with
// standard Go image.Image types and use a coordinate system where (0,0) is at the
// top-left corner, X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive (top-left), Max is exclusive (bottom-right)
//
// # Frames
//
// A frame is the decoded source image. Frames are never mutated after Load;
// every stage that needs to draw (debug overlays) works on a copy. This makes
// frames safe to share between goroutines and through ImageCache.
//
// # Color Representation
//
// HSV hue is expressed in degrees (0-360) while saturation and value use the
// 8-bit 0-255 scale. Red wraps around 0/360 and is described by two HueBands.
//
// # Debug Artifacts
//
// Stages that can write intermediate images take a DebugConfig argument. There
// is no package-level debug switch; a zero DebugConfig emits nothing.
//
// # Error Handling
//
// Decode failures and empty frames wrap ErrInvalidImage. Option validation
// errors are plain errors describing the offending field.
package imaging
