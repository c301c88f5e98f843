// Package axis recovers the price scale of a chart from its axis labels.
//
// Labels come from an ocr.Capability. Detections near the left or right edge
// that parse as numbers become price anchors (pixel row, price); detections
// along the bottom that look like dates become date anchors; a ticker or
// numeric code near the top becomes the symbol.
//
// A Calibration with fewer than two price anchors is Degraded: the mapper
// uses a synthetic price range and the confidence score is halved. This is a
// normal outcome when no OCR engine is installed.
package axis
