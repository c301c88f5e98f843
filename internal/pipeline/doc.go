// Package pipeline wires the digitization stages together.
//
// For one image the stages run in order on the same goroutine:
//
//	frame ─┬─ imaging.Preprocess ──────────┐
//	       ├─ axis.Recover ──────────────┐ │
//	       └─────────────────────────────┼─┴─ detection.DetectCandles
//	                                     └──── mapping.Map ── confidence.Score
//
// Failures that make an image unusable (undecodable file, empty frame,
// expired deadline) become a Result with Error set and zero confidence.
// Degraded outcomes (no OCR, too few price anchors, no candles) become
// warnings. Nothing in a single image's run can abort a Batch.
//
// Batch runs images on a fixed worker pool. Each image has its own
// deadline; results keep input order regardless of completion order.
package pipeline
