// Package ocr defines the text-recognition capability used for axis recovery.
//
// Recognition is an external collaborator: given a frame it returns a set of
// Detections (bounding quadrilateral, text, confidence) in no particular
// order. The rest of the module never checks whether an OCR library is
// installed. It receives a Capability built once at startup:
//
//	c := ocr.NewDefault("eng", "", 2)       // Tesseract if linked and working
//	c := ocr.Available(myRecognizer)        // any Recognizer
//	c := ocr.Unavailable("disabled")        // axis recovery degrades
//
// # Backends
//
//   - Tesseract: word boxes from gosseract/v2. Requires cgo and an installed
//     libtesseract with language data (apt-get install tesseract-ocr-eng,
//     brew install tesseract). Without cgo NewDefault returns Unavailable.
//   - Sidecar: LoadSidecar replays detections recorded with Recording or
//     WriteSidecar, so batch runs can be repeated without the engine.
//   - RecognizerFunc: adapts a plain function; used heavily in tests.
//
// # Concurrency
//
// Recognizers may be called from several batch workers. Serialize wraps a
// recognizer that is not safe for concurrent use so calls run one at a time.
//
// # Errors
//
// Backend failures wrap ErrUnavailable. Axis recovery logs them and continues
// with an empty calibration.
package ocr
