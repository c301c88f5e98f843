package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"os"
)

// SidecarSuffix is appended to an image path to name its recorded detections.
const SidecarSuffix = ".ocr.json"

// SidecarPath returns the sidecar file path for imagePath.
func SidecarPath(imagePath string) string {
	return imagePath + SidecarSuffix
}

type sidecarFile struct {
	Detections []sidecarDetection `json:"detections"`
}

type sidecarDetection struct {
	Quad       [4][2]int `json:"quad"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
}

type staticRecognizer struct {
	detections []Detection
}

func (s *staticRecognizer) Recognize(ctx context.Context, _ image.Image) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Detection, len(s.detections))
	copy(out, s.detections)
	return out, nil
}

// LoadSidecar reads detections previously recorded for one image and returns a
// recognizer that replays them for any frame.
//
// The file format is:
//
//	{"detections": [{"quad": [[x,y],[x,y],[x,y],[x,y]], "text": "123.45", "confidence": 0.97}]}
func LoadSidecar(path string) (Recognizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sidecar: %w", err)
	}

	var f sidecarFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sidecar %s: %w", path, err)
	}

	dets := make([]Detection, 0, len(f.Detections))
	for _, sd := range f.Detections {
		var d Detection
		for i, p := range sd.Quad {
			d.Quad[i] = image.Pt(p[0], p[1])
		}
		d.Text = sd.Text
		d.Confidence = sd.Confidence
		dets = append(dets, d)
	}
	return &staticRecognizer{detections: dets}, nil
}

// WriteSidecar records detections to path in the LoadSidecar format.
func WriteSidecar(path string, dets []Detection) error {
	f := sidecarFile{Detections: make([]sidecarDetection, 0, len(dets))}
	for _, d := range dets {
		var sd sidecarDetection
		for i, p := range d.Quad {
			sd.Quad[i] = [2]int{p.X, p.Y}
		}
		sd.Text = d.Text
		sd.Confidence = d.Confidence
		f.Detections = append(f.Detections, sd)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sidecar: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write sidecar: %w", err)
	}
	return nil
}

type recording struct {
	inner Recognizer
	path  string
}

// Recording wraps r so that every successful result is also written to path.
// Write failures are logged and do not affect the returned detections.
func Recording(r Recognizer, path string) Recognizer {
	return &recording{inner: r, path: path}
}

func (r *recording) Recognize(ctx context.Context, img image.Image) ([]Detection, error) {
	dets, err := r.inner.Recognize(ctx, img)
	if err != nil {
		return nil, err
	}
	if werr := WriteSidecar(r.path, dets); werr != nil {
		log.Printf("[WARN] ocr sidecar %s: %v", r.path, werr)
	}
	return dets, nil
}
