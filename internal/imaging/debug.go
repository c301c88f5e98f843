package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/anthonynsimon/bild/imgio"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ArtifactSink receives intermediate images written for debugging.
type ArtifactSink interface {
	Put(name string, img image.Image) error
}

// DebugConfig is passed explicitly to each pipeline stage that can emit
// intermediate artifacts. The zero value emits nothing.
type DebugConfig struct {
	Enabled bool
	Sink    ArtifactSink

	// Name prefixes every artifact, normally the source image stem.
	Name string
}

// WithName returns a copy of d whose artifacts are prefixed with name.
func (d DebugConfig) WithName(name string) DebugConfig {
	d.Name = name
	return d
}

// Emit writes img to the sink as "<Name>_<kind>.png". Failures are logged,
// never returned: debug output must not change recognition results.
func (d DebugConfig) Emit(kind string, img image.Image) {
	if !d.Enabled || d.Sink == nil || img == nil {
		return
	}
	name := kind + ".png"
	if d.Name != "" {
		name = d.Name + "_" + name
	}
	if err := d.Sink.Put(name, img); err != nil {
		log.Printf("[WARN] debug artifact %s: %v", name, err)
	}
}

// DirSink writes artifacts as PNG files into a directory.
type DirSink struct {
	Dir string
}

// NewDirSink creates dir if needed and returns a sink writing into it.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create debug directory: %w", err)
	}
	return &DirSink{Dir: dir}, nil
}

// Put encodes img as PNG at Dir/name.
func (s *DirSink) Put(name string, img image.Image) error {
	return imgio.Save(filepath.Join(s.Dir, name), img, imgio.PNGEncoder())
}

// MemorySink keeps artifacts in memory. It is safe for concurrent use.
type MemorySink struct {
	mu        sync.Mutex
	artifacts map[string]image.Image
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{artifacts: make(map[string]image.Image)}
}

// Put stores img under name, replacing any previous artifact.
func (s *MemorySink) Put(name string, img image.Image) error {
	s.mu.Lock()
	s.artifacts[name] = img
	s.mu.Unlock()
	return nil
}

// Get returns the artifact stored under name.
func (s *MemorySink) Get(name string) (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.artifacts[name]
	return img, ok
}

// Names returns the stored artifact names in sorted order.
func (s *MemorySink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.artifacts))
	for n := range s.artifacts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Overlay is a mutable RGBA copy of a frame used to annotate debug output.
type Overlay struct {
	img *image.RGBA
}

// NewOverlay copies base into a new RGBA canvas.
func NewOverlay(base image.Image) *Overlay {
	b := base.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, base, b.Min, draw.Src)
	return &Overlay{img: dst}
}

// Image returns the annotated canvas.
func (o *Overlay) Image() *image.RGBA {
	return o.img
}

// Rect draws the outline of r.
func (o *Overlay) Rect(r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		o.set(x, r.Min.Y, c)
		o.set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		o.set(r.Min.X, y, c)
		o.set(r.Max.X-1, y, c)
	}
}

// VLine draws a vertical line at x between y1 and y2 inclusive.
func (o *Overlay) VLine(x, y1, y2 int, c color.Color) {
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	for y := y1; y <= y2; y++ {
		o.set(x, y, c)
	}
}

// Label draws text with its baseline at (x, y) using the 7x13 basic font.
func (o *Overlay) Label(x, y int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  o.img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func (o *Overlay) set(x, y int, c color.Color) {
	if image.Pt(x, y).In(o.img.Bounds()) {
		o.img.Set(x, y, c)
	}
}
