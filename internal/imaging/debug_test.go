package imaging

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

type failingSink struct{ calls int }

func (f *failingSink) Put(string, image.Image) error {
	f.calls++
	return errors.New("disk full")
}

func TestDebugConfig_Emit(t *testing.T) {
	img := solidImage(4, 4, color.White)

	t.Run("disabled", func(t *testing.T) {
		sink := NewMemorySink()
		DebugConfig{Sink: sink}.Emit("binary", img)
		if len(sink.Names()) != 0 {
			t.Errorf("disabled config wrote %v", sink.Names())
		}
	})

	t.Run("named", func(t *testing.T) {
		sink := NewMemorySink()
		DebugConfig{Enabled: true, Sink: sink}.WithName("aapl").Emit("candles", img)
		if _, ok := sink.Get("aapl_candles.png"); !ok {
			t.Errorf("got %v, want aapl_candles.png", sink.Names())
		}
	})

	t.Run("unnamed", func(t *testing.T) {
		sink := NewMemorySink()
		DebugConfig{Enabled: true, Sink: sink}.Emit("candles", img)
		if _, ok := sink.Get("candles.png"); !ok {
			t.Errorf("got %v, want candles.png", sink.Names())
		}
	})

	t.Run("sink error is swallowed", func(t *testing.T) {
		sink := &failingSink{}
		DebugConfig{Enabled: true, Sink: sink}.Emit("candles", img)
		if sink.calls != 1 {
			t.Errorf("Put calls = %d, want 1", sink.calls)
		}
	})
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "debug")
	sink, err := NewDirSink(dir)
	if err != nil {
		t.Fatalf("NewDirSink failed: %v", err)
	}

	if err := sink.Put("x_preprocessed.png", solidImage(3, 3, color.Black)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	loaded, err := Load(filepath.Join(dir, "x_preprocessed.png"))
	if err != nil {
		t.Fatalf("artifact not readable: %v", err)
	}
	if loaded.Bounds().Dx() != 3 {
		t.Errorf("width = %d, want 3", loaded.Bounds().Dx())
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestOverlay(t *testing.T) {
	base := solidImage(30, 30, color.White)
	o := NewOverlay(base)

	o.Rect(image.Rect(5, 5, 15, 15), color.RGBA{255, 0, 0, 255})
	o.VLine(20, 25, 2, color.RGBA{0, 0, 255, 255})
	o.Label(0, 28, "1", color.Black)
	// out of bounds drawing is ignored
	o.Rect(image.Rect(-5, -5, 100, 100), color.Black)

	if HexAt(o.Image(), 5, 10) != "#FF0000" {
		t.Error("rect edge not drawn")
	}
	if HexAt(o.Image(), 10, 10) != "#FFFFFF" {
		t.Error("rect interior should be untouched")
	}
	if HexAt(o.Image(), 20, 10) != "#0000FF" {
		t.Error("vline not drawn")
	}
	if HexAt(base, 5, 10) != "#FFFFFF" {
		t.Error("overlay must not mutate the base frame")
	}
}
