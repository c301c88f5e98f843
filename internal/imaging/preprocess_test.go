package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestPreprocess_Binary(t *testing.T) {
	img := solidImage(60, 40, color.White)
	// dark vertical bar, 4px wide
	for y := 5; y < 35; y++ {
		for x := 28; x < 32; x++ {
			img.Set(x, y, color.Black)
		}
	}

	binary, err := Preprocess(img, DefaultPreprocessOptions(), DebugConfig{})
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if binary.Bounds() != img.Bounds() {
		t.Errorf("bounds changed: got %v, want %v", binary.Bounds(), img.Bounds())
	}

	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			v := binary.GrayAt(x, y).Y
			if v != 0 && v != 255 {
				t.Fatalf("pixel (%d,%d) = %d, want 0 or 255", x, y, v)
			}
		}
	}

	if binary.GrayAt(30, 20).Y != 0 {
		t.Error("dark bar should binarize to 0")
	}
	if binary.GrayAt(5, 20).Y != 255 {
		t.Error("flat background should binarize to 255")
	}
}

func TestPreprocess_InvalidFrame(t *testing.T) {
	_, err := Preprocess(image.NewRGBA(image.Rect(0, 0, 0, 0)), DefaultPreprocessOptions(), DebugConfig{})
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("expected ErrInvalidImage, got %v", err)
	}
}

func TestPreprocessOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    PreprocessOptions
		wantErr bool
	}{
		{"default", DefaultPreprocessOptions(), false},
		{"even block", PreprocessOptions{BlockSize: 10}, true},
		{"block too small", PreprocessOptions{BlockSize: 1}, true},
		{"negative radius", PreprocessOptions{BlockSize: 3, DenoiseRadius: -1}, true},
		{"no denoise", PreprocessOptions{BlockSize: 3}, false},
		{"contrast off ignores tiles", PreprocessOptions{BlockSize: 3, TileGrid: 0}, false},
		{"contrast low clip", PreprocessOptions{BlockSize: 3, EnhanceContrast: true, ClipLimit: 0.5, TileGrid: 8}, true},
		{"contrast no tiles", PreprocessOptions{BlockSize: 3, EnhanceContrast: true, ClipLimit: 2}, true},
		{"contrast", PreprocessOptions{BlockSize: 3, EnhanceContrast: true, ClipLimit: 2, TileGrid: 8}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPreprocess_EmitsDebugArtifact(t *testing.T) {
	sink := NewMemorySink()
	debug := DebugConfig{Enabled: true, Sink: sink, Name: "chart"}

	if _, err := Preprocess(solidImage(20, 20, color.White), DefaultPreprocessOptions(), debug); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if _, ok := sink.Get("chart_preprocessed.png"); !ok {
		t.Errorf("missing artifact, have %v", sink.Names())
	}
}

func TestLuminance(t *testing.T) {
	tests := []struct {
		name string
		c    color.RGBA
		want uint8
	}{
		{"white", color.RGBA{255, 255, 255, 255}, 254},
		{"black", color.RGBA{0, 0, 0, 255}, 0},
		{"red", color.RGBA{255, 0, 0, 255}, 76},
		{"green", color.RGBA{0, 255, 0, 255}, 149},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Luminance(solidImage(1, 1, tt.c), 0, 0)
			// float truncation may land one step below the exact product
			if got != tt.want && got != tt.want+1 {
				t.Errorf("Luminance = %d, want %d", got, tt.want)
			}
		})
	}
}
