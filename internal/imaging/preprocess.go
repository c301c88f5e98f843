package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// PreprocessOptions controls the luminance/denoise/binarize chain.
type PreprocessOptions struct {
	// DenoiseRadius is the median filter radius used to suppress screenshot
	// compression noise. 0 disables denoising.
	DenoiseRadius float64 `json:"denoise_radius" yaml:"denoise_radius"`

	// BlockSize is the side of the local neighbourhood used by the adaptive
	// threshold. Must be odd and at least 3.
	BlockSize int `json:"block_size" yaml:"block_size"`

	// Constant is subtracted from the local mean before comparison.
	Constant float64 `json:"constant" yaml:"constant"`

	// EnhanceContrast equalizes lightness tile by tile (CLAHE) before any
	// stage reads the frame. ClipLimit and TileGrid only apply when it is set.
	EnhanceContrast bool    `json:"enhance_contrast" yaml:"enhance_contrast"`
	ClipLimit       float64 `json:"clip_limit" yaml:"clip_limit"`
	TileGrid        int     `json:"tile_grid" yaml:"tile_grid"`
}

// DefaultPreprocessOptions returns the settings tuned for chart screenshots.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		DenoiseRadius: 1,
		BlockSize:     11,
		Constant:      2,
		ClipLimit:     2,
		TileGrid:      8,
	}
}

// Validate checks that the options describe a usable threshold window.
func (o PreprocessOptions) Validate() error {
	if o.BlockSize < 3 || o.BlockSize%2 == 0 {
		return fmt.Errorf("block_size must be odd and >= 3, got %d", o.BlockSize)
	}
	if o.DenoiseRadius < 0 {
		return fmt.Errorf("denoise_radius must be >= 0, got %g", o.DenoiseRadius)
	}
	if o.EnhanceContrast {
		if o.ClipLimit < 1 {
			return fmt.Errorf("clip_limit must be >= 1, got %g", o.ClipLimit)
		}
		if o.TileGrid < 1 {
			return fmt.Errorf("tile_grid must be >= 1, got %d", o.TileGrid)
		}
	}
	return nil
}

// Preprocess converts a color frame into a binary frame that highlights strong
// edges and text against the background.
//
// # Algorithm
//
//  1. Luminance: bild effect.Grayscale
//  2. Denoise: median filter with radius DenoiseRadius
//  3. Adaptive threshold: the local mean is a Gaussian blur with radius
//     (BlockSize-1)/2; a pixel becomes 255 when gray > mean - Constant,
//     otherwise 0
//
// The returned frame has the same bounds as img. When debug emission is
// enabled the binary frame is written as "<name>_preprocessed.png".
//
// # Errors
//
// Returns ErrInvalidImage for a nil or empty frame, or a validation error for
// bad options.
func Preprocess(img image.Image, opts PreprocessOptions, debug DebugConfig) (*image.Gray, error) {
	if err := ValidateFrame(img); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preprocess options: %w", err)
	}

	gray := effect.Grayscale(img)

	var denoised image.Image = gray
	if opts.DenoiseRadius > 0 {
		denoised = effect.Median(gray, opts.DenoiseRadius)
	}

	binary := adaptiveThreshold(denoised, opts.BlockSize, opts.Constant)

	debug.Emit("preprocessed", binary)

	return binary, nil
}

// adaptiveThreshold binarizes src against a Gaussian-weighted local mean.
// src may be any image type; only luminance is read.
func adaptiveThreshold(src image.Image, blockSize int, c float64) *image.Gray {
	bounds := src.Bounds()
	mean := blur.Gaussian(src, float64((blockSize-1)/2))
	mb := mean.Bounds()

	out := image.NewGray(bounds)
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			v := float64(grayAt(src, x+bounds.Min.X, y+bounds.Min.Y))
			m := float64(mean.RGBAAt(x+mb.Min.X, y+mb.Min.Y).R)
			if v > m-c {
				out.SetGray(x+bounds.Min.X, y+bounds.Min.Y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// grayAt returns the 8-bit luminance of a pixel, reading *image.Gray and
// *image.RGBA directly and falling back to BT.601 weights otherwise.
func grayAt(img image.Image, x, y int) uint8 {
	switch im := img.(type) {
	case *image.Gray:
		return im.GrayAt(x, y).Y
	case *image.RGBA:
		c := im.RGBAAt(x, y)
		if c.R == c.G && c.G == c.B {
			return c.R
		}
		return luma(c.R, c.G, c.B)
	}
	r, g, b, _ := img.At(x, y).RGBA()
	return luma(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// Luminance returns the BT.601 luminance of the pixel at (x, y).
// Formula: Y = 0.299*R + 0.587*G + 0.114*B
func Luminance(img image.Image, x, y int) uint8 {
	r, g, b, _ := img.At(x, y).RGBA()
	return luma(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

func luma(r, g, b uint8) uint8 {
	return uint8(float64(r)*0.299 + float64(g)*0.587 + float64(b)*0.114)
}
