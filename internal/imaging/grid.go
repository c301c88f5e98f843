package imaging

import (
	"fmt"
	"image/color"
	"strconv"
)

// HLine draws a horizontal line at y between x1 and x2 inclusive.
func (o *Overlay) HLine(y, x1, x2 int, c color.Color) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	for x := x1; x <= x2; x++ {
		o.set(x, y, c)
	}
}

// Grid draws lines every spacing pixels, counted from the canvas origin.
// With labels set, each intersection is annotated with its "x,y" coordinate
// so positions can be read off a debug image.
func (o *Overlay) Grid(spacing int, c color.Color, labels bool) {
	if spacing <= 0 {
		return
	}
	b := o.img.Bounds()

	for x := b.Min.X + spacing; x < b.Max.X; x += spacing {
		o.VLine(x, b.Min.Y, b.Max.Y-1, c)
	}
	for y := b.Min.Y + spacing; y < b.Max.Y; y += spacing {
		o.HLine(y, b.Min.X, b.Max.X-1, c)
	}

	if !labels {
		return
	}
	for y := b.Min.Y + spacing; y < b.Max.Y; y += spacing {
		for x := b.Min.X + spacing; x < b.Max.X; x += spacing {
			// basicfont places the baseline at y; 13px puts the text below the line
			o.Label(x+2, y+13, fmt.Sprintf("%d,%d", x, y), c)
		}
	}
}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA"; the leading '#' is optional.
func ParseHexColor(hex string) (color.RGBA, error) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
		}
		return color.RGBA{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 255}, nil
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
		}
		return color.RGBA{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: want 6 or 8 hex digits", hex)
	}
}
