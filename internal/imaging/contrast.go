package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// EnhanceContrast applies contrast-limited adaptive histogram equalization
// (CLAHE) to the CIE L*a*b* lightness of img when opts.EnhanceContrast is
// set; otherwise img is returned as is. Chroma (a*, b*) is kept, so candle
// hues survive for color segmentation.
//
// # Algorithm
//
//  1. Lightness: every pixel's L* quantized to 256 levels
//  2. Tiles: the frame is split into a TileGrid x TileGrid grid; each tile
//     gets a histogram clipped at ClipLimit times the mean bin count, with
//     the clipped excess spread evenly over all bins
//  3. Mapping: each tile's clipped CDF becomes a lightness lookup table
//  4. Blend: a pixel's new lightness is the bilinear blend of the four
//     nearest tile tables, which hides tile seams
//
// When debug emission is enabled the result is written as
// "<name>_enhanced.png".
func EnhanceContrast(img image.Image, opts PreprocessOptions, debug DebugConfig) (image.Image, error) {
	if !opts.EnhanceContrast {
		return img, nil
	}
	if err := ValidateFrame(img); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preprocess options: %w", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	labs := make([]lab, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(x+b.Min.X, y+b.Min.Y)
			_, _, _, a := c.RGBA()
			p := lab{alpha: uint8(a >> 8)}
			if cf, ok := colorful.MakeColor(c); ok {
				p.l, p.a, p.b = cf.Lab()
				p.level = lightnessLevel(p.l)
				p.ok = true
			}
			labs[y*w+x] = p
		}
	}

	grid := newTileGrid(w, h, opts.TileGrid)
	luts := grid.lookupTables(labs, w, opts.ClipLimit)

	out := image.NewRGBA(b)
	for y := 0; y < h; y++ {
		ty0, ty1, fy := grid.axis(y, grid.th, grid.rows)
		for x := 0; x < w; x++ {
			p := labs[y*w+x]
			if !p.ok {
				out.Set(x+b.Min.X, y+b.Min.Y, img.At(x+b.Min.X, y+b.Min.Y))
				continue
			}
			tx0, tx1, fx := grid.axis(x, grid.tw, grid.cols)

			top := (1-fx)*luts[ty0*grid.cols+tx0][p.level] + fx*luts[ty0*grid.cols+tx1][p.level]
			bot := (1-fx)*luts[ty1*grid.cols+tx0][p.level] + fx*luts[ty1*grid.cols+tx1][p.level]
			l := ((1-fy)*top + fy*bot) / 255

			r, g, bl := colorful.Lab(l, p.a, p.b).Clamped().RGB255()
			out.SetRGBA(x+b.Min.X, y+b.Min.Y, color.RGBA{R: r, G: g, B: bl, A: p.alpha})
		}
	}

	debug.Emit("enhanced", out)
	return out, nil
}

type lab struct {
	l, a, b float64
	level   int
	alpha   uint8
	ok      bool
}

func lightnessLevel(l float64) int {
	v := int(math.Round(l * 255))
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// tileGrid splits a w x h frame into cols x rows tiles of tw x th pixels.
// Edge tiles may be smaller.
type tileGrid struct {
	cols, rows int
	tw, th     int
}

func newTileGrid(w, h, n int) tileGrid {
	tw := int(math.Ceil(float64(w) / float64(min(n, w))))
	th := int(math.Ceil(float64(h) / float64(min(n, h))))
	return tileGrid{
		cols: (w + tw - 1) / tw,
		rows: (h + th - 1) / th,
		tw:   tw,
		th:   th,
	}
}

// axis returns the two tiles whose centers surround pixel position v and
// the blend weight of the second.
func (g tileGrid) axis(v, size, count int) (t0, t1 int, f float64) {
	pos := (float64(v)+0.5)/float64(size) - 0.5
	t0 = int(math.Floor(pos))
	f = pos - float64(t0)
	if t0 < 0 {
		return 0, 0, 0
	}
	if t0 >= count-1 {
		return count - 1, count - 1, 0
	}
	return t0, t0 + 1, f
}

func (g tileGrid) lookupTables(labs []lab, w int, clipLimit float64) [][256]float64 {
	h := len(labs) / w
	luts := make([][256]float64, g.cols*g.rows)

	for ty := 0; ty < g.rows; ty++ {
		for tx := 0; tx < g.cols; tx++ {
			var hist [256]int
			n := 0
			for y := ty * g.th; y < min((ty+1)*g.th, h); y++ {
				for x := tx * g.tw; x < min((tx+1)*g.tw, w); x++ {
					if p := labs[y*w+x]; p.ok {
						hist[p.level]++
						n++
					}
				}
			}
			luts[ty*g.cols+tx] = equalize(hist, n, clipLimit)
		}
	}
	return luts
}

// equalize turns a clipped histogram of n pixels into a lookup table.
func equalize(hist [256]int, n int, clipLimit float64) [256]float64 {
	var lut [256]float64
	if n == 0 {
		for i := range lut {
			lut[i] = float64(i)
		}
		return lut
	}

	clip := int(clipLimit * float64(n) / 256)
	if clip < 1 {
		clip = 1
	}
	excess := 0
	for i, c := range hist {
		if c > clip {
			excess += c - clip
			hist[i] = clip
		}
	}
	per, rest := excess/256, excess%256
	for i := range hist {
		hist[i] += per
		if i < rest {
			hist[i]++
		}
	}

	cdf := 0
	for i, c := range hist {
		cdf += c
		lut[i] = float64(cdf) * 255 / float64(n)
	}
	return lut
}
