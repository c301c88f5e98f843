package axis

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PriceAnchor ties a pixel row to a price read from the axis.
type PriceAnchor struct {
	Row        int     `json:"row"`
	Price      float64 `json:"price"`
	Confidence float64 `json:"confidence"`
}

// DateAnchor ties a pixel column to a date label read from the axis.
type DateAnchor struct {
	Column int    `json:"column"`
	Label  string `json:"label"`
}

// Calibration is the price scale and labels recovered from a frame. Rows and
// columns are frame coordinates.
//
// PriceAnchors have unique rows sorted ascending, and price strictly
// decreases as the row increases (top of the image is the highest price).
type Calibration struct {
	PriceAnchors []PriceAnchor `json:"price_anchors"`
	PriceMin     float64       `json:"price_min"`
	PriceMax     float64       `json:"price_max"`
	Symbol       string        `json:"symbol,omitempty"`
	DateAnchors  []DateAnchor  `json:"date_anchors"`

	// Linearity is the R² of a least-squares row-to-price fit. It is 0 with
	// fewer than three anchors and is reported for diagnostics only.
	Linearity float64 `json:"linearity"`

	Warnings []string `json:"warnings,omitempty"`
}

// MinAnchors is the number of price anchors needed for a trustworthy scale.
const MinAnchors = 2

// Degraded reports whether the price scale must fall back to a synthetic range.
func (c Calibration) Degraded() bool {
	return len(c.PriceAnchors) < MinAnchors
}

// Extremes returns the topmost and bottommost anchors. ok is false when the
// calibration is degraded.
func (c Calibration) Extremes() (top, bottom PriceAnchor, ok bool) {
	if c.Degraded() {
		return PriceAnchor{}, PriceAnchor{}, false
	}
	return c.PriceAnchors[0], c.PriceAnchors[len(c.PriceAnchors)-1], true
}

// NewCalibration builds a calibration from raw anchors, enforcing the anchor
// invariants:
//
//  1. Anchors sharing a row keep the highest-confidence value.
//  2. Anchors are sorted by row.
//  3. The longest run (not necessarily contiguous) whose price strictly
//     decreases with row is kept; stray numbers that break monotonicity are
//     dropped. Among equally long runs the one with the higher total
//     confidence wins, then the one ending on the earlier row.
//
// PriceMin/PriceMax are computed from the surviving anchors and Linearity is
// filled in when at least three remain.
func NewCalibration(prices []PriceAnchor, dates []DateAnchor) Calibration {
	kept := monotonic(dedupeRows(prices))

	c := Calibration{
		PriceAnchors: kept,
		DateAnchors:  sortDates(dates),
	}
	if len(kept) == 0 {
		return c
	}

	rows := make([]float64, len(kept))
	values := make([]float64, len(kept))
	for i, a := range kept {
		rows[i] = float64(a.Row)
		values[i] = a.Price
	}
	c.PriceMin = floats.Min(values)
	c.PriceMax = floats.Max(values)

	if len(kept) >= 3 {
		alpha, beta := stat.LinearRegression(rows, values, nil, false)
		c.Linearity = stat.RSquared(rows, values, nil, alpha, beta)
	}
	return c
}

func dedupeRows(in []PriceAnchor) []PriceAnchor {
	best := make(map[int]PriceAnchor, len(in))
	for _, a := range in {
		cur, ok := best[a.Row]
		if !ok || a.Confidence > cur.Confidence {
			best[a.Row] = a
		}
	}
	out := make([]PriceAnchor, 0, len(best))
	for _, a := range best {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Row < out[j].Row })
	return out
}

// monotonic returns the longest subsequence of row-sorted anchors with
// strictly decreasing price.
func monotonic(in []PriceAnchor) []PriceAnchor {
	n := len(in)
	if n < 2 {
		return in
	}

	length := make([]int, n)
	weight := make([]float64, n)
	prev := make([]int, n)
	end := 0
	for i := 0; i < n; i++ {
		length[i], weight[i], prev[i] = 1, in[i].Confidence, -1
		for j := 0; j < i; j++ {
			if in[j].Price <= in[i].Price {
				continue
			}
			l, w := length[j]+1, weight[j]+in[i].Confidence
			if l > length[i] || (l == length[i] && w > weight[i]) {
				length[i], weight[i], prev[i] = l, w, j
			}
		}
		if length[i] > length[end] || (length[i] == length[end] && weight[i] > weight[end]) {
			end = i
		}
	}

	out := make([]PriceAnchor, length[end])
	for i, k := end, length[end]-1; i >= 0; i, k = prev[i], k-1 {
		out[k] = in[i]
	}
	return out
}

func sortDates(in []DateAnchor) []DateAnchor {
	out := make([]DateAnchor, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Column < out[j].Column })
	return out
}
