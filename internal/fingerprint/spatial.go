package fingerprint

import (
	"github.com/jmylchreest/otic/internal/colour"
)

// Quadrant names, in the order Quadrants yields them.
const (
	QuadrantTopLeft     = "top_left"
	QuadrantTopRight    = "top_right"
	QuadrantBottomLeft  = "bottom_left"
	QuadrantBottomRight = "bottom_right"
)

// QuadrantStats is the mean colour of one quadrant and the quadrant's share
// of the total sample count.
type QuadrantStats struct {
	R          uint8   `json:"r"`
	G          uint8   `json:"g"`
	B          uint8   `json:"b"`
	Percentage float64 `json:"percentage"`
}

// RGB returns the quadrant's mean colour.
func (q QuadrantStats) RGB() colour.RGB {
	return colour.RGB{R: q.R, G: q.G, B: q.B}
}

// SpatialDistribution holds the four quadrant profiles. A nil quadrant had
// no samples and contributes nothing to comparisons.
type SpatialDistribution struct {
	TopLeft     *QuadrantStats `json:"top_left,omitempty"`
	TopRight    *QuadrantStats `json:"top_right,omitempty"`
	BottomLeft  *QuadrantStats `json:"bottom_left,omitempty"`
	BottomRight *QuadrantStats `json:"bottom_right,omitempty"`
}

// Quadrants iterates over the quadrants in a fixed order, including absent
// (nil) ones.
func (s SpatialDistribution) Quadrants() func(func(string, *QuadrantStats) bool) {
	return func(yield func(string, *QuadrantStats) bool) {
		if !yield(QuadrantTopLeft, s.TopLeft) {
			return
		}
		if !yield(QuadrantTopRight, s.TopRight) {
			return
		}
		if !yield(QuadrantBottomLeft, s.BottomLeft) {
			return
		}
		yield(QuadrantBottomRight, s.BottomRight)
	}
}

// Get returns the named quadrant, or nil if it is absent or unknown.
func (s SpatialDistribution) Get(name string) *QuadrantStats {
	switch name {
	case QuadrantTopLeft:
		return s.TopLeft
	case QuadrantTopRight:
		return s.TopRight
	case QuadrantBottomLeft:
		return s.BottomLeft
	case QuadrantBottomRight:
		return s.BottomRight
	default:
		return nil
	}
}

// clone returns a deep copy.
func (s SpatialDistribution) clone() SpatialDistribution {
	cp := func(q *QuadrantStats) *QuadrantStats {
		if q == nil {
			return nil
		}
		c := *q
		return &c
	}
	return SpatialDistribution{
		TopLeft:     cp(s.TopLeft),
		TopRight:    cp(s.TopRight),
		BottomLeft:  cp(s.BottomLeft),
		BottomRight: cp(s.BottomRight),
	}
}

type quadrantAccumulator struct {
	r, g, b uint64
	count   int
}

func (a *quadrantAccumulator) add(p Pixel) {
	a.r += uint64(p.R)
	a.g += uint64(p.G)
	a.b += uint64(p.B)
	a.count++
}

func (a *quadrantAccumulator) stats(total int) *QuadrantStats {
	if a.count == 0 {
		return nil
	}
	n := float64(a.count)
	return &QuadrantStats{
		R:          colour.RoundChannel(float64(a.r) / n),
		G:          colour.RoundChannel(float64(a.g) / n),
		B:          colour.RoundChannel(float64(a.b) / n),
		Percentage: n / float64(total),
	}
}

// ProfileQuadrants splits the width x height bounding box at width/2 and
// height/2 and profiles the samples falling in each quadrant. Percentages
// are relative to the total sample count, so they sum to 1 over the
// present quadrants.
func ProfileQuadrants(pixels []Pixel, width, height int) SpatialDistribution {
	if len(pixels) == 0 {
		return SpatialDistribution{}
	}

	var topLeft, topRight, bottomLeft, bottomRight quadrantAccumulator
	for _, p := range pixels {
		// x < width/2 without truncating odd widths.
		left := 2*int64(p.X) < int64(width)
		top := 2*int64(p.Y) < int64(height)

		switch {
		case top && left:
			topLeft.add(p)
		case top:
			topRight.add(p)
		case left:
			bottomLeft.add(p)
		default:
			bottomRight.add(p)
		}
	}

	total := len(pixels)
	return SpatialDistribution{
		TopLeft:     topLeft.stats(total),
		TopRight:    topRight.stats(total),
		BottomLeft:  bottomLeft.stats(total),
		BottomRight: bottomRight.stats(total),
	}
}
