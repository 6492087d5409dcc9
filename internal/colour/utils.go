// Package colour provides utility functions for color manipulation and analysis.
package colour

import (
	"math"
)

// MaxRGBDistance is the Euclidean distance between black and white in RGB
// space, sqrt(3 * 255^2) ~= 441.67.
var MaxRGBDistance = math.Sqrt(3 * 255 * 255)

// Luma returns the Rec. 601 luma of a colour on the 0-255 scale:
// 0.299r + 0.587g + 0.114b.
func Luma(c RGB) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// Distance calculates the Euclidean distance between two colours in RGB space.
func Distance(a, b RGB) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// DistanceSimilarity maps an RGB distance onto [0, 1], where 0 distance is 1
// and MaxRGBDistance (or anything beyond it) is 0.
func DistanceSimilarity(distance float64) float64 {
	return math.Max(0, 1-distance/MaxRGBDistance)
}

// Similarity is DistanceSimilarity(Distance(a, b)).
func Similarity(a, b RGB) float64 {
	return DistanceSimilarity(Distance(a, b))
}

// Clamp01 clamps v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RoundChannel rounds a float channel mean to the nearest uint8, saturating
// at the ends of the range.
func RoundChannel(v float64) uint8 {
	r := math.Round(v)
	if r <= 0 {
		return 0
	}
	if r >= 255 {
		return 255
	}
	return uint8(r)
}
