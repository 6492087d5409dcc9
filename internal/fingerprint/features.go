package fingerprint

import (
	"math"

	"github.com/jmylchreest/otic/internal/colour"
)

// NeutralColorTemperature is reported when there are no samples, and is the
// base of the colour temperature approximation.
const NeutralColorTemperature = 6500.0

// ImageFeatures are scalar statistics of the sampled pixels.
type ImageFeatures struct {
	// Brightness is mean luma normalised to [0, 1].
	Brightness float64 `json:"brightness"`

	// Contrast is the luma range normalised to [0, 1].
	Contrast float64 `json:"contrast"`

	// ColorTemperature is a linear Kelvin-like proxy,
	// 6500 + 100*(mean_r - mean_b). It is not colorimetrically calibrated.
	ColorTemperature float64 `json:"color_temperature"`

	// AspectRatio is source width / height.
	AspectRatio float64 `json:"aspect_ratio"`
}

// aspectRatio returns width/height, or 1 when either dimension is not
// positive so the ratio is always > 0.
func aspectRatio(width, height int) float64 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float64(width) / float64(height)
}

// SummarizeFeatures computes brightness, contrast, colour temperature and
// aspect ratio. With no samples it returns brightness 0, contrast 0 and a
// neutral 6500 temperature; the aspect ratio never depends on sampling.
func SummarizeFeatures(pixels []Pixel, width, height int) ImageFeatures {
	features := ImageFeatures{
		ColorTemperature: NeutralColorTemperature,
		AspectRatio:      aspectRatio(width, height),
	}
	if len(pixels) == 0 {
		return features
	}

	var lumaSum, sumR, sumB float64
	minLuma, maxLuma := math.Inf(1), math.Inf(-1)
	for _, p := range pixels {
		luma := colour.Luma(p.RGB())
		lumaSum += luma
		minLuma = math.Min(minLuma, luma)
		maxLuma = math.Max(maxLuma, luma)
		sumR += float64(p.R)
		sumB += float64(p.B)
	}

	n := float64(len(pixels))
	features.Brightness = colour.Clamp01(lumaSum / n / 255)
	features.Contrast = colour.Clamp01((maxLuma - minLuma) / 255)
	features.ColorTemperature = NeutralColorTemperature + 100*(sumR/n-sumB/n)

	return features
}
