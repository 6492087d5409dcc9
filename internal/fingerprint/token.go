package fingerprint

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"
)

const (
	// hashHistogramBins is how many leading histogram entries feed the hash.
	hashHistogramBins = 64

	// hashDominantColors is how many dominant colours feed the hash.
	hashDominantColors = 3
)

// TokenData is the plain, serialisable form of an RGBToken.
type TokenData struct {
	Histogram           []float64           `json:"histogram"`
	DominantColors      []DominantColor     `json:"dominant_colors"`
	SpatialDistribution SpatialDistribution `json:"spatial_distribution"`
	ImageFeatures       ImageFeatures       `json:"image_features"`
	TokenHash           string              `json:"token_hash"`
	GeneratedAt         time.Time           `json:"generated_at"`
}

// RGBToken is the immutable colour fingerprint of one image. Accessors
// return copies, so a token cannot be changed after construction.
type RGBToken struct {
	data TokenData
}

// NewToken restores a token from its serialised form. The data is deep
// copied; it is not validated (see TokenData.Validate).
func NewToken(d TokenData) *RGBToken {
	return &RGBToken{data: d.clone()}
}

// Histogram returns a copy of the normalised colour histogram.
func (t *RGBToken) Histogram() []float64 { return slices.Clone(t.data.Histogram) }

// HistogramLen returns the histogram length without copying it.
func (t *RGBToken) HistogramLen() int { return len(t.data.Histogram) }

// DominantColors returns a copy of the dominant colours, largest share first.
func (t *RGBToken) DominantColors() []DominantColor { return slices.Clone(t.data.DominantColors) }

// SpatialDistribution returns a copy of the quadrant profiles.
func (t *RGBToken) SpatialDistribution() SpatialDistribution { return t.data.SpatialDistribution.clone() }

// ImageFeatures returns the scalar image statistics.
func (t *RGBToken) ImageFeatures() ImageFeatures { return t.data.ImageFeatures }

// Hash returns the token's pre-filter digest as 8 hex characters.
func (t *RGBToken) Hash() string { return t.data.TokenHash }

// GeneratedAt returns when the token was built.
func (t *RGBToken) GeneratedAt() time.Time { return t.data.GeneratedAt }

// Data returns a deep copy of the token's serialisable form.
func (t *RGBToken) Data() TokenData { return t.data.clone() }

// IsDegenerate reports whether the histogram carries no signal (all zero),
// as happens for fully transparent or zero-size images.
func (t *RGBToken) IsDegenerate() bool {
	for _, v := range t.data.Histogram {
		if v != 0 {
			return false
		}
	}
	return true
}

func (d TokenData) clone() TokenData {
	return TokenData{
		Histogram:           slices.Clone(d.Histogram),
		DominantColors:      slices.Clone(d.DominantColors),
		SpatialDistribution: d.SpatialDistribution.clone(),
		ImageFeatures:       d.ImageFeatures,
		TokenHash:           d.TokenHash,
		GeneratedAt:         d.GeneratedAt,
	}
}

// Validate checks the structural invariants of a token: a cube-length
// histogram with entries in [0, 1] summing to at most 1, at most five
// dominant colours sorted by share, bounded percentages and features.
func (d TokenData) Validate() error {
	n := len(d.Histogram)
	if n == 0 {
		return fmt.Errorf("histogram is empty")
	}
	if bins := int(math.Round(math.Cbrt(float64(n)))); bins*bins*bins != n {
		return fmt.Errorf("histogram length %d is not a cube", n)
	}

	var sum float64
	for i, v := range d.Histogram {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("histogram[%d] = %v out of range [0, 1]", i, v)
		}
		sum += v
	}
	if sum > 1+1e-6 {
		return fmt.Errorf("histogram sums to %v, want at most 1", sum)
	}

	if len(d.DominantColors) > MaxDominantColors {
		return fmt.Errorf("too many dominant colours: %d (maximum: %d)", len(d.DominantColors), MaxDominantColors)
	}
	for i, c := range d.DominantColors {
		if !(c.Percentage > 0 && c.Percentage <= 1) {
			return fmt.Errorf("dominant colour %d percentage %v out of range (0, 1]", i, c.Percentage)
		}
		if i > 0 && c.Percentage > d.DominantColors[i-1].Percentage {
			return fmt.Errorf("dominant colours are not sorted by percentage")
		}
	}

	for name, q := range d.SpatialDistribution.Quadrants() {
		if q == nil {
			continue
		}
		if math.IsNaN(q.Percentage) || q.Percentage < 0 || q.Percentage > 1 {
			return fmt.Errorf("quadrant %s percentage %v out of range [0, 1]", name, q.Percentage)
		}
	}

	f := d.ImageFeatures
	if math.IsNaN(f.Brightness) || f.Brightness < 0 || f.Brightness > 1 {
		return fmt.Errorf("brightness %v out of range [0, 1]", f.Brightness)
	}
	if math.IsNaN(f.Contrast) || f.Contrast < 0 || f.Contrast > 1 {
		return fmt.Errorf("contrast %v out of range [0, 1]", f.Contrast)
	}
	if math.IsNaN(f.ColorTemperature) || math.IsInf(f.ColorTemperature, 0) {
		return fmt.Errorf("color temperature is not finite")
	}
	if !(f.AspectRatio > 0) || math.IsInf(f.AspectRatio, 0) {
		return fmt.Errorf("aspect ratio %v must be positive and finite", f.AspectRatio)
	}

	return nil
}

// hashInput is the truncated view of a token that feeds TokenHash. Field
// order is fixed by the struct, so the serialisation is stable.
type hashInput struct {
	Histogram      []float64       `json:"histogram"`
	DominantColors []DominantColor `json:"dominantColors"`
	Features       ImageFeatures   `json:"features"`
}

// ComputeHash returns the pre-filter digest over the first 64 histogram
// entries, the top three dominant colours and all features: a
// multiplicative rolling hash (h = h*31 + c) over the JSON serialisation,
// truncated to 32 bits and formatted as unsigned hex.
//
// The hash is a dedup key only; equal hashes do not imply similar images.
func ComputeHash(histogram []float64, dominant []DominantColor, features ImageFeatures) string {
	in := hashInput{
		Histogram:      histogram[:min(len(histogram), hashHistogramBins)],
		DominantColors: dominant[:min(len(dominant), hashDominantColors)],
		Features:       features,
	}
	if in.DominantColors == nil {
		in.DominantColors = []DominantColor{}
	}
	if in.Histogram == nil {
		in.Histogram = []float64{}
	}

	// Marshalling plain floats and ints cannot fail.
	payload, _ := json.Marshal(in)

	var h uint32
	for _, c := range payload {
		h = h*31 + uint32(c)
	}
	return fmt.Sprintf("%08x", h)
}
