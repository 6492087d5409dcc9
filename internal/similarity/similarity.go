// Package similarity scores how alike two RGBTokens are.
//
// The score is a weighted blend of three sub-scores: cosine similarity of
// the colour histograms, best-match similarity of the dominant colours, and
// mean similarity of the shared quadrant profiles. A sub-score that cannot
// be computed (for example, an all-zero histogram) is left out of both the
// numerator and the denominator, so the blend stays on [0, 1].
package similarity

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/jmylchreest/otic/internal/colour"
	"github.com/jmylchreest/otic/internal/fingerprint"
)

// ErrInvalidWeights is returned by NewEngine for unusable weights.
var ErrInvalidWeights = errors.New("invalid similarity weights")

// Weights are the relative contributions of the sub-scores.
type Weights struct {
	Histogram float64
	Dominant  float64
	Spatial   float64
}

// DefaultWeights returns the 0.5 / 0.3 / 0.2 blend.
func DefaultWeights() Weights {
	return Weights{
		Histogram: 0.5,
		Dominant:  0.3,
		Spatial:   0.2,
	}
}

// Validate checks that all weights are non-negative with a positive sum.
func (w Weights) Validate() error {
	if w.Histogram < 0 || w.Dominant < 0 || w.Spatial < 0 {
		return fmt.Errorf("%w: weights must be non-negative, got %+v", ErrInvalidWeights, w)
	}
	if w.Histogram+w.Dominant+w.Spatial <= 0 {
		return fmt.Errorf("%w: weights must sum to a positive value", ErrInvalidWeights)
	}
	return nil
}

// SubScore is one component of a comparison. Computed is false when the
// inputs carried no signal for this component.
type SubScore struct {
	Value    float64 `json:"value"`
	Computed bool    `json:"computed"`
}

// Scores is the full breakdown of a comparison.
type Scores struct {
	Histogram SubScore `json:"histogram"`
	Dominant  SubScore `json:"dominant"`
	Spatial   SubScore `json:"spatial"`
	Total     float64  `json:"total"`
}

// Engine computes weighted token similarity. It is stateless and safe for
// concurrent use.
type Engine struct {
	weights Weights
}

// NewEngine creates an Engine with the given weights.
func NewEngine(w Weights) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Engine{weights: w}, nil
}

// Default returns an Engine with DefaultWeights.
func Default() *Engine {
	return &Engine{weights: DefaultWeights()}
}

// Weights returns the engine's weights.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Similarity returns the weighted similarity of a to b on [0, 1].
//
// The dominant-colour component is asymmetric: a's colours drive the search
// into b's. Pass the detected token as a and the stored token as b.
func (e *Engine) Similarity(a, b *fingerprint.RGBToken) float64 {
	return e.Breakdown(a, b).Total
}

// Breakdown returns every sub-score alongside the weighted total.
func (e *Engine) Breakdown(a, b *fingerprint.RGBToken) Scores {
	if a == nil || b == nil {
		return Scores{}
	}

	var s Scores
	s.Histogram.Value, s.Histogram.Computed = HistogramCosine(a.Histogram(), b.Histogram())
	s.Dominant.Value, s.Dominant.Computed = DominantColorSimilarity(a.DominantColors(), b.DominantColors())
	s.Spatial.Value, s.Spatial.Computed = SpatialSimilarity(a.SpatialDistribution(), b.SpatialDistribution())

	var weighted, total float64
	for _, part := range []struct {
		score  SubScore
		weight float64
	}{
		{s.Histogram, e.weights.Histogram},
		{s.Dominant, e.weights.Dominant},
		{s.Spatial, e.weights.Spatial},
	} {
		if !part.score.Computed {
			continue
		}
		weighted += part.weight * part.score.Value
		total += part.weight
	}

	if total > 0 {
		s.Total = colour.Clamp01(weighted / total)
	}
	return s
}

// HistogramCosine returns dot(a, b) / (|a| |b|). It reports false when the
// histograms differ in length or either has zero norm.
func HistogramCosine(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0, false
	}

	return colour.Clamp01(floats.Dot(a, b) / (normA * normB)), true
}

// DominantColorSimilarity finds, for every colour in a, its closest colour
// in b, converts that distance to a similarity and averages the results
// weighted by the a-colour's percentage. An empty b scores 0; an empty a,
// or one whose percentages sum to 0, is not computable.
//
// This is deliberately asymmetric: a colour present only in b costs
// nothing, while a colour present only in a lowers the score.
func DominantColorSimilarity(a, b []fingerprint.DominantColor) (float64, bool) {
	var weighted, weightSum float64
	for _, ca := range a {
		best := 0.0
		for _, cb := range b {
			best = max(best, colour.Similarity(ca.RGB(), cb.RGB()))
		}
		weighted += best * ca.Percentage
		weightSum += ca.Percentage
	}

	if weightSum <= 0 {
		return 0, false
	}
	return colour.Clamp01(weighted / weightSum), true
}

// SpatialSimilarity averages the colour similarity of the quadrants present
// in both distributions. Quadrants missing from either side are skipped;
// with no shared quadrant the score is not computable.
func SpatialSimilarity(a, b fingerprint.SpatialDistribution) (float64, bool) {
	var total float64
	var shared int
	for name, qa := range a.Quadrants() {
		qb := b.Get(name)
		if qa == nil || qb == nil {
			continue
		}
		total += colour.Similarity(qa.RGB(), qb.RGB())
		shared++
	}

	if shared == 0 {
		return 0, false
	}
	return colour.Clamp01(total / float64(shared)), true
}
