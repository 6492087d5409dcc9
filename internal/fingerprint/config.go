// Package fingerprint derives an RGBToken, a compact colour and layout
// fingerprint, from a raw image buffer.
//
// The pipeline is: SamplePixels, then BuildHistogram, ExtractDominantColors,
// ProfileQuadrants and SummarizeFeatures over the same sample set, composed
// into an immutable RGBToken by a Builder. Every stage is pure and total:
// degenerate input (zero-size or fully transparent images) produces a
// well-defined default token rather than an error.
package fingerprint

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	// DefaultBins is the number of buckets per channel in the colour histogram.
	DefaultBins = 8

	// MaxBins bounds the histogram to 64^3 entries.
	MaxBins = 64

	// DefaultMaxSamples caps the number of pixels sampled from an image.
	DefaultMaxSamples = 2000

	// DefaultAlphaThreshold keeps pixels that are more than 50% opaque.
	DefaultAlphaThreshold = 127
)

// Config holds configuration for token generation.
type Config struct {
	// Bins is the number of equal-width buckets per colour channel.
	Bins int

	// MaxSamples is the sample budget; larger images are strided.
	MaxSamples int

	// AlphaThreshold is the exclusive lower bound on alpha for a pixel to be
	// sampled (a pixel is kept when alpha > AlphaThreshold).
	AlphaThreshold int
}

// DefaultConfig returns the default token generation configuration.
func DefaultConfig() Config {
	return Config{
		Bins:           DefaultBins,
		MaxSamples:     DefaultMaxSamples,
		AlphaThreshold: DefaultAlphaThreshold,
	}
}

// HistogramLen returns the histogram length for this configuration, Bins^3.
func (c Config) HistogramLen() int {
	return c.Bins * c.Bins * c.Bins
}

// Validate validates the token generation configuration.
func (c Config) Validate() error {
	if c.Bins < 1 {
		return fmt.Errorf("%w: bins must be at least 1, got %d", ErrInvalidConfig, c.Bins)
	}
	if c.Bins > MaxBins {
		return fmt.Errorf("%w: bins too large: %d (maximum: %d)", ErrInvalidConfig, c.Bins, MaxBins)
	}
	if c.MaxSamples < 1 {
		return fmt.Errorf("%w: max samples must be at least 1, got %d", ErrInvalidConfig, c.MaxSamples)
	}
	if c.AlphaThreshold < 0 || c.AlphaThreshold > 255 {
		return fmt.Errorf("%w: alpha threshold must be between 0 and 255, got %d", ErrInvalidConfig, c.AlphaThreshold)
	}
	return nil
}
