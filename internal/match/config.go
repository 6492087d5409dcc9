// Package match ranks stored catalog tokens against a freshly detected one.
package match

import (
	"errors"
	"fmt"
	"runtime"
)

// DefaultThreshold is the minimum similarity for a candidate to match.
const DefaultThreshold = 0.85

// ErrInvalidConfig is returned for unusable match configuration.
var ErrInvalidConfig = errors.New("invalid match configuration")

// Config holds match service settings.
type Config struct {
	// Threshold is the inclusive minimum similarity for a match.
	Threshold float64

	// Workers bounds the number of concurrent comparisons.
	Workers int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Threshold: DefaultThreshold,
		Workers:   runtime.GOMAXPROCS(0),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !(c.Threshold >= 0 && c.Threshold <= 1) {
		return fmt.Errorf("%w: threshold must be in [0, 1], got %v", ErrInvalidConfig, c.Threshold)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}
