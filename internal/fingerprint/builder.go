package fingerprint

import (
	"fmt"
	"image"
	"time"
)

// Builder generates RGBTokens with a fixed configuration. A Builder is safe
// for concurrent use; it holds no mutable state.
type Builder struct {
	cfg Config
	now func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock overrides the clock used to stamp GeneratedAt.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a Builder. It fails fast on invalid configuration so
// no image is processed with, for example, a non-positive bin count.
func NewBuilder(cfg Config, opts ...BuilderOption) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create token builder: %w", err)
	}

	b := &Builder{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Config returns the builder's configuration.
func (b *Builder) Config() Config {
	return b.cfg
}

// Build derives the token for a raw image. It never fails: a zero-size or
// fully transparent image yields a token with an all-zero histogram.
func (b *Builder) Build(img RawImage) *RGBToken {
	pixels := SamplePixels(img, b.cfg)
	return b.compose(pixels, img.Width, img.Height)
}

// BuildImage derives the token for a decoded image.
func (b *Builder) BuildImage(img image.Image) *RGBToken {
	return b.Build(FromImage(img))
}

func (b *Builder) compose(pixels []Pixel, width, height int) *RGBToken {
	histogram := BuildHistogram(pixels, b.cfg.Bins)
	dominant := ExtractDominantColors(pixels)
	spatial := ProfileQuadrants(pixels, width, height)
	features := SummarizeFeatures(pixels, width, height)

	return &RGBToken{data: TokenData{
		Histogram:           histogram,
		DominantColors:      dominant,
		SpatialDistribution: spatial,
		ImageFeatures:       features,
		TokenHash:           ComputeHash(histogram, dominant, features),
		GeneratedAt:         b.now(),
	}}
}
