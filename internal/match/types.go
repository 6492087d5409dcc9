package match

import (
	"context"
	"time"

	"github.com/jmylchreest/otic/internal/fingerprint"
)

// Candidate is one stored catalog entry. Either Token is set, or Raw holds
// the token's serialised form and is decoded on demand.
type Candidate struct {
	ID       string
	Metadata map[string]any
	Token    *fingerprint.RGBToken
	Raw      []byte
}

// ProductMatch is a catalog entry that scored at or above the threshold.
type ProductMatch struct {
	ProductID       string         `json:"product_id"`
	SimilarityScore float64        `json:"similarity_score"`
	Confidence      float64        `json:"confidence"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Observation records one comparison, matched or not.
type Observation struct {
	TenantID        string
	ProductID       string
	DetectedToken   *fingerprint.RGBToken
	SimilarityScore float64
	IsMatch         bool
	ObservedAt      time.Time
}

// Diagnostics summarises what happened to the candidate set.
type Diagnostics struct {
	Considered   int      `json:"considered"`
	Skipped      int      `json:"skipped"`
	SinkFailures int      `json:"sink_failures"`
	SkippedIDs   []string `json:"skipped_ids,omitempty"`
}

// Result is the outcome of a match run. Matches is never nil.
type Result struct {
	Matches     []ProductMatch `json:"matches"`
	Diagnostics Diagnostics    `json:"diagnostics"`
}

// TokenStore supplies a tenant's catalog tokens.
type TokenStore interface {
	GetAllTokens(ctx context.Context, tenantID string) ([]Candidate, error)
}

// ObservationSink persists comparison observations. It is called from
// several goroutines at once.
type ObservationSink interface {
	Record(ctx context.Context, obs Observation) error
}

// DiscardSink drops every observation.
type DiscardSink struct{}

// Record implements ObservationSink.
func (DiscardSink) Record(context.Context, Observation) error { return nil }
