package match

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/otic/internal/codec"
	"github.com/jmylchreest/otic/internal/fingerprint"
	"github.com/jmylchreest/otic/internal/similarity"
)

// ErrNoStore is returned by MatchTenant when the service has no TokenStore.
var ErrNoStore = errors.New("no token store configured")

// Service compares a detected token against catalog candidates. It holds
// no per-call state and is safe for concurrent use.
type Service struct {
	engine *similarity.Engine
	cfg    Config
	logger hclog.Logger
	sink   ObservationSink
	store  TokenStore
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for skipped candidates and sink failures.
func WithLogger(logger hclog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSink sets the observation sink.
func WithSink(sink ObservationSink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithStore sets the token store used by MatchTenant.
func WithStore(store TokenStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithClock overrides the clock used to stamp observations.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a match service.
func NewService(engine *similarity.Engine, cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create match service: %w", err)
	}
	if engine == nil {
		engine = similarity.Default()
	}

	s := &Service{
		engine: engine,
		cfg:    cfg,
		logger: hclog.NewNullLogger(),
		sink:   DiscardSink{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the service configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// MatchTenant loads the tenant's catalog from the store and ranks it.
// Only store errors and context cancellation are returned.
func (s *Service) MatchTenant(ctx context.Context, tenantID string, detected *fingerprint.RGBToken) (Result, error) {
	if s.store == nil {
		return Result{}, ErrNoStore
	}

	candidates, err := s.store.GetAllTokens(ctx, tenantID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load catalog tokens for tenant %q: %w", tenantID, err)
	}

	return s.findMatches(ctx, tenantID, detected, candidates)
}

// FindMatches scores every candidate against detected and returns those at
// or above the threshold, best first. Candidates with equal scores keep
// their input order.
//
// A candidate whose token cannot be decoded, or whose histogram length
// differs from detected's, is skipped and reported in Diagnostics. Sink
// failures are logged and counted but never returned.
func (s *Service) FindMatches(ctx context.Context, detected *fingerprint.RGBToken, candidates []Candidate) (Result, error) {
	return s.findMatches(ctx, "", detected, candidates)
}

type slot struct {
	score   float64
	skipped bool
}

func (s *Service) findMatches(ctx context.Context, tenantID string, detected *fingerprint.RGBToken, candidates []Candidate) (Result, error) {
	if detected == nil {
		return Result{}, fmt.Errorf("detected token is nil")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	result := Result{Matches: []ProductMatch{}}
	if len(candidates) == 0 {
		return result, nil
	}

	slots := make([]slot, len(candidates))
	var sinkFailures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for i := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			c := candidates[i]
			tok, err := s.resolve(c, detected.HistogramLen())
			if err != nil {
				s.logger.Warn("skipping candidate", "product_id", c.ID, "error", err)
				slots[i].skipped = true
				return nil
			}

			score := s.engine.Similarity(detected, tok)
			slots[i].score = score

			obs := Observation{
				TenantID:        tenantID,
				ProductID:       c.ID,
				DetectedToken:   detected,
				SimilarityScore: score,
				IsMatch:         score >= s.cfg.Threshold,
				ObservedAt:      s.now(),
			}
			if err := s.sink.Record(gctx, obs); err != nil {
				sinkFailures.Add(1)
				s.logger.Warn("failed to record similarity observation", "product_id", c.ID, "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	for i, sl := range slots {
		c := candidates[i]
		if sl.skipped {
			result.Diagnostics.Skipped++
			result.Diagnostics.SkippedIDs = append(result.Diagnostics.SkippedIDs, c.ID)
			continue
		}

		result.Diagnostics.Considered++
		if sl.score >= s.cfg.Threshold {
			result.Matches = append(result.Matches, ProductMatch{
				ProductID:       c.ID,
				SimilarityScore: sl.score,
				Confidence:      sl.score,
				Metadata:        c.Metadata,
			})
		}
	}
	result.Diagnostics.SinkFailures = int(sinkFailures.Load())

	sort.SliceStable(result.Matches, func(a, b int) bool {
		return result.Matches[a].SimilarityScore > result.Matches[b].SimilarityScore
	})

	s.logger.Debug("match complete",
		"tenant_id", tenantID,
		"considered", result.Diagnostics.Considered,
		"skipped", result.Diagnostics.Skipped,
		"matches", len(result.Matches),
	)

	return result, nil
}

// resolve returns the candidate's token, decoding Raw when needed.
func (s *Service) resolve(c Candidate, histogramLen int) (*fingerprint.RGBToken, error) {
	tok := c.Token
	if tok == nil {
		var err error
		tok, err = codec.Decode(c.Raw)
		if err != nil {
			return nil, err
		}
	}

	if tok.HistogramLen() != histogramLen {
		return nil, fmt.Errorf("%w: histogram length %d, want %d", codec.ErrCorruptToken, tok.HistogramLen(), histogramLen)
	}
	return tok, nil
}
