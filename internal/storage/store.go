// Package storage persists catalog tokens and similarity observations in
// SQLite. SQLiteStore implements match.TokenStore and match.ObservationSink.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	_ "modernc.org/sqlite"

	"github.com/jmylchreest/otic/internal/codec"
	"github.com/jmylchreest/otic/internal/fingerprint"
	"github.com/jmylchreest/otic/internal/match"
)

var (
	_ match.TokenStore      = (*SQLiteStore)(nil)
	_ match.ObservationSink = (*SQLiteStore)(nil)
)

// Options configures a SQLiteStore.
type Options struct {
	// CompressTokens stores tokens xz-compressed.
	CompressTokens bool

	// Logger receives schema and write diagnostics. Nil disables logging.
	Logger hclog.Logger
}

// ObservationRecord is a stored similarity observation.
type ObservationRecord struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id,omitempty"`
	ProductID       string    `json:"product_id"`
	TokenHash       string    `json:"token_hash"`
	SimilarityScore float64   `json:"similarity_score"`
	IsMatch         bool      `json:"is_match"`
	ObservedAt      time.Time `json:"observed_at"`
}

// SQLiteStore implements the catalog token store and observation sink.
type SQLiteStore struct {
	db     *sql.DB
	opts   Options
	logger hclog.Logger
	mu     sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string, opts Options) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("database path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	store := &SQLiteStore{
		db:     db,
		opts:   opts,
		logger: logger.Named("storage"),
	}

	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	// Only takes effect once the file exists, which init guarantees.
	if err := os.Chmod(dbPath, 0o600); err != nil && !os.IsNotExist(err) {
		store.logger.Warn("failed to restrict database permissions", "path", dbPath, "error", err)
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS product_tokens (
		tenant_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		token BLOB NOT NULL,
		token_hash TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (tenant_id, product_id)
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create product_tokens table: %w", err)
	}

	_, err = s.db.Exec(`
	CREATE TABLE IF NOT EXISTS similarity_observations (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL DEFAULT '',
		product_id TEXT NOT NULL,
		token_hash TEXT NOT NULL,
		detected_token BLOB NOT NULL,
		similarity_score REAL NOT NULL,
		is_match INTEGER NOT NULL,
		observed_at INTEGER NOT NULL
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create similarity_observations table: %w", err)
	}

	_, err = s.db.Exec(`
	CREATE INDEX IF NOT EXISTS idx_similarity_observations_observed_at
		ON similarity_observations (observed_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create observation index: %w", err)
	}

	s.logger.Debug("schema ready")
	return nil
}

// PutToken stores or replaces a product's token.
func (s *SQLiteStore) PutToken(ctx context.Context, tenantID, productID string, metadata map[string]any, tok *fingerprint.RGBToken) error {
	if tenantID == "" || productID == "" {
		return errors.New("tenant and product IDs are required")
	}

	blob, err := codec.Encode(tok, codec.Options{Compress: s.opts.CompressTokens})
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO product_tokens (tenant_id, product_id, metadata, token, token_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, product_id) DO UPDATE SET
			metadata = excluded.metadata,
			token = excluded.token,
			token_hash = excluded.token_hash,
			updated_at = excluded.updated_at
	`, tenantID, productID, string(meta), blob, tok.Hash(), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	s.logger.Debug("stored token", "tenant_id", tenantID, "product_id", productID, "hash", tok.Hash(), "bytes", len(blob))
	return nil
}

// GetAllTokens returns the tenant's products ordered by product ID. Tokens
// are left serialised in Candidate.Raw; decoding is up to the caller.
func (s *SQLiteStore) GetAllTokens(ctx context.Context, tenantID string) ([]match.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT product_id, metadata, token FROM product_tokens WHERE tenant_id = ? ORDER BY product_id",
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close()

	candidates := make([]match.Candidate, 0)
	for rows.Next() {
		var c match.Candidate
		var meta string
		if err := rows.Scan(&c.ID, &meta, &c.Raw); err != nil {
			return nil, fmt.Errorf("failed to scan token row: %w", err)
		}

		if err := json.Unmarshal([]byte(meta), &c.Metadata); err != nil {
			// Metadata is informational; a bad row still has a usable token.
			s.logger.Warn("ignoring unreadable product metadata", "tenant_id", tenantID, "product_id", c.ID, "error", err)
			c.Metadata = nil
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate token rows: %w", err)
	}

	return candidates, nil
}

// Record appends a similarity observation.
func (s *SQLiteStore) Record(ctx context.Context, obs match.Observation) error {
	if obs.DetectedToken == nil {
		return errors.New("observation has no detected token")
	}

	blob, err := codec.Encode(obs.DetectedToken, codec.Options{Compress: s.opts.CompressTokens})
	if err != nil {
		return fmt.Errorf("failed to encode detected token: %w", err)
	}

	observedAt := obs.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO similarity_observations
			(id, tenant_id, product_id, token_hash, detected_token, similarity_score, is_match, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), obs.TenantID, obs.ProductID, obs.DetectedToken.Hash(), blob,
		obs.SimilarityScore, obs.IsMatch, observedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record observation: %w", err)
	}

	return nil
}

// ListObservations returns up to limit observations, newest first. A
// non-positive limit returns all of them.
func (s *SQLiteStore) ListObservations(ctx context.Context, limit int) ([]ObservationRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, product_id, token_hash, similarity_score, is_match, observed_at
		FROM similarity_observations
		ORDER BY observed_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	records := make([]ObservationRecord, 0)
	for rows.Next() {
		var r ObservationRecord
		var observedAt int64
		if err := rows.Scan(&r.ID, &r.TenantID, &r.ProductID, &r.TokenHash, &r.SimilarityScore, &r.IsMatch, &observedAt); err != nil {
			return nil, fmt.Errorf("failed to scan observation row: %w", err)
		}
		r.ObservedAt = time.Unix(0, observedAt).UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate observation rows: %w", err)
	}

	return records, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
