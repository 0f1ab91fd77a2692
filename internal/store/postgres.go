// Package store persists generated signals.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/wonny/signalengine/internal/contracts"
)

// DefaultTTL is how long a stored signal stays visible
const DefaultTTL = 7 * 24 * time.Hour

// Querier is the part of pgxpool.Pool the store uses
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres stores signals in the signals table keyed by (symbol, generated_at)
type Postgres struct {
	db  Querier
	ttl time.Duration
	now func() time.Time
}

// NewPostgres creates a PostgreSQL signal store
func NewPostgres(db Querier, ttl time.Duration) *Postgres {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Postgres{db: db, ttl: ttl, now: time.Now}
}

const schema = `
	CREATE TABLE IF NOT EXISTS signals (
		symbol           TEXT          NOT NULL,
		generated_at     TIMESTAMPTZ   NOT NULL,
		signal_date      DATE          NOT NULL,
		signal_type      TEXT          NOT NULL,
		confidence       NUMERIC(5,1)  NOT NULL,
		entry_price      NUMERIC(14,2) NOT NULL,
		score            NUMERIC(8,2)  NOT NULL,
		profile          TEXT          NOT NULL,
		reasons          JSONB         NOT NULL,
		features         JSONB         NOT NULL,
		market_open      BOOLEAN,
		execution_status TEXT,
		expires_at       TIMESTAMPTZ   NOT NULL,
		PRIMARY KEY (symbol, generated_at)
	);
	CREATE INDEX IF NOT EXISTS idx_signals_generated_at ON signals (generated_at DESC);
`

// EnsureSchema creates the signals table when missing
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create signals schema: %w", err)
	}
	return nil
}

// Save upserts a signal
func (p *Postgres) Save(ctx context.Context, s contracts.Signal) error {
	query := `
		INSERT INTO signals (
			symbol, generated_at, signal_date, signal_type,
			confidence, entry_price, score, profile,
			reasons, features, market_open, execution_status, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (symbol, generated_at) DO UPDATE SET
			signal_type = EXCLUDED.signal_type,
			confidence = EXCLUDED.confidence,
			entry_price = EXCLUDED.entry_price,
			score = EXCLUDED.score,
			reasons = EXCLUDED.reasons,
			features = EXCLUDED.features,
			market_open = EXCLUDED.market_open,
			execution_status = EXCLUDED.execution_status,
			expires_at = EXCLUDED.expires_at
	`

	reasons, err := json.Marshal(nonNil(s.Reasons))
	if err != nil {
		return fmt.Errorf("failed to marshal reasons: %w", err)
	}
	features, err := json.Marshal(s.Features)
	if err != nil {
		return fmt.Errorf("failed to marshal features: %w", err)
	}

	generatedAt := s.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = p.now()
	}

	var marketOpen *bool
	var status *string
	if s.Execution != nil {
		marketOpen, status = &s.Execution.MarketOpen, &s.Execution.Status
	}

	_, err = p.db.Exec(ctx, query,
		s.Symbol, generatedAt, s.Date, string(s.Type),
		decimal.NewFromFloat(s.Confidence).Round(1),
		decimal.NewFromFloat(s.EntryPrice).Round(2),
		decimal.NewFromFloat(s.Score).Round(2),
		s.Profile,
		reasons, features, marketOpen, status,
		generatedAt.Add(p.ttl),
	)
	if err != nil {
		return fmt.Errorf("failed to save signal %s: %w", s.Symbol, err)
	}
	return nil
}

// Recent returns unexpired signals, newest first
func (p *Postgres) Recent(ctx context.Context, limit int) ([]contracts.Signal, error) {
	query := `
		SELECT
			symbol, generated_at, signal_date, signal_type,
			confidence, entry_price, score, profile,
			reasons, features, market_open, execution_status
		FROM signals
		WHERE expires_at > $1
		ORDER BY generated_at DESC, symbol
		LIMIT $2
	`

	rows, err := p.db.Query(ctx, query, p.now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	signals := make([]contracts.Signal, 0)
	for rows.Next() {
		var (
			s                        contracts.Signal
			signalType               string
			confidence, price, score decimal.Decimal
			reasons, features        []byte
			marketOpen               *bool
			status                   *string
		)

		if err := rows.Scan(
			&s.Symbol, &s.GeneratedAt, &s.Date, &signalType,
			&confidence, &price, &score, &s.Profile,
			&reasons, &features, &marketOpen, &status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		s.Type = contracts.SignalType(signalType)
		s.Confidence = confidence.InexactFloat64()
		s.EntryPrice = price.InexactFloat64()
		s.Score = score.InexactFloat64()
		if err := json.Unmarshal(reasons, &s.Reasons); err != nil {
			return nil, fmt.Errorf("failed to decode reasons: %w", err)
		}
		if err := json.Unmarshal(features, &s.Features); err != nil {
			return nil, fmt.Errorf("failed to decode features: %w", err)
		}
		if marketOpen != nil && status != nil {
			s.Execution = &contracts.Execution{MarketOpen: *marketOpen, Status: *status}
		}

		signals = append(signals, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return signals, nil
}

// DeleteExpired removes signals past their expiry and returns how many were dropped
func (p *Postgres) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM signals WHERE expires_at <= $1`, p.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired signals: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nonNil(reasons []string) []string {
	if reasons == nil {
		return []string{}
	}
	return reasons
}
