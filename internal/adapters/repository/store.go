// Package repository persists subscriber observations in Postgres.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/okian/scorestream/internal/domain/model"
)

const driverName = "pgx"

const ddl = `
CREATE TABLE IF NOT EXISTS score_observations (
  id         bigserial    PRIMARY KEY,
  seen_at    timestamptz  NOT NULL,
  schema_id  text         NOT NULL,
  publisher  text         NOT NULL,
  player     text         NOT NULL,
  score      numeric(78,0) NOT NULL,
  play_time  numeric(78,0) NOT NULL,
  UNIQUE (schema_id, publisher, player, score, play_time)
);
CREATE INDEX IF NOT EXISTS idx_score_observations_player ON score_observations(player);
`

const insertObservation = `INSERT INTO score_observations(seen_at, schema_id, publisher, player, score, play_time)
VALUES ($1,$2,$3,$4,$5,$6) ON CONFLICT DO NOTHING`

const countObservations = `SELECT count(*) FROM score_observations`

// ObservationStore writes observations to the score_observations table.
// Rows are unique per (schema, publisher, player, score, playTime), so a
// restarted subscriber replaying its backlog does not duplicate rows.
type ObservationStore struct {
	db *sql.DB
}

// Open connects to dsn and pings the server.
func Open(ctx context.Context, dsn string, opts ...Option) (*ObservationStore, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	db.SetMaxOpenConns(o.maxOpenConns)
	db.SetMaxIdleConns(o.maxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewObservationStore(db), nil
}

// NewObservationStore wraps an open database.
func NewObservationStore(db *sql.DB) *ObservationStore {
	return &ObservationStore{db: db}
}

// EnsureSchema creates the table and index when missing.
func (s *ObservationStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Name identifies the sink in metrics and logs.
func (s *ObservationStore) Name() string { return "postgres" }

// Emit inserts o. Numeric fields are bound as decimal text so values beyond
// 64 bits keep full precision.
func (s *ObservationStore) Emit(ctx context.Context, o model.Observation) error {
	r := o.Record
	if r.Player == "" {
		return ErrEmptyPlayer
	}
	_, err := s.db.ExecContext(ctx, insertObservation,
		o.SeenAt, o.SchemaID, o.Publisher, r.Player, orZero(r.Score), orZero(r.PlayTime),
	)
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

// Count returns the number of stored observations.
func (s *ObservationStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, countObservations).Scan(&n); err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *ObservationStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
