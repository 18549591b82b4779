package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Postgres driver registered as "postgres".
	_ "github.com/lib/pq"
)

var _ Slot = (*Postgres)(nil)

// DefaultSlotName names the row holding the override set.
const DefaultSlotName = "default_checks"

const createSlotsTable = `
CREATE TABLE IF NOT EXISTS sowaudit_slots (
	name       TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// Postgres keeps each slot as one row of the sowaudit_slots table.
type Postgres struct {
	db   *sql.DB
	name string
}

// OpenPostgres connects with lib/pq, verifies the connection and creates the
// slots table if needed.
func OpenPostgres(ctx context.Context, dsn, name string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	s := NewPostgres(db, name)
	if err := s.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgres wraps an existing handle. An empty name selects DefaultSlotName.
func NewPostgres(db *sql.DB, name string) *Postgres {
	if name == "" {
		name = DefaultSlotName
	}
	return &Postgres{db: db, name: name}
}

// InitSchema creates the slots table. It is idempotent.
func (s *Postgres) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSlotsTable); err != nil {
		return fmt.Errorf("store: create slots table: %w", err)
	}
	return nil
}

// Read returns the stored payload or ErrNotFound.
func (s *Postgres) Read(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM sowaudit_slots WHERE name = $1`, s.name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: select slot %s: %w", s.name, err)
	}
	return payload, nil
}

// Write upserts the payload. The column is JSONB, so data must be valid JSON.
func (s *Postgres) Write(ctx context.Context, data []byte) error {
	const q = `
INSERT INTO sowaudit_slots (name, payload, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET
	payload = EXCLUDED.payload,
	updated_at = EXCLUDED.updated_at`
	if _, err := s.db.ExecContext(ctx, q, s.name, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("store: upsert slot %s: %w", s.name, err)
	}
	return nil
}

// Clear deletes the row.
func (s *Postgres) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sowaudit_slots WHERE name = $1`, s.name); err != nil {
		return fmt.Errorf("store: delete slot %s: %w", s.name, err)
	}
	return nil
}

// Close releases the database handle.
func (s *Postgres) Close() error {
	return s.db.Close()
}
