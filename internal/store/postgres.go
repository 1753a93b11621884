package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var Schema string

// Postgres keeps session records in the arena_sessions table.
type Postgres struct {
	Pool *pgxpool.Pool
}

func New(dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &Postgres{Pool: pool}, nil
}

func (s *Postgres) Close() error {
	if s.Pool != nil {
		s.Pool.Close()
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply session schema: %w", err)
	}
	return nil
}

func (s *Postgres) Save(ctx context.Context, id string, payload []byte, ttl time.Duration) error {
	if id == "" {
		return errors.New("session id is required")
	}
	var expiresAt *time.Time
	if at := expiry(time.Now(), ttl); !at.IsZero() {
		expiresAt = &at
	}
	_, err := s.Pool.Exec(ctx, `
INSERT INTO arena_sessions (id, payload, expires_at, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (id) DO UPDATE
SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at, updated_at = now()`,
		id, payload, expiresAt)
	return err
}

func (s *Postgres) Load(ctx context.Context, id string) ([]byte, error) {
	var payload []byte
	err := s.Pool.QueryRow(ctx, `
SELECT payload FROM arena_sessions
WHERE id = $1 AND (expires_at IS NULL OR expires_at > now())`, id).Scan(&payload)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return payload, nil
}

func (s *Postgres) Delete(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM arena_sessions WHERE id = $1`, id)
	return err
}

func (s *Postgres) PurgeExpired(ctx context.Context) (int, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM arena_sessions WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
