// Package store persists session records under their id with a sliding expiry.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("not found")

const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

// SessionStore is a keyed blob store. Every Save refreshes the record's expiry; Load
// treats expired records as missing.
type SessionStore interface {
	Save(ctx context.Context, id string, payload []byte, ttl time.Duration) error
	Load(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
	// PurgeExpired drops every expired record and reports how many went.
	PurgeExpired(ctx context.Context) (int, error)
	Close() error
}

type Options struct {
	Driver      string
	PostgresDSN string
	BoltPath    string
}

// Open builds the store selected by opts.Driver. Postgres also gets its table created.
func Open(ctx context.Context, opts Options) (SessionStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverBolt:
		return OpenBolt(opts.BoltPath)
	case DriverPostgres:
		if strings.TrimSpace(opts.PostgresDSN) == "" {
			return nil, errors.New("postgres dsn is required")
		}
		st, err := New(opts.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := st.Ping(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := st.EnsureSchema(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func expired(at, now time.Time) bool {
	return !at.IsZero() && !now.Before(at)
}
