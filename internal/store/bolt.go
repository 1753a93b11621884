package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const sessionBucket = "sessions"

// expiryPrefixLen is the width of the unix-nano expiry stored ahead of each payload.
const expiryPrefixLen = 8

// Bolt is a single-file BoltDB session store.
type Bolt struct {
	db  *bbolt.DB
	now func() time.Time
}

// OpenBolt opens (or creates) the BoltDB file at path.
func OpenBolt(path string) (*Bolt, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	st := &Bolt{db: db, now: time.Now}
	if err := st.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *Bolt) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Bolt) Save(ctx context.Context, id string, payload []byte, ttl time.Duration) error {
	if err := s.check(ctx, id); err != nil {
		return err
	}
	value := make([]byte, expiryPrefixLen+len(payload))
	if at := expiry(s.now(), ttl); !at.IsZero() {
		binary.BigEndian.PutUint64(value, uint64(at.UnixNano()))
	}
	copy(value[expiryPrefixLen:], payload)

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		return bucket.Put([]byte(id), value)
	})
}

func (s *Bolt) Load(ctx context.Context, id string) ([]byte, error) {
	if err := s.check(ctx, id); err != nil {
		return nil, err
	}
	var payload []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		value := bucket.Get([]byte(id))
		if value == nil {
			return ErrNotFound
		}
		at, body, err := splitValue(value)
		if err != nil {
			return err
		}
		if expired(at, s.now()) {
			return ErrNotFound
		}
		// bbolt values are only valid inside the transaction.
		payload = append([]byte(nil), body...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *Bolt) Delete(ctx context.Context, id string) error {
	if err := s.check(ctx, id); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		return bucket.Delete([]byte(id))
	})
}

func (s *Bolt) PurgeExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	now := s.now()
	purged := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		var stale [][]byte
		if err := bucket.ForEach(func(k, v []byte) error {
			at, _, err := splitValue(v)
			if err != nil || expired(at, now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		purged = len(stale)
		return nil
	})
	return purged, err
}

func (s *Bolt) check(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("session id is required")
	}
	return nil
}

func (s *Bolt) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(sessionBucket)); err != nil {
			return fmt.Errorf("create session bucket: %w", err)
		}
		return nil
	})
}

func splitValue(value []byte) (time.Time, []byte, error) {
	if len(value) < expiryPrefixLen {
		return time.Time{}, nil, errors.New("session record is truncated")
	}
	var at time.Time
	if n := binary.BigEndian.Uint64(value[:expiryPrefixLen]); n != 0 {
		at = time.Unix(0, int64(n))
	}
	return at, value[expiryPrefixLen:], nil
}
