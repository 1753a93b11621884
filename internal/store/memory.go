package store

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	payload   []byte
	expiresAt time.Time
}

// Memory keeps records in process. Used when no durable driver is configured and in tests.
type Memory struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{records: map[string]memoryRecord{}, now: time.Now}
}

func (m *Memory) Save(ctx context.Context, id string, payload []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[id] = memoryRecord{
		payload:   append([]byte(nil), payload...),
		expiresAt: expiry(m.now(), ttl),
	}
	return nil
}

func (m *Memory) Load(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || expired(rec.expiresAt, m.now()) {
		return nil, ErrNotFound
	}
	return append([]byte(nil), rec.payload...), nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.records, id)
	m.mu.Unlock()
	return nil
}

func (m *Memory) PurgeExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	purged := 0
	for id, rec := range m.records {
		if expired(rec.expiresAt, now) {
			delete(m.records, id)
			purged++
		}
	}
	return purged, nil
}

func (m *Memory) Close() error { return nil }
