package completionpush

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"ai-arena/internal/arena"
)

// ErrQueueFull is returned by Deliver when a completion could not be queued for some target.
var ErrQueueFull = errors.New("completion_push_queue_full")

// Manager fans completion payloads out to webhook targets through a worker pool.
type Manager struct {
	cfg    Config
	client sender

	dispatchCh chan pushJob
	circuits   *circuits
	done       chan struct{}

	mu      sync.Mutex
	started bool
}

var _ arena.CompletionSink = (*Manager)(nil)

func NewManager(cfg Config) *Manager {
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.CircuitOpenDuration <= 0 {
		cfg.CircuitOpenDuration = 30 * time.Second
	}

	return &Manager{
		cfg:        cfg,
		client:     NewHTTPClient(cfg.RequestTimeout),
		dispatchCh: make(chan pushJob, cfg.DispatchBuffer),
		circuits:   newCircuits(cfg.FailureThreshold, cfg.CircuitOpenDuration),
		done:       make(chan struct{}),
	}
}

func (m *Manager) Start(ctx context.Context) error {
	if !m.cfg.Enabled {
		return nil
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	for i := 0; i < m.cfg.Workers; i++ {
		go m.worker(ctx)
	}
	if m.cfg.ConfigPath != "" {
		go m.watchConfigLoop(ctx)
	}
	go func() {
		<-ctx.Done()
		close(m.done)
	}()
	log.Info().Int("targets", len(m.currentTargets())).Int("workers", m.cfg.Workers).Msg("completion_push_started")
	return nil
}

// Deliver queues the completion for every matching target and returns without waiting
// for the webhooks.
func (m *Manager) Deliver(_ context.Context, c arena.Completion) error {
	if !m.cfg.Enabled {
		return nil
	}
	var dropped bool
	for _, target := range m.currentTargets() {
		if !target.accepts(string(c.GameType)) {
			continue
		}
		if !m.enqueue(pushJob{Target: target, Completion: c}) {
			metricPushDroppedTotal.Add(1)
			dropped = true
		}
	}
	if dropped {
		return ErrQueueFull
	}
	return nil
}

func (m *Manager) enqueue(job pushJob) bool {
	select {
	case <-m.done:
		return false
	case m.dispatchCh <- job:
		metricPushQueuedTotal.Add(1)
		metricPushQueueLen.Set(int64(len(m.dispatchCh)))
		return true
	default:
		return false
	}
}

func (m *Manager) currentTargets() []Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Target, len(m.cfg.Targets))
	copy(out, m.cfg.Targets)
	return out
}

func (m *Manager) watchConfigLoop(ctx context.Context) {
	interval := m.cfg.ConfigReload
	if interval <= 0 {
		interval = time.Second
	}
	lastRaw := ""
	if raw, err := os.ReadFile(m.cfg.ConfigPath); err == nil {
		lastRaw = strings.TrimSpace(string(raw))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			if next, ok := m.reloadTargets(lastRaw); ok {
				lastRaw = next
			}
		}
	}
}

// reloadTargets swaps in the config file's targets when its content changed.
func (m *Manager) reloadTargets(lastRaw string) (string, bool) {
	raw, err := os.ReadFile(m.cfg.ConfigPath)
	if err != nil {
		metricPushConfigReloadError.Add(1)
		return "", false
	}
	nextRaw := strings.TrimSpace(string(raw))
	if nextRaw == lastRaw {
		return "", false
	}
	targets, err := parseTargetsJSON(nextRaw)
	if err != nil {
		metricPushConfigReloadError.Add(1)
		log.Warn().Err(err).Str("path", m.cfg.ConfigPath).Msg("completion_push_reload_failed")
		return "", false
	}
	m.mu.Lock()
	m.cfg.Targets = targets
	m.mu.Unlock()
	metricPushConfigReloadTotal.Add(1)
	log.Info().Int("targets", len(targets)).Msg("completion_push_targets_reloaded")
	return nextRaw, true
}
