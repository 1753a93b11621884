// Package arena runs game sessions: it owns the live session registry, one turn loop
// per active session, viewer-driven pause and resume, and session persistence.
package arena

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"ai-arena/internal/decision"
	"ai-arena/internal/events"
	"ai-arena/internal/game"
	"ai-arena/internal/store"
)

const (
	defaultSessionTTL    = 24 * time.Hour
	defaultRetention     = time.Hour
	defaultSweepInterval = 5 * time.Minute
	defaultViewerGrace   = 30 * time.Second
	defaultReadyTimeout  = 30 * time.Second
	defaultTickInterval  = time.Second
	persistTimeout       = 2 * time.Second
)

var DefaultTickIntervals = map[game.Kind]time.Duration{
	game.KindHoldem:     time.Second,
	game.KindConnect4:   500 * time.Millisecond,
	game.KindBattleship: 500 * time.Millisecond,
	game.KindWordGuess:  2 * time.Second,
}

type Config struct {
	SessionTTL    time.Duration
	Retention     time.Duration
	SweepInterval time.Duration
	ViewerGrace   time.Duration
	ReadyTimeout  time.Duration
	TickIntervals map[game.Kind]time.Duration
}

func (c Config) withDefaults() Config {
	if c.SessionTTL <= 0 {
		c.SessionTTL = defaultSessionTTL
	}
	if c.Retention <= 0 {
		c.Retention = defaultRetention
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaultSweepInterval
	}
	if c.ViewerGrace <= 0 {
		c.ViewerGrace = defaultViewerGrace
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = defaultReadyTimeout
	}
	ticks := make(map[game.Kind]time.Duration, len(DefaultTickIntervals))
	for k, v := range DefaultTickIntervals {
		ticks[k] = v
	}
	for k, v := range c.TickIntervals {
		if v > 0 {
			ticks[k] = v
		}
	}
	c.TickIntervals = ticks
	return c
}

type Deps struct {
	Games     *game.Registry
	Decisions *decision.Gateway
	Store     store.SessionStore
	Events    *events.Publisher
	Sink      CompletionSink
}

// Engine is the command surface over every session. Build one in main and share it.
type Engine struct {
	cfg       Config
	games     *game.Registry
	decisions *decision.Gateway
	store     store.SessionStore
	events    *events.Publisher
	sink      CompletionSink
	now       func() time.Time

	baseMu  sync.Mutex
	baseCtx context.Context

	mu       sync.Mutex
	sessions map[string]*Session
}

func New(cfg Config, deps Deps) *Engine {
	e := &Engine{
		cfg:       cfg.withDefaults(),
		games:     deps.Games,
		decisions: deps.Decisions,
		store:     deps.Store,
		events:    deps.Events,
		sink:      deps.Sink,
		now:       time.Now,
		baseCtx:   context.Background(),
		sessions:  map[string]*Session{},
	}
	if e.games == nil {
		e.games = game.NewRegistry()
	}
	if e.decisions == nil {
		e.decisions = decision.NewGateway(decision.NewHeuristicProvider(), nil)
	}
	if e.store == nil {
		e.store = store.NewMemory()
	}
	if e.events == nil {
		e.events = events.NewPublisher(events.DefaultReplayWindow)
	}
	if e.sink == nil {
		e.sink = NopSink{}
	}
	return e
}

func (e *Engine) Events() *events.Publisher { return e.events }
func (e *Engine) Games() *game.Registry     { return e.games }

// Run ties session loops to ctx and sweeps finished sessions until ctx ends. It blocks.
func (e *Engine) Run(ctx context.Context) error {
	e.baseMu.Lock()
	e.baseCtx = ctx
	e.baseMu.Unlock()

	ticker := time.NewTicker(e.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			e.Shutdown()
			return nil
		case now := <-ticker.C:
			e.sweep(ctx, now)
		}
	}
}

// Shutdown stops every loop and grace timer. Sessions keep their status so a restart
// resumes them from the store.
func (e *Engine) Shutdown() {
	for _, sess := range e.list() {
		e.stopLoop(sess)
		sess.mu.Lock()
		if sess.graceTimer != nil {
			sess.graceTimer.Stop()
			sess.graceTimer = nil
		}
		sess.mu.Unlock()
	}
}

type CreateRequest struct {
	ID           string          `json:"id,omitempty"`
	GameType     game.Kind       `json:"game_type"`
	Players      []Seat          `json:"players"`
	InitialState json.RawMessage `json:"initial_state,omitempty"`
	Options      game.Options    `json:"options"`
}

func (e *Engine) CreateSession(ctx context.Context, req CreateRequest) (Snapshot, error) {
	a, err := e.games.Get(req.GameType)
	if err != nil {
		return Snapshot{}, err
	}
	players, err := normalizePlayers(req.Players)
	if err != nil {
		return Snapshot{}, err
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = store.NewID()
	}
	if _, err := e.lookup(ctx, id); err == nil {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSessionExists, id)
	} else if !errors.Is(err, ErrSessionNotFound) {
		return Snapshot{}, err
	}

	seats := make([]string, len(players))
	for i, p := range players {
		seats[i] = p.ID
	}
	var state game.State
	if len(req.InitialState) > 0 && string(req.InitialState) != "null" {
		if state, err = a.Decode(req.InitialState); err != nil {
			return Snapshot{}, err
		}
		if err := a.Validate(state); err != nil {
			return Snapshot{}, err
		}
		if err := sameSeats(a.FinalRankings(state), seats); err != nil {
			return Snapshot{}, err
		}
	} else if state, err = a.NewState(seats, req.Options); err != nil {
		return Snapshot{}, err
	}

	sess := newSession(id, a.Kind(), players, state, e.now())
	e.mu.Lock()
	if _, exists := e.sessions[id]; exists {
		e.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	e.sessions[id] = sess
	e.mu.Unlock()
	metricSessionsCreated.Add(1)

	log.Info().
		Str("session_id", id).
		Str("game_type", string(a.Kind())).
		Int("seats", len(players)).
		Msg("session_created")
	e.persist(ctx, sess)
	snap := sess.snapshot(a)
	e.events.State(id, snap)
	return snap, nil
}

func normalizePlayers(in []Seat) ([]Seat, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: at least one player is required", ErrInvalidPlayers)
	}
	out := make([]Seat, len(in))
	seen := map[string]bool{}
	for i, p := range in {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" || seen[p.ID] {
			return nil, fmt.Errorf("%w: empty or duplicate seat %q", ErrInvalidPlayers, p.ID)
		}
		seen[p.ID] = true
		switch p.Controller {
		case "":
			p.Controller = ControllerAI
		case ControllerAI, ControllerHuman:
		default:
			return nil, fmt.Errorf("%w: controller %q", ErrInvalidPlayers, p.Controller)
		}
		out[i] = p
	}
	return out, nil
}

// sameSeats checks that a caller-supplied state seats exactly the session's players.
func sameSeats(rankings []game.Ranking, seats []string) error {
	got := make([]string, 0, len(rankings))
	for _, r := range rankings {
		got = append(got, r.Seat)
	}
	want := append([]string(nil), seats...)
	sort.Strings(got)
	sort.Strings(want)
	if strings.Join(got, "\x00") != strings.Join(want, "\x00") {
		return fmt.Errorf("%w: initial state seats %v, players %v", ErrInvalidPlayers, got, want)
	}
	return nil
}

func (e *Engine) StartSession(ctx context.Context, id string) (Snapshot, error) {
	return e.transition(ctx, id, StatusWaiting, StatusActive, events.Started)
}

func (e *Engine) PauseSession(ctx context.Context, id string) (Snapshot, error) {
	return e.transition(ctx, id, StatusActive, StatusPaused, events.Paused)
}

func (e *Engine) ResumeSession(ctx context.Context, id string) (Snapshot, error) {
	return e.transition(ctx, id, StatusPaused, StatusActive, events.Resumed)
}

func (e *Engine) transition(ctx context.Context, id string, from, to Status, name string) (Snapshot, error) {
	sess, err := e.lookup(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	if sess.status != from {
		current := sess.status
		sess.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %s -> %s from %s", ErrInvalidTransition, from, to, current)
	}
	sess.status = to
	sess.lastActivity = e.now()
	sess.mu.Unlock()

	if to == StatusActive {
		e.startLoop(sess)
	} else {
		e.stopLoop(sess)
	}
	log.Info().
		Str("session_id", id).
		Str("status", string(to)).
		Msg("session_" + name)
	e.events.Lifecycle(id, name, map[string]any{"status": to})
	return e.commitSnapshot(ctx, sess), nil
}

// SignalReady lets the session's loop start ticking before the ready timeout. Later
// calls are no-ops.
func (e *Engine) SignalReady(ctx context.Context, id string) (Snapshot, error) {
	sess, err := e.lookup(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	if sess.markReady() {
		log.Info().Str("session_id", id).Msg("session_ready")
		e.persist(ctx, sess)
	}
	return e.snapshotOf(sess), nil
}

func (e *Engine) SetSpeed(ctx context.Context, id string, speed Speed) (Snapshot, error) {
	if _, ok := speedDelays[speed]; !ok {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrInvalidSpeed, speed)
	}
	sess, err := e.lookup(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	sess.speed = speed
	sess.lastActivity = e.now()
	sess.mu.Unlock()
	e.events.Lifecycle(id, events.SpeedChanged, map[string]any{"speed": speed})
	return e.commitSnapshot(ctx, sess), nil
}

func (e *Engine) GetSession(ctx context.Context, id string) (Snapshot, error) {
	sess, err := e.lookup(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return e.snapshotOf(sess), nil
}

// ListSessions returns the sessions held in memory, oldest first.
func (e *Engine) ListSessions() []Snapshot {
	sessions := e.list()
	out := make([]Snapshot, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, e.snapshotOf(sess))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (e *Engine) snapshotOf(sess *Session) Snapshot {
	a, _ := e.games.Get(sess.Kind)
	return sess.snapshot(a)
}

// commitSnapshot persists sess and publishes its public snapshot.
func (e *Engine) commitSnapshot(ctx context.Context, sess *Session) Snapshot {
	e.persist(ctx, sess)
	snap := e.snapshotOf(sess)
	e.events.State(sess.ID, snap)
	return snap
}
