package arena

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"ai-arena/internal/game"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

type Controller string

const (
	ControllerAI    Controller = "ai"
	ControllerHuman Controller = "human"
)

// Speed paces an AI session. The empty value keeps the game type's tick interval.
type Speed string

const (
	SpeedFast     Speed = "fast"
	SpeedNormal   Speed = "normal"
	SpeedThinking Speed = "thinking"
)

var speedDelays = map[Speed]time.Duration{
	SpeedFast:     500 * time.Millisecond,
	SpeedNormal:   time.Second,
	SpeedThinking: 2 * time.Second,
}

func ParseSpeed(v string) (Speed, error) {
	s := Speed(v)
	if _, ok := speedDelays[s]; !ok {
		return "", ErrInvalidSpeed
	}
	return s, nil
}

type Seat struct {
	ID         string     `json:"id"`
	Controller Controller `json:"controller"`
	Name       string     `json:"name,omitempty"`
}

// Session is one running game. Fields below mu are guarded by it; state itself is only
// replaced by whoever holds turnLock.
type Session struct {
	ID        string
	Kind      game.Kind
	Players   []Seat
	CreatedAt time.Time

	turnLock atomic.Bool

	mu             sync.Mutex
	state          game.State
	status         Status
	spectators     map[string]struct{}
	everWatched    bool
	lastActivity   time.Time
	ready          bool
	readyCh        chan struct{}
	pending        map[string]struct{}
	speed          Speed
	handsPlayed    int
	ticks          int64
	rankings       []game.Ranking
	winner         string
	completedAt    time.Time
	completionSent bool

	cancel     context.CancelFunc
	loopDone   chan struct{}
	graceGen   uint64
	graceTimer *time.Timer
}

func newSession(id string, kind game.Kind, players []Seat, state game.State, now time.Time) *Session {
	return &Session{
		ID:           id,
		Kind:         kind,
		Players:      append([]Seat(nil), players...),
		CreatedAt:    now,
		state:        state,
		status:       StatusWaiting,
		spectators:   map[string]struct{}{},
		lastActivity: now,
		readyCh:      make(chan struct{}),
		pending:      map[string]struct{}{},
	}
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) State() game.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) seat(id string) (Seat, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Seat{}, false
}

func (s *Session) seatIDs() []string {
	out := make([]string, len(s.Players))
	for i, p := range s.Players {
		out[i] = p.ID
	}
	return out
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActivity = now
	s.mu.Unlock()
}

// markReady records the ready signal once. It reports whether this call flipped it.
func (s *Session) markReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return false
	}
	s.ready = true
	close(s.readyCh)
	return true
}

func (s *Session) isReady() (bool, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready, s.readyCh
}

func (s *Session) addPending(seat string) {
	s.mu.Lock()
	s.pending[seat] = struct{}{}
	s.mu.Unlock()
}

func (s *Session) clearPending(seat string) {
	s.mu.Lock()
	delete(s.pending, seat)
	s.mu.Unlock()
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Snapshot is the read model returned by commands and published on the state topic.
type Snapshot struct {
	ID             string         `json:"id"`
	GameType       game.Kind      `json:"game_type"`
	Status         Status         `json:"status"`
	Players        []Seat         `json:"players"`
	Spectators     []string       `json:"spectators"`
	Ready          bool           `json:"ready"`
	Pending        []string       `json:"pending_decisions,omitempty"`
	Speed          Speed          `json:"speed,omitempty"`
	HandsPlayed    int            `json:"hands_played"`
	Ticks          int64          `json:"ticks"`
	CurrentTurn    string         `json:"current_turn,omitempty"`
	Winner         string         `json:"winner,omitempty"`
	Rankings       []game.Ranking `json:"final_rankings,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	LastActivityAt time.Time      `json:"last_activity_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	State          any            `json:"state"`
}

func (s *Session) snapshot(a game.Adapter) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Snapshot{
		ID:             s.ID,
		GameType:       s.Kind,
		Status:         s.status,
		Players:        append([]Seat(nil), s.Players...),
		Spectators:     sortedKeys(s.spectators),
		Ready:          s.ready,
		Speed:          s.speed,
		HandsPlayed:    s.handsPlayed,
		Ticks:          s.ticks,
		Winner:         s.winner,
		Rankings:       append([]game.Ranking(nil), s.rankings...),
		CreatedAt:      s.CreatedAt,
		LastActivityAt: s.lastActivity,
	}
	if len(s.pending) > 0 {
		out.Pending = sortedKeys(s.pending)
	}
	if !s.completedAt.IsZero() {
		at := s.completedAt
		out.CompletedAt = &at
	}
	if a != nil && s.state != nil {
		out.State = a.PublicView(s.state)
		if turn, ok := a.CurrentTurn(s.state); ok {
			out.CurrentTurn = turn
		}
	}
	return out
}
