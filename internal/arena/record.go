package arena

import (
	"encoding/json"
	"fmt"
	"time"

	"ai-arena/internal/game"
)

const recordVersion = 1

// record is the persisted form of a Session. Sets are stored as sorted slices.
type record struct {
	Version        int             `json:"version"`
	ID             string          `json:"id"`
	GameType       game.Kind       `json:"game_type"`
	Players        []Seat          `json:"players"`
	Status         Status          `json:"status"`
	Spectators     []string        `json:"spectators"`
	EverWatched    bool            `json:"ever_watched,omitempty"`
	Ready          bool            `json:"ready"`
	Pending        []string        `json:"pending_decisions,omitempty"`
	Speed          Speed           `json:"speed,omitempty"`
	HandsPlayed    int             `json:"hands_played"`
	Ticks          int64           `json:"ticks"`
	Winner         string          `json:"winner,omitempty"`
	Rankings       []game.Ranking  `json:"final_rankings,omitempty"`
	CompletionSent bool            `json:"completion_sent,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	LastActivityAt time.Time       `json:"last_activity_at"`
	CompletedAt    time.Time       `json:"completed_at,omitempty"`
	State          json.RawMessage `json:"state"`
}

func encodeRecord(s *Session) ([]byte, error) {
	s.mu.Lock()
	rec := record{
		Version:        recordVersion,
		ID:             s.ID,
		GameType:       s.Kind,
		Players:        append([]Seat(nil), s.Players...),
		Status:         s.status,
		Spectators:     sortedKeys(s.spectators),
		EverWatched:    s.everWatched,
		Ready:          s.ready,
		Speed:          s.speed,
		HandsPlayed:    s.handsPlayed,
		Ticks:          s.ticks,
		Winner:         s.winner,
		Rankings:       append([]game.Ranking(nil), s.rankings...),
		CompletionSent: s.completionSent,
		CreatedAt:      s.CreatedAt,
		LastActivityAt: s.lastActivity,
		CompletedAt:    s.completedAt,
	}
	if len(s.pending) > 0 {
		rec.Pending = sortedKeys(s.pending)
	}
	state := s.state
	s.mu.Unlock()

	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode %s state: %w", rec.GameType, err)
	}
	rec.State = raw
	return json.Marshal(rec)
}

// decodeRecord rebuilds a Session from its persisted form. The state is decoded and
// validated by the adapter registered for the record's game type.
func decodeRecord(raw []byte, games *game.Registry) (*Session, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	if rec.Version != recordVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedRecord, rec.Version)
	}
	a, err := games.Get(rec.GameType)
	if err != nil {
		return nil, err
	}
	state, err := a.Decode(rec.State)
	if err != nil {
		return nil, err
	}
	if state.Kind() != rec.GameType {
		return nil, fmt.Errorf("%w: record is %s, state is %s", game.ErrInvalidState, rec.GameType, state.Kind())
	}
	if err := a.Validate(state); err != nil {
		return nil, err
	}
	switch rec.Status {
	case StatusWaiting, StatusActive, StatusPaused, StatusCompleted:
	default:
		return nil, fmt.Errorf("%w: status %q", game.ErrInvalidState, rec.Status)
	}

	s := newSession(rec.ID, rec.GameType, rec.Players, state, rec.CreatedAt)
	s.status = rec.Status
	for _, v := range rec.Spectators {
		s.spectators[v] = struct{}{}
	}
	for _, seat := range rec.Pending {
		s.pending[seat] = struct{}{}
	}
	s.everWatched = rec.EverWatched
	s.lastActivity = rec.LastActivityAt
	s.speed = rec.Speed
	s.handsPlayed = rec.HandsPlayed
	s.ticks = rec.Ticks
	s.winner = rec.Winner
	s.rankings = rec.Rankings
	s.completionSent = rec.CompletionSent
	s.completedAt = rec.CompletedAt
	if rec.Ready {
		s.ready = true
		close(s.readyCh)
	}
	return s, nil
}
