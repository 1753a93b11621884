package arena

import (
	"context"
	"time"

	"ai-arena/internal/game"
)

// Completion is handed to the rewards collaborator once per finished session.
type Completion struct {
	SessionID     string         `json:"sessionId"`
	GameType      game.Kind      `json:"gameType"`
	FinalRankings []game.Ranking `json:"finalRankings"`
	Winner        string         `json:"winner,omitempty"`
	CompletedAt   time.Time      `json:"completedAt"`
}

type CompletionSink interface {
	Deliver(ctx context.Context, c Completion) error
}

// NopSink drops completions.
type NopSink struct{}

func (NopSink) Deliver(context.Context, Completion) error { return nil }

// CompletionFunc adapts a plain function to CompletionSink.
type CompletionFunc func(ctx context.Context, c Completion) error

func (f CompletionFunc) Deliver(ctx context.Context, c Completion) error { return f(ctx, c) }
