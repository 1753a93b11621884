// Package decision asks an external decision maker for a seat's next action and bounds
// how long the engine waits for it. Anything late, malformed or illegal is replaced by
// the adapter's fallback.
package decision

import (
	"context"
	"errors"
	"time"

	"ai-arena/internal/game"
)

var (
	ErrTimeout         = errors.New("decision_timeout")
	ErrInvalidResponse = errors.New("invalid_decision_response")
	ErrIllegalAction   = errors.New("illegal_action")
)

// Request is the payload sent to a provider.
type Request struct {
	SessionID    string        `json:"sessionId"`
	Kind         game.Kind     `json:"gameType"`
	Seat         string        `json:"seat"`
	State        any           `json:"state"`
	SeatView     any           `json:"seatView"`
	ValidActions []game.Action `json:"validActions"`
	DeadlineMs   int64         `json:"deadlineMs"`
}

type Response struct {
	ChosenAction game.Action `json:"chosenAction"`
	Confidence   float64     `json:"confidence"`
	Rationale    string      `json:"rationale,omitempty"`
}

// Result is what the scheduler applies. Fallback is set when the provider's answer was
// replaced, with Reason saying why.
type Result struct {
	Action     game.Action   `json:"action"`
	Confidence float64       `json:"confidence"`
	Rationale  string        `json:"rationale,omitempty"`
	Fallback   bool          `json:"fallback"`
	Reason     string        `json:"reason,omitempty"`
	Latency    time.Duration `json:"-"`
}

type Provider interface {
	Decide(ctx context.Context, req Request) (Response, error)
}

// FuncProvider adapts a plain function to Provider.
type FuncProvider func(ctx context.Context, req Request) (Response, error)

func (f FuncProvider) Decide(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
