package completionpush

import (
	"time"

	"ai-arena/internal/arena"
)

// Target is one webhook that receives completion payloads.
type Target struct {
	Name     string            `json:"name"`
	Endpoint string            `json:"endpoint"`
	Secret   string            `json:"secret"`
	Headers  map[string]string `json:"headers"`
	Games    []string          `json:"game_types"`
	Enabled  bool              `json:"enabled"`
}

// accepts reports whether the target wants completions for the given game type.
// An empty list means every game.
func (t Target) accepts(gameType string) bool {
	if len(t.Games) == 0 {
		return true
	}
	for _, g := range t.Games {
		if g == gameType {
			return true
		}
	}
	return false
}

type Config struct {
	Enabled             bool
	ConfigPath          string
	ConfigReload        time.Duration
	Workers             int
	RetryMax            int
	RetryBase           time.Duration
	FailureThreshold    int
	CircuitOpenDuration time.Duration
	RequestTimeout      time.Duration
	DispatchBuffer      int
	Targets             []Target
}

type pushJob struct {
	Target     Target
	Completion arena.Completion
	Attempt    int
}
