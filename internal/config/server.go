package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	BoltPath    string `env:"BOLT_PATH" envDefault:"arena.db"`

	SessionTTLMins      int `env:"SESSION_TTL_MINUTES" envDefault:"1440"`
	RetentionMins       int `env:"SESSION_RETENTION_MINUTES" envDefault:"60"`
	SweepIntervalSecs   int `env:"SWEEP_INTERVAL_SECONDS" envDefault:"300"`
	ViewerGraceSecs     int `env:"VIEWER_GRACE_SECONDS" envDefault:"30"`
	ReadyTimeoutSecs    int `env:"READY_TIMEOUT_SECONDS" envDefault:"30"`
	EventReplayWindow   int `env:"EVENT_REPLAY_WINDOW" envDefault:"500"`
	TickHoldemMS        int `env:"TICK_HOLDEM_MS" envDefault:"1000"`
	TickConnect4MS      int `env:"TICK_CONNECT4_MS" envDefault:"500"`
	TickBattleshipMS    int `env:"TICK_BATTLESHIP_MS" envDefault:"500"`
	TickWordGuessMS     int `env:"TICK_WORDGUESS_MS" envDefault:"2000"`
	DecisionHoldemMS    int `env:"DECISION_TIMEOUT_HOLDEM_MS" envDefault:"15000"`
	DecisionConnect4MS  int `env:"DECISION_TIMEOUT_CONNECT4_MS" envDefault:"5000"`
	DecisionBattleMS    int `env:"DECISION_TIMEOUT_BATTLESHIP_MS" envDefault:"5000"`
	DecisionWordGuessMS int `env:"DECISION_TIMEOUT_WORDGUESS_MS" envDefault:"20000"`

	DecisionURL     string            `env:"DECISION_URL"`
	DecisionHeaders map[string]string `env:"DECISION_HEADERS"`

	CompletionPushEnabled     bool   `env:"COMPLETION_PUSH_ENABLED" envDefault:"false"`
	CompletionPushConfigPath  string `env:"COMPLETION_PUSH_CONFIG_PATH"`
	CompletionPushConfigJSON  string `env:"COMPLETION_PUSH_CONFIG_JSON"`
	CompletionPushWorkers     int    `env:"COMPLETION_PUSH_WORKERS" envDefault:"2"`
	CompletionPushRetryMax    int    `env:"COMPLETION_PUSH_RETRY_MAX" envDefault:"3"`
	CompletionPushRetryBaseMS int    `env:"COMPLETION_PUSH_RETRY_BASE_MS" envDefault:"500"`
}

func LoadServer() (ServerConfig, error) {
	cfg, err := env.ParseAs[ServerConfig]()
	if err != nil {
		return ServerConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c ServerConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.StoreDriver)) {
	case "memory":
	case "bolt":
		if strings.TrimSpace(c.BoltPath) == "" {
			return errors.New("BOLT_PATH is required for the bolt store")
		}
	case "postgres":
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("POSTGRES_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	positive := map[string]int{
		"TICK_HOLDEM_MS":                 c.TickHoldemMS,
		"TICK_CONNECT4_MS":               c.TickConnect4MS,
		"TICK_BATTLESHIP_MS":             c.TickBattleshipMS,
		"TICK_WORDGUESS_MS":              c.TickWordGuessMS,
		"DECISION_TIMEOUT_HOLDEM_MS":     c.DecisionHoldemMS,
		"DECISION_TIMEOUT_CONNECT4_MS":   c.DecisionConnect4MS,
		"DECISION_TIMEOUT_BATTLESHIP_MS": c.DecisionBattleMS,
		"DECISION_TIMEOUT_WORDGUESS_MS":  c.DecisionWordGuessMS,
		"EVENT_REPLAY_WINDOW":            c.EventReplayWindow,
		"SWEEP_INTERVAL_SECONDS":         c.SweepIntervalSecs,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	return nil
}
