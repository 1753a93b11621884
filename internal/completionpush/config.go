package completionpush

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"ai-arena/internal/config"
)

func ConfigFromServer(cfg config.ServerConfig) (Config, error) {
	out := Config{
		Enabled:             cfg.CompletionPushEnabled,
		ConfigPath:          strings.TrimSpace(cfg.CompletionPushConfigPath),
		ConfigReload:        time.Second,
		Workers:             cfg.CompletionPushWorkers,
		RetryMax:            cfg.CompletionPushRetryMax,
		RetryBase:           time.Duration(cfg.CompletionPushRetryBaseMS) * time.Millisecond,
		FailureThreshold:    3,
		CircuitOpenDuration: 30 * time.Second,
		RequestTimeout:      5 * time.Second,
		DispatchBuffer:      256,
	}
	if !out.Enabled {
		return out, nil
	}

	if out.Workers <= 0 {
		out.Workers = 2
	}
	if out.RetryMax < 0 {
		out.RetryMax = 0
	}
	if out.RetryBase <= 0 {
		out.RetryBase = 500 * time.Millisecond
	}

	jsonRaw, err := loadTargetsConfigJSON(cfg)
	if err != nil {
		return Config{}, err
	}
	if jsonRaw == "" {
		return out, nil
	}
	targets, err := parseTargetsJSON(jsonRaw)
	if err != nil {
		return Config{}, err
	}
	out.Targets = targets
	return out, nil
}

func loadTargetsConfigJSON(cfg config.ServerConfig) (string, error) {
	path := strings.TrimSpace(cfg.CompletionPushConfigPath)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read completion push config path %q: %w", path, err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return strings.TrimSpace(cfg.CompletionPushConfigJSON), nil
}

func parseTargetsJSON(jsonRaw string) ([]Target, error) {
	var targets []Target
	if err := json.Unmarshal([]byte(jsonRaw), &targets); err != nil {
		return nil, fmt.Errorf("parse completion push targets: %w", err)
	}
	filtered := make([]Target, 0, len(targets))
	for _, target := range targets {
		target.Endpoint = strings.TrimSpace(target.Endpoint)
		if target.Endpoint == "" || !target.Enabled {
			continue
		}
		if !strings.HasPrefix(target.Endpoint, "http://") && !strings.HasPrefix(target.Endpoint, "https://") {
			continue
		}
		target.Name = strings.TrimSpace(target.Name)
		if target.Name == "" {
			target.Name = target.Endpoint
		}
		for i := range target.Games {
			target.Games[i] = strings.TrimSpace(strings.ToLower(target.Games[i]))
		}
		filtered = append(filtered, target)
	}
	return filtered, nil
}
