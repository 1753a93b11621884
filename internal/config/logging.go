package config

import "github.com/caarlos0/env/v11"

type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SampleEvery int    `env:"LOG_SAMPLE_EVERY" envDefault:"0"`
	File        string `env:"LOG_FILE"`
	MaxMB       int    `env:"LOG_MAX_MB" envDefault:"10"`
	// Service tags every record, so the server and the bot can share one log sink.
	Service string `env:"LOG_SERVICE"`
}

// LoadLog reads the logging settings; service fills Service when LOG_SERVICE is unset.
func LoadLog(service string) (LogConfig, error) {
	cfg, err := env.ParseAs[LogConfig]()
	if err != nil {
		return LogConfig{}, err
	}
	if cfg.Service == "" {
		cfg.Service = service
	}
	return cfg, nil
}
