package config

import "github.com/caarlos0/env/v11"

// BotConfig configures cmd/decision-bot, the reference decision provider.
type BotConfig struct {
	HTTPAddr string `env:"BOT_HTTP_ADDR" envDefault:":8090"`
	APIKey   string `env:"BOT_API_KEY" envDefault:""`
	ThinkMS  int    `env:"BOT_THINK_MS" envDefault:"0"`
}

func LoadBot() (BotConfig, error) {
	return env.ParseAs[BotConfig]()
}
