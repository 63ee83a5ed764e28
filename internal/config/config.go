package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBDir    string     `env:"DB_DIR" envDefault:"data"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// RedisURL enables the report cache when set; empty runs uncached.
	RedisURL string `env:"REDIS_URL"`

	// CacheTTL bounds how stale a cached finished-round report may get.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	// RoundStrategy picks the boundary detector: "gap" or "bucket".
	RoundStrategy string `env:"ROUND_STRATEGY" envDefault:"gap"`

	// SeedDemo loads a small synthetic match history into an empty database
	// so the API has something to show on first boot.
	SeedDemo bool `env:"SEED_DEMO" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
