// Package config loads server settings from PITCHSIDE_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the room server.
type Config struct {
	Addr string `env:"ADDR" envDefault:":8080"`

	MaxInnings   int           `env:"MAX_INNINGS" envDefault:"9"`
	MaxPeers     int           `env:"MAX_PEERS" envDefault:"16"`
	ResetDelay   time.Duration `env:"RESET_DELAY" envDefault:"10s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"2m"`
	PitchTimeout time.Duration `env:"PITCH_TIMEOUT" envDefault:"20s"`
	PlayTimeout  time.Duration `env:"PLAY_TIMEOUT" envDefault:"30s"`

	TimingTolerance   time.Duration `env:"TIMING_TOLERANCE" envDefault:"400ms"`
	LocationTolerance float64       `env:"LOCATION_TOLERANCE" envDefault:"0.35"`

	MaxNameLength int     `env:"MAX_NAME_LENGTH" envDefault:"24"`
	MaxChatLength int     `env:"MAX_CHAT_LENGTH" envDefault:"280"`
	RateLimit     float64 `env:"RATE_LIMIT" envDefault:"10"`
	RateBurst     int     `env:"RATE_BURST" envDefault:"20"`
	EventLogSize  int     `env:"EVENT_LOG_SIZE" envDefault:"200"`
	Seed          uint64  `env:"SEED" envDefault:"0"`

	AnalyticsDB    string `env:"ANALYTICS_DB"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	OtelEndpoint   string `env:"OTEL_ENDPOINT"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

const envPrefix = "PITCHSIDE_"

// Load reads the process environment.
func Load() (Config, error) {
	return parse(env.Options{Prefix: envPrefix})
}

// LoadFrom reads settings from the given map instead of the process
// environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: envPrefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.MaxInnings < 1:
		return fmt.Errorf("config: MAX_INNINGS must be at least 1, got %d", c.MaxInnings)
	case c.MaxPeers < 2:
		return fmt.Errorf("config: MAX_PEERS must be at least 2, got %d", c.MaxPeers)
	case c.PitchTimeout < 0 || c.PlayTimeout < 0 || c.ResetDelay < 0 || c.IdleTimeout < 0:
		return fmt.Errorf("config: timeouts must not be negative")
	case c.TimingTolerance <= 0 || c.LocationTolerance <= 0:
		return fmt.Errorf("config: swing tolerances must be positive")
	case c.MaxNameLength < 1 || c.MaxChatLength < 1:
		return fmt.Errorf("config: length caps must be positive")
	case c.RateLimit <= 0 || c.RateBurst < 1:
		return fmt.Errorf("config: rate limit must be positive")
	}
	return nil
}
