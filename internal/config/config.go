// Package config aggregates the weather bot configuration: the reusable core
// sections plus database, weather provider, sessions and health settings.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/weatherbot/core/config"
	coredatabase "github.com/m3rciful/weatherbot/core/database"
	"github.com/m3rciful/weatherbot/core/telegram/state"
	"github.com/m3rciful/weatherbot/internal/weather"
)

// DefaultSweepInterval is how often expired sessions are swept when unset.
const DefaultSweepInterval = 5 * time.Minute

// SessionsConfig tunes the in-memory conversation sessions.
type SessionsConfig struct {
	TTL           time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SESSION_SWEEP_INTERVAL"`
}

// HealthConfig enables the HTTP health endpoint when Listen is set.
type HealthConfig struct {
	Listen string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Weather  weather.Config      `yaml:"weather"`
	Sessions SessionsConfig      `yaml:"sessions"`
	Health   HealthConfig        `yaml:"health"`
}

// CoreConfig exposes the embedded core section.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path (optional), the environment and .env, then normalizes.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}
	if err := c.Weather.Normalize(); err != nil {
		return err
	}
	if c.Sessions.TTL < 0 || c.Sessions.SweepInterval < 0 {
		return fmt.Errorf("sessions.ttl and sessions.sweep_interval must be >= 0")
	}
	if c.Sessions.TTL == 0 {
		c.Sessions.TTL = state.DefaultTTL
	}
	if c.Sessions.SweepInterval == 0 {
		c.Sessions.SweepInterval = DefaultSweepInterval
	}
	c.Health.Listen = strings.TrimSpace(c.Health.Listen)
	return nil
}
