package weather

import (
	"fmt"
	"strings"
	"time"
)

// DefaultBaseURL is the OpenWeatherMap current weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Config holds provider settings.
type Config struct {
	APIKey       string        `yaml:"api_key" envconfig:"WEATHER_API_KEY"`
	BaseURL      string        `yaml:"base_url" envconfig:"WEATHER_BASE_URL"`
	Units        string        `yaml:"units" envconfig:"WEATHER_UNITS"`
	Lang         string        `yaml:"lang" envconfig:"WEATHER_LANG"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"WEATHER_TIMEOUT"`
	Retries      int           `yaml:"retries" envconfig:"WEATHER_RETRIES"`
	RetryBackoff time.Duration `yaml:"retry_backoff" envconfig:"WEATHER_RETRY_BACKOFF"`
}

// Normalize validates the API key and fills defaults.
func (c *Config) Normalize() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("weather api key is required (WEATHER_API_KEY)")
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Units == "" {
		c.Units = "metric"
	}
	if c.Lang == "" {
		c.Lang = "en"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	// one bounded retry for transient network faults
	if c.Retries <= 0 || c.Retries > 3 {
		c.Retries = 1
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	return nil
}
