package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaultsToLongpoll(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t", RunMode: "Polling"}}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
}

func TestNormalizeRequiresToken(t *testing.T) {
	err := Normalize(&Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOT_TOKEN")
}

func TestNormalizeWebhookNeedsListener(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "t", RunMode: RunModeWebhook},
		Webhook:  WebhookConfig{URL: "https://example.org/hook"},
	}
	require.Error(t, Normalize(cfg))

	cfg.Webhook.Listen = "0.0.0.0"
	cfg.Webhook.Port = 8443
	require.NoError(t, Normalize(cfg))
}

func TestNormalizeRateLimitExcludes(t *testing.T) {
	cfg := &Config{
		Telegram:  TelegramConfig{Token: "t"},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{" Callback ", "message"}},
	}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, []string{"callback", "message"}, cfg.RateLimit.ExcludeUpdates)

	cfg.RateLimit.ExcludeUpdates = []string{"photo"}
	require.Error(t, Normalize(cfg))
}

func TestLoadIntoEnvOverridesYAML(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telegram:\n  token: from-file\n  run_mode: webhook\n"), 0o600))
	t.Setenv("BOT_TOKEN", "from-env")

	var cfg Config
	require.NoError(t, LoadInto(path, &cfg))
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, "webhook", cfg.Telegram.RunMode)
}

func TestLoadIntoMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	var cfg Config
	require.Error(t, LoadInto(filepath.Join(t.TempDir(), "nope.yaml"), &cfg))
}
