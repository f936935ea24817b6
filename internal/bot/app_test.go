package bot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/weatherbot/core/config"
	coredatabase "github.com/m3rciful/weatherbot/core/database"
	"github.com/m3rciful/weatherbot/internal/config"
	"github.com/m3rciful/weatherbot/internal/dialog"
	"github.com/m3rciful/weatherbot/internal/weather"
	"github.com/m3rciful/weatherbot/migrations"
)

func newApp(t *testing.T, listen string) *App {
	t.Helper()
	cfg := &config.Config{
		Config:  coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t", AdminID: 1}},
		Weather: weather.Config{APIKey: "k"},
		Health:  config.HealthConfig{Listen: listen},
	}
	cfg.Database = coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: filepath.Join(t.TempDir(), "bot.db")}
	require.NoError(t, cfg.Normalize())

	files, err := migrations.For(cfg.Database.Driver)
	require.NoError(t, err)
	require.NoError(t, coredatabase.RunMigrations(cfg.Database, files))
	db, err := coredatabase.Connect(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a, err := New(cfg, db)
	require.NoError(t, err)
	return a
}

func TestAppRegistersCommandsAndCallbacks(t *testing.T) {
	a := newApp(t, "")

	cmds := a.registry.Commands()
	for _, name := range []string{"/start", "/weather", "/favorites", "/help", "/stats"} {
		assert.Contains(t, cmds, name)
	}
	assert.True(t, cmds["/stats"].AdminOnly)
	assert.True(t, cmds["/stats"].Hidden)

	visible := a.registry.ListCommands(true)
	assert.Len(t, visible, 4)

	keys := a.registry.ListCallbacks()
	for _, action := range dialog.CallbackActions() {
		assert.Contains(t, keys, string(action))
	}
	assert.Nil(t, a.health)
}

func TestAppRunOptions(t *testing.T) {
	a := newApp(t, "127.0.0.1:0")
	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)

	assert.Same(t, a.registry, opts.Registry)
	assert.NotNil(t, opts.OnStart)
	assert.NotNil(t, opts.OnStop)
	// 5 commands, the callback route and 3 text routes
	assert.Len(t, opts.Routes, 9)

	var names []string
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	assert.Equal(t, []string{"recover", "logger", "dedup", "metrics", "per_user", "session"}, names)
	assert.NotNil(t, a.health)
	assert.NotNil(t, a.registry.TextFallback())
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}
