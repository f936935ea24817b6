package bootstrap

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/weatherbot/core/config"
	coredatabase "github.com/m3rciful/weatherbot/core/database"
	"github.com/m3rciful/weatherbot/migrations"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunMigratesAndConnects(t *testing.T) {
	dbCfg := coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: filepath.Join(t.TempDir(), "boot.db")}
	require.NoError(t, dbCfg.Normalize())
	files, err := migrations.For(dbCfg.Driver)
	require.NoError(t, err)

	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   dbCfg,
		Migrations: files,
		LoggerInit: noLogger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.DB.Close() })

	var n int
	require.NoError(t, res.DB.Get(&n, `SELECT COUNT(*) FROM favorites`))
	assert.Zero(t, n)
}

func TestRunStopsOnMigrationError(t *testing.T) {
	connected := false
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		Migrations: fs.FS(nil),
		LoggerInit: noLogger,
		Migrate:    func(coredatabase.Config, fs.FS) error { return errors.New("dirty") },
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, nil
		},
	})
	// a nil fs.FS interface skips migrations entirely
	require.NoError(t, err)
	assert.True(t, connected)

	connected = false
	_, err = Run(Options{
		Config:     &coreconfig.Config{},
		Migrations: migrationsStub{},
		LoggerInit: noLogger,
		Migrate:    func(coredatabase.Config, fs.FS) error { return errors.New("dirty") },
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, nil
		},
	})
	require.ErrorContains(t, err, "dirty")
	assert.False(t, connected)
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(Options{})
	assert.Error(t, err)
}

type migrationsStub struct{}

func (migrationsStub) Open(string) (fs.File, error) { return nil, fs.ErrNotExist }
