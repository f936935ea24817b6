package favorites

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/weatherbot/core/database"
	"github.com/m3rciful/weatherbot/migrations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := database.Config{Driver: database.DriverSQLite, Path: filepath.Join(t.TempDir(), "favorites.db")}
	require.NoError(t, cfg.Normalize())

	files, err := migrations.For(cfg.Driver)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(cfg, files))

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func TestAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.Add(ctx, 1, "kyiv")
	require.NoError(t, err)
	second, err := s.Add(ctx, 1, "kyiv")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)

	list, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"kyiv"}, list)
}

func TestAddNormalizesCase(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ok, err := s.Add(ctx, 1, "  Lviv ")
	require.NoError(t, err)
	require.True(t, ok)

	dup, err := s.Add(ctx, 1, "LVIV")
	require.NoError(t, err)
	assert.False(t, dup)

	fav, err := s.IsFavorite(ctx, 1, "lViV")
	require.NoError(t, err)
	assert.True(t, fav)
}

func TestRemoveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Add(ctx, 7, "Lviv")
	require.NoError(t, err)

	removed, err := s.Remove(ctx, 7, "lviv")
	require.NoError(t, err)
	assert.True(t, removed)

	fav, err := s.IsFavorite(ctx, 7, "Lviv")
	require.NoError(t, err)
	assert.False(t, fav)

	again, err := s.Remove(ctx, 7, "lviv")
	require.NoError(t, err)
	assert.False(t, again)
}

func TestListIsScopedAndMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, city := range []string{"Kyiv", "Odesa", "Kharkiv"} {
		_, err := s.Add(ctx, 1, city)
		require.NoError(t, err)
	}
	_, err := s.Add(ctx, 2, "Dnipro")
	require.NoError(t, err)

	list, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"kharkiv", "odesa", "kyiv"}, list)

	other, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"dnipro"}, other)

	empty, err := s.List(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)

	total, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
}

func TestGetChecksOwner(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Add(ctx, 1, "Kyiv")
	require.NoError(t, err)
	entries, err := s.Entries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got, err := s.Get(ctx, 1, entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "kyiv", got.CityName)
	assert.False(t, got.AddedAt.IsZero())

	_, err = s.Get(ctx, 2, entries[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentAddKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Add(ctx, 5, "Poltava")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)
	list, err := s.List(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"poltava"}, list)
}
