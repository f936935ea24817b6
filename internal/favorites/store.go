// Package favorites persists the cities each user bookmarked.
package favorites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/weatherbot/core/logger"
)

// ErrNotFound is returned when a bookmark does not exist for the user.
var ErrNotFound = errors.New("favorites: not found")

// Favorite is a single bookmarked city.
type Favorite struct {
	ID       int64     `db:"id"`
	UserID   int64     `db:"user_id"`
	CityName string    `db:"city_name"`
	AddedAt  time.Time `db:"added_date"`
}

// Normalize canonicalizes a city name for storage and lookups.
func Normalize(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// Store is the SQL backed favorites repository. Every write is committed
// before the call returns.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open database whose schema is already migrated.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Add bookmarks city for userID. It reports false when the bookmark already exists.
func (s *Store) Add(ctx context.Context, userID int64, city string) (bool, error) {
	city = Normalize(city)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO favorites (user_id, city_name) VALUES (?, ?)
		 ON CONFLICT (user_id, city_name) DO NOTHING`), userID, city)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return s.logAdd(ctx, userID, city, false), nil
		}
		return false, fmt.Errorf("favorites add: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("favorites add: %w", err)
	}
	return s.logAdd(ctx, userID, city, n > 0), nil
}

func (s *Store) logAdd(ctx context.Context, userID int64, city string, inserted bool) bool {
	status := "ok"
	if !inserted {
		status = "duplicate"
	}
	logger.Debug(ctx, "favorites", "favorite.add",
		slog.String("status", status),
		slog.Int64("user_id", userID),
		slog.String("city", city),
	)
	return inserted
}

// Remove deletes the bookmark and reports whether a row was deleted.
func (s *Store) Remove(ctx context.Context, userID int64, city string) (bool, error) {
	city = Normalize(city)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`DELETE FROM favorites WHERE user_id = ? AND city_name = ?`), userID, city)
	if err != nil {
		return false, fmt.Errorf("favorites remove: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("favorites remove: %w", err)
	}
	logger.Debug(ctx, "favorites", "favorite.remove",
		slog.String("status", logger.Status(nil)),
		slog.Int64("user_id", userID),
		slog.String("city", city),
		slog.Int64("count", n),
	)
	return n > 0, nil
}

// Entries returns the user's bookmarks, most recently added first.
func (s *Store) Entries(ctx context.Context, userID int64) ([]Favorite, error) {
	var out []Favorite
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(
		`SELECT id, user_id, city_name, added_date FROM favorites
		 WHERE user_id = ? ORDER BY added_date DESC, id DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("favorites list: %w", err)
	}
	return out, nil
}

// List returns the bookmarked city names, most recently added first.
func (s *Store) List(ctx context.Context, userID int64) ([]string, error) {
	entries, err := s.Entries(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.CityName
	}
	return names, nil
}

// Get returns one bookmark owned by userID.
func (s *Store) Get(ctx context.Context, userID, id int64) (Favorite, error) {
	var f Favorite
	err := s.db.GetContext(ctx, &f, s.db.Rebind(
		`SELECT id, user_id, city_name, added_date FROM favorites
		 WHERE id = ? AND user_id = ?`), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Favorite{}, ErrNotFound
	}
	if err != nil {
		return Favorite{}, fmt.Errorf("favorites get: %w", err)
	}
	return f, nil
}

// IsFavorite reports whether userID bookmarked city.
func (s *Store) IsFavorite(ctx context.Context, userID int64, city string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, s.db.Rebind(
		`SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = ? AND city_name = ?)`),
		userID, Normalize(city))
	if err != nil {
		return false, fmt.Errorf("favorites lookup: %w", err)
	}
	return exists, nil
}

// Count returns the number of stored bookmarks across all users.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM favorites`); err != nil {
		return 0, fmt.Errorf("favorites count: %w", err)
	}
	return n, nil
}

// Ping checks that the underlying database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
