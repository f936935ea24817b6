package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tgmiddleware "github.com/m3rciful/weatherbot/core/telegram/middleware"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type sessionCount int

func (n sessionCount) Len() int { return int(n) }

func get(t *testing.T, s *Server) (*httptest.ResponseRecorder, Status) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return rec, st
}

func TestHealthOK(t *testing.T) {
	s := NewServer(Deps{
		DB:       pingFunc(func(context.Context) error { return nil }),
		Sessions: sessionCount(3),
		Metrics:  &tgmiddleware.Metrics{},
	})
	rec, st := get(t, s)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", st.Status)
	assert.Equal(t, "up", st.Database)
	assert.Equal(t, 3, st.Sessions)
	assert.NotEmpty(t, st.Version)
	require.NotNil(t, st.Updates)
}

func TestHealthDatabaseDown(t *testing.T) {
	s := NewServer(Deps{DB: pingFunc(func(context.Context) error { return errors.New("refused") })})
	rec, st := get(t, s)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", st.Status)
	assert.Equal(t, "down", st.Database)
	assert.Nil(t, st.Updates)
}

func TestHealthWithoutDeps(t *testing.T) {
	rec, st := get(t, NewServer(Deps{}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "skipped", st.Database)
}

func TestUnknownPath(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(Deps{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
