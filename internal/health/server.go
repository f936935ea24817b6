// Package health serves a small HTTP liveness endpoint next to the bot.
package health

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/m3rciful/weatherbot/core/buildinfo"
	"github.com/m3rciful/weatherbot/core/logger"
	tgmiddleware "github.com/m3rciful/weatherbot/core/telegram/middleware"
)

// Pinger checks the storage backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter reports the number of live conversation sessions.
type SessionCounter interface {
	Len() int
}

// Deps are the components the health report inspects. Nil fields are skipped.
type Deps struct {
	DB       Pinger
	Sessions SessionCounter
	Metrics  *tgmiddleware.Metrics
}

// Status is the JSON body of GET /healthz.
type Status struct {
	Status   string                        `json:"status"`
	Version  string                        `json:"version"`
	Commit   string                        `json:"commit"`
	Database string                        `json:"database"`
	Sessions int                           `json:"sessions"`
	Uptime   string                        `json:"uptime"`
	Updates  *tgmiddleware.MetricsSnapshot `json:"updates,omitempty"`
}

const pingTimeout = 2 * time.Second

// Server wraps an echo instance exposing /healthz.
type Server struct {
	echo    *echo.Echo
	deps    Deps
	started time.Time
}

// NewServer builds the echo app; it does not listen until Start.
func NewServer(deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, deps: deps, started: time.Now()}
	e.GET("/healthz", s.handleHealth)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) handleHealth(c echo.Context) error {
	st := Status{
		Status:   "ok",
		Version:  buildinfo.Version,
		Commit:   buildinfo.Commit,
		Database: "skipped",
		Uptime:   time.Since(s.started).Round(time.Second).String(),
	}
	code := http.StatusOK

	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
		err := s.deps.DB.Ping(ctx)
		cancel()
		if err != nil {
			st.Status, st.Database = "degraded", "down"
			code = http.StatusServiceUnavailable
			logger.Warn(ctx, "health", "healthz",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		} else {
			st.Database = "up"
		}
	}
	if s.deps.Sessions != nil {
		st.Sessions = s.deps.Sessions.Len()
	}
	if s.deps.Metrics != nil {
		snap := s.deps.Metrics.Snapshot()
		st.Updates = &snap
	}
	return c.JSON(code, st)
}

// Start listens on addr in the background. Listener errors other than a
// clean shutdown are logged.
func (s *Server) Start(addr string) {
	go func() {
		err := s.echo.Start(addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(logger.Background(), "health", "listen",
				slog.String("status", "fail"),
				slog.String("listen", addr),
				slog.String("err", err.Error()),
			)
		}
	}()
	logger.Info(logger.Background(), "health", "listen",
		slog.String("status", "ok"),
		slog.String("listen", addr),
	)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
