package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/weatherbot/core/logger"
	tg "github.com/m3rciful/weatherbot/core/telegram"
	"github.com/m3rciful/weatherbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/weatherbot/core/telegram/helpers"
	"github.com/m3rciful/weatherbot/core/telegram/middleware"
	"github.com/m3rciful/weatherbot/core/telegram/router"
	"github.com/m3rciful/weatherbot/core/telegram/sender"
	"github.com/m3rciful/weatherbot/core/telegram/state"
	"github.com/m3rciful/weatherbot/internal/config"
	"github.com/m3rciful/weatherbot/internal/dialog"
	"github.com/m3rciful/weatherbot/internal/favorites"
	"github.com/m3rciful/weatherbot/internal/health"
	"github.com/m3rciful/weatherbot/internal/weather"

	tele "gopkg.in/telebot.v4"
)

// App owns the weather bot's components for the lifetime of the process.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	sessions *state.MemoryManager
	orch     *dialog.Orchestrator
	registry *tg.Registry
	metrics  *middleware.Metrics
	health   *health.Server
}

// New builds the application on an open, migrated database.
func New(cfg *config.Config, db *sqlx.DB) (*App, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("bot: config and database are required")
	}
	client, err := weather.NewClient(cfg.Weather)
	if err != nil {
		return nil, fmt.Errorf("bot: weather client: %w", err)
	}
	store := favorites.NewStore(db)
	sessions := state.NewMemoryManager(cfg.Sessions.TTL)

	a := &App{
		cfg:      cfg,
		db:       db,
		sessions: sessions,
		orch:     dialog.New(client, store, sessions, dialog.Options{AdminID: cfg.Telegram.AdminID}),
		registry: tg.NewRegistry(),
		metrics:  &middleware.Metrics{},
	}
	if cfg.Health.Listen != "" {
		a.health = health.NewServer(health.Deps{DB: store, Sessions: sessions, Metrics: a.metrics})
	}
	if err := a.register(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) register() error {
	a.registry.SetAdmin(a.cfg.Telegram.AdminID)

	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Description: "Main menu", Handler: a.serve}},
		{"/weather", commands.Command{Description: "Weather for a city", Handler: a.serve}},
		{"/favorites", commands.Command{Description: "Your favorite cities", Handler: a.serve}},
		{"/help", commands.Command{Description: "How to use the bot", Handler: a.serve}},
		{"/stats", commands.Command{Description: "Bot statistics", Handler: a.serve, AdminOnly: true, Hidden: true}},
	}
	for _, c := range cmds {
		if err := a.registry.RegisterCommand(c.name, c.cmd); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	for _, action := range dialog.CallbackActions() {
		if err := a.registry.RegisterCallback(string(action), a.serve); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	return nil
}

// serve decodes the update, runs it through the orchestrator and delivers the reply.
func (a *App) serve(c tele.Context) error {
	ev, ok := Decode(c)
	if !ok {
		return tghelpers.Respond(c, textButtonGone)
	}
	return a.handle(c, ev)
}

// serveHelp answers non-admins who try admin commands.
func (a *App) serveHelp(c tele.Context) error {
	ev, ok := Decode(c)
	if !ok {
		return nil
	}
	ev.Action = dialog.ActionHelp
	return a.handle(c, ev)
}

func (a *App) handle(c tele.Context, ev dialog.Event) error {
	ctx := tghelpers.BuildContext(c)
	if sess, ok := state.FromContext(c); ok && logger.ShouldSampleDebug() {
		logger.Debug(ctx, "dialog", "event",
			slog.String("action", string(ev.Action)),
			slog.String("state", string(sess.State)),
			slog.Bool("from_callback", ev.FromCallback),
		)
	}
	return deliver(c, a.orch.Handle(ctx, ev))
}

func deliver(c tele.Context, reply dialog.Reply) error {
	var markup *tele.ReplyMarkup
	if reply.HasKeyboard() {
		markup = Markup(reply.Rows)
	}

	var err error
	if reply.Edit && c.Callback() != nil {
		err = tghelpers.EditOrSendMD(c, reply.Text, markup)
	} else {
		err = tghelpers.SendMD(c, reply.Text, markup)
	}
	if c.Callback() != nil {
		err = errors.Join(err, tghelpers.Respond(c, reply.Notice))
	}
	return err
}

// TelegramRunOptions wires routes, middlewares and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	fb := fallbacks{text: a.serve}
	a.registry.SetCallbackNotFound(fb.UnknownCallback())
	a.registry.SetTextFallback(fb.UnknownText())

	core := a.cfg.CoreConfig()
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		OnAdminReject: a.serveHelp,
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.sessions, a.registry, router.TextOptions{
		Conversation:    a.serve,
		UnknownText:     fb.UnknownText(),
		UnknownDocument: fb.UnknownDocument(),
	})...)

	mws := tg.DefaultMiddlewares(core, tg.MiddlewareDeps{
		OnLimited: fb.RateLimited(),
		Metrics:   a.metrics,
		Extra:     []tg.Middleware{{Name: "session", Use: state.WithSession(a.sessions)}},
	})

	return tg.RunOptions{
		Config:            core,
		Registry:          a.registry,
		DispatcherOptions: sender.OptionsFromConfig(core.Sender),
		Middlewares:       mws,
		Routes:            routes,
		OnStart:           a.onStart,
		OnStop:            a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, _ tg.Runtime) error {
	a.sessions.StartJanitor(ctx, a.cfg.Sessions.SweepInterval)
	if a.health != nil {
		a.health.Start(a.cfg.Health.Listen)
	}
	logger.Info(ctx, "app", "start",
		slog.Duration("session_ttl", a.sessions.TTL()),
		slog.Bool("health", a.health != nil),
	)
	return nil
}

func (a *App) onStop(ctx context.Context, rt tg.Runtime) error {
	var errs []error
	if a.health != nil {
		errs = append(errs, a.health.Shutdown(ctx))
	}
	if rt.Dispatcher != nil {
		st := rt.Dispatcher.Stats()
		logger.Info(ctx, "tg.sender", "stats",
			slog.Uint64("sent", st.Sent),
			slog.Uint64("failed", st.Failed),
			slog.Uint64("retried", st.Retried),
		)
	}
	start := time.Now()
	errs = append(errs, a.db.Close())
	logger.Info(ctx, "db", "close", slog.Duration("duration", logger.Took(start)))
	return errors.Join(errs...)
}
