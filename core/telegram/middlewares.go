package telegram

import (
	coreconfig "github.com/m3rciful/weatherbot/core/config"
	"github.com/m3rciful/weatherbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MiddlewareDeps carries the stateful pieces of the default chain so callers
// can inspect them (metrics) or share them.
type MiddlewareDeps struct {
	OnLimited tele.HandlerFunc
	Metrics   *middleware.Metrics
	Dedup     *middleware.Dedup
	PerUser   *middleware.PerUser
	// Extra runs innermost, after per-user serialization.
	Extra []Middleware
}

// DefaultMiddlewares builds the shared middleware chain for bots:
// recover, logger, dedup, rate limit, metrics, per-user serialization, extras.
func DefaultMiddlewares(cfg *coreconfig.Config, deps MiddlewareDeps) []Middleware {
	if deps.Dedup == nil {
		deps.Dedup = middleware.NewDedup(0)
	}
	if deps.Metrics == nil {
		deps.Metrics = &middleware.Metrics{}
	}
	if deps.PerUser == nil {
		deps.PerUser = middleware.NewPerUser()
	}

	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "dedup", Use: deps.Dedup.Middleware},
	}
	if cfg != nil && cfg.RateLimit.IntervalMS > 0 {
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use:  middleware.RateLimitMiddleware(middleware.RateLimitFromConfig(cfg.RateLimit, deps.OnLimited)),
		})
	}
	mws = append(mws,
		Middleware{Name: "metrics", Use: deps.Metrics.Middleware},
		Middleware{Name: "per_user", Use: deps.PerUser.Middleware},
	)
	return append(mws, deps.Extra...)
}
