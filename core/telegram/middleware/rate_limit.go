package middleware

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	coreconfig "github.com/m3rciful/weatherbot/core/config"
	"github.com/m3rciful/weatherbot/core/logger"
	tghelpers "github.com/m3rciful/weatherbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// RateLimitFromConfig builds options from the rate_limit section.
func RateLimitFromConfig(cfg coreconfig.RateLimitConfig, onLimited tele.HandlerFunc) RateLimitOptions {
	ex := make(map[string]struct{}, len(cfg.ExcludeUpdates))
	for _, t := range cfg.ExcludeUpdates {
		ex[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return RateLimitOptions{
		Interval:  time.Duration(cfg.IntervalMS) * time.Millisecond,
		Exclude:   ex,
		OnLimited: onLimited,
	}
}

// UpdateKind names the update type as used by rate limit exclusions.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return coreconfig.UpdateCallback
	case upd.Message != nil:
		return coreconfig.UpdateMessage
	case upd.Query != nil:
		return coreconfig.UpdateInlineQuery
	}
	return "other"
}

// RateLimitMiddleware enforces a minimum interval between updates from the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	var (
		mu       sync.Mutex
		lastSeen = make(map[int64]time.Time)
		lastGC   time.Time
	)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[UpdateKind(c.Update())]; skip {
				return next(c)
			}

			now := time.Now()
			mu.Lock()
			if now.Sub(lastGC) > time.Minute {
				for id, ts := range lastSeen {
					if now.Sub(ts) > opts.Interval {
						delete(lastSeen, id)
					}
				}
				lastGC = now
			}
			last, ok := lastSeen[user.ID]
			limited := ok && now.Sub(last) < opts.Interval
			if !limited {
				lastSeen[user.ID] = now
			}
			mu.Unlock()

			if !limited {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("status", "rate_limited"),
			)
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}
