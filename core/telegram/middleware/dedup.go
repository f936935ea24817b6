package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/weatherbot/core/logger"
	tghelpers "github.com/m3rciful/weatherbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Dedup remembers recently seen update ids.
type Dedup struct {
	mu     sync.Mutex
	seen   map[int]time.Time
	keep   time.Duration
	lastGC time.Time
	now    func() time.Time
}

// NewDedup keeps update ids for the given window (default 1m).
func NewDedup(keep time.Duration) *Dedup {
	if keep <= 0 {
		keep = time.Minute
	}
	return &Dedup{seen: make(map[int]time.Time), keep: keep, now: time.Now}
}

// Seen records id and reports whether it was already recorded inside the window.
func (d *Dedup) Seen(id int) bool {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if now.Sub(d.lastGC) > d.keep {
		for k, ts := range d.seen {
			if now.Sub(ts) > d.keep {
				delete(d.seen, k)
			}
		}
		d.lastGC = now
	}
	if ts, ok := d.seen[id]; ok && now.Sub(ts) <= d.keep {
		return true
	}
	d.seen[id] = now
	return false
}

// Middleware drops updates Telegram delivers more than once.
func (d *Dedup) Middleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		id := c.Update().ID
		if id != 0 && d.Seen(id) {
			logger.Debug(tghelpers.BuildContext(c), "tg", "update.duplicate",
				slog.String("status", "skip"),
			)
			return nil
		}
		return next(c)
	}
}
