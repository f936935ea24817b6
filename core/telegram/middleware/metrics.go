package middleware

import (
	"sync/atomic"

	tghelpers "github.com/m3rciful/weatherbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Metrics counts handled updates and produced replies.
type Metrics struct {
	updates   atomic.Uint64
	callbacks atomic.Uint64
	messages  atomic.Uint64
	failures  atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Updates   uint64 `json:"updates"`
	Callbacks uint64 `json:"callbacks"`
	Messages  uint64 `json:"messages"`
	Failures  uint64 `json:"failures"`
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Updates:   m.updates.Load(),
		Callbacks: m.callbacks.Load(),
		Messages:  m.messages.Load(),
		Failures:  m.failures.Load(),
	}
}

// Middleware resets the per-update counters and folds them into the totals.
func (m *Metrics) Middleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		tghelpers.ResetCounters(c)
		m.updates.Add(1)
		if c.Callback() != nil {
			m.callbacks.Add(1)
		}
		err := next(c)
		msgs, _ := tghelpers.Counters(c)
		m.messages.Add(uint64(msgs))
		if err != nil {
			m.failures.Add(1)
		}
		return err
	}
}

// GetCounters reads message count and keyboard presence flags from context.
func GetCounters(c tele.Context) (int, bool) {
	return tghelpers.Counters(c)
}
