package middleware

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/weatherbot/core/config"
	"github.com/m3rciful/weatherbot/core/logger"
	tghelpers "github.com/m3rciful/weatherbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b
}

func messageCtx(b *tele.Bot, updateID int, userID int64, text string) tele.Context {
	return b.NewContext(tele.Update{
		ID: updateID,
		Message: &tele.Message{
			Text:   text,
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		},
	})
}

func callbackCtx(b *tele.Bot, updateID int, userID int64, data string) tele.Context {
	return b.NewContext(tele.Update{
		ID: updateID,
		Callback: &tele.Callback{
			Data:   data,
			Sender: &tele.User{ID: userID},
		},
	})
}

func TestRecoverMiddleware(t *testing.T) {
	b := offlineBot(t)
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(messageCtx(b, 1, 1, "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestDedup(t *testing.T) {
	b := offlineBot(t)
	d := NewDedup(time.Minute)
	var calls int
	h := d.Middleware(func(tele.Context) error { calls++; return nil })

	require.NoError(t, h(messageCtx(b, 10, 1, "a")))
	require.NoError(t, h(messageCtx(b, 10, 1, "a")))
	require.NoError(t, h(messageCtx(b, 11, 1, "b")))
	assert.Equal(t, 2, calls)

	now := time.Now()
	d.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.False(t, d.Seen(10), "expired ids are forgotten")
}

func TestPerUserSerializes(t *testing.T) {
	b := offlineBot(t)
	p := NewPerUser()
	var running, maxRunning atomic.Int32
	h := p.Middleware(func(tele.Context) error {
		n := running.Add(1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return nil
	})

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_ = h(messageCtx(b, id, 7, "x"))
		}(i + 1)
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxRunning.Load())
	assert.Zero(t, p.Len())
}

func TestRateLimit(t *testing.T) {
	b := offlineBot(t)
	var limited int
	opts := RateLimitFromConfig(coreconfig.RateLimitConfig{IntervalMS: 60_000, ExcludeUpdates: []string{" Callback "}},
		func(tele.Context) error { limited++; return nil })
	var calls int
	h := RateLimitMiddleware(opts)(func(tele.Context) error { calls++; return nil })

	require.NoError(t, h(messageCtx(b, 1, 1, "a")))
	require.NoError(t, h(messageCtx(b, 2, 1, "b")))
	require.NoError(t, h(messageCtx(b, 3, 2, "c")))
	require.NoError(t, h(callbackCtx(b, 4, 1, "\fback")))

	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, limited)
}

func TestAdminOnly(t *testing.T) {
	b := offlineBot(t)
	var rejected, allowed int
	mw := AdminOnlyMiddleware(AdminOptions{AdminID: 1, OnReject: func(tele.Context) error { rejected++; return nil }})
	h := mw(func(tele.Context) error { allowed++; return nil })

	require.NoError(t, h(messageCtx(b, 1, 1, "/stats")))
	require.NoError(t, h(messageCtx(b, 2, 2, "/stats")))
	assert.Equal(t, 1, allowed)
	assert.Equal(t, 1, rejected)

	closed := AdminOnlyMiddleware(AdminOptions{})(func(tele.Context) error { allowed++; return nil })
	require.NoError(t, closed(messageCtx(b, 3, 1, "/stats")))
	assert.Equal(t, 1, allowed)
}

func TestMetricsAndLogger(t *testing.T) {
	b := offlineBot(t)
	m := &Metrics{}
	h := LoggerMiddleware(m.Middleware(func(c tele.Context) error {
		tghelpers.RecordMessage(c, true)
		if c.Callback() != nil {
			return errors.New("fail")
		}
		return nil
	}))

	c := messageCtx(b, 5, 9, "hello")
	require.NoError(t, h(c))
	msgs, kb := GetCounters(c)
	assert.Equal(t, 1, msgs)
	assert.True(t, kb)

	ctx, ok := tghelpers.ContextFrom(c)
	require.True(t, ok)
	assert.Equal(t, "5:9:9", logger.RIDFrom(ctx))
	assert.Len(t, logger.TraceIDFrom(ctx), 36)
	assert.Equal(t, int64(9), logger.UserIDFrom(ctx))

	require.Error(t, h(callbackCtx(b, 6, 9, "\fback")))
	assert.Equal(t, MetricsSnapshot{Updates: 2, Callbacks: 1, Messages: 2, Failures: 1}, m.Snapshot())
}
