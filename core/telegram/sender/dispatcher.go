// Package sender runs outbound Telegram calls on a small worker pool with retries.
// Jobs for one chat always land on the same worker, so replies keep their order.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	coreconfig "github.com/m3rciful/weatherbot/core/config"
	"github.com/m3rciful/weatherbot/core/logger"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

// OptionsFromConfig maps the sender config section to dispatcher options.
func OptionsFromConfig(cfg coreconfig.SenderConfig) Options {
	return Options{
		QueueSize:    cfg.QueueSize,
		Workers:      cfg.Workers,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: time.Duration(cfg.RetryBackoffMS) * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Sent    uint64
	Failed  uint64
	Retried uint64
	Queued  int
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
type Dispatcher struct {
	opts    Options
	// one queue per worker, picked by chat id
	shards  []chan job
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	sent    atomic.Uint64
	failed  atomic.Uint64
	retried atomic.Uint64
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewDispatcher starts a dispatcher; zero options get defaults.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		opts:   opts,
		shards: make([]chan job, opts.Workers),
		sleep:  sleepCtx,
	}
	perShard := (opts.QueueSize + opts.Workers - 1) / opts.Workers
	d.wg.Add(opts.Workers)
	for i := range d.shards {
		d.shards[i] = make(chan job, perShard)
		go d.worker(d.shards[i])
	}
	return d
}

// shard maps the chat carried by ctx to a worker queue.
func (d *Dispatcher) shard(ctx context.Context) chan job {
	chatID := logger.ChatIDFrom(ctx)
	return d.shards[uint64(chatID)%uint64(len(d.shards))]
}

// Enqueue schedules run for asynchronous execution.
// run must be safe to repeat when retries are enabled.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.shard(ctx) <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stats returns current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Sent:    d.sent.Load(),
		Failed:  d.failed.Load(),
		Retried: d.retried.Load(),
		Queued:  d.queued(),
	}
}

func (d *Dispatcher) queued() int {
	n := 0
	for _, ch := range d.shards {
		n += len(ch)
	}
	return n
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.failed.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.shards {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker(jobs <-chan job) {
	defer d.wg.Done()
	for j := range jobs {
		d.handleJob(j)
	}
}

func (d *Dispatcher) handleJob(j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	// the update context may already be gone once the handler returned
	deadlineCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = j.run()
		if lastErr == nil {
			d.sent.Add(1)
			attrs := append(sendLogAttrs(j), slog.Duration("duration", logger.Took(start)))
			if attempt > 1 {
				attrs = append(attrs, slog.Int("attempts", attempt))
				logger.Info(ctx, "tg.sender", "send.retry.success", attrs...)
				return
			}
			logger.Debug(ctx, "tg.sender", "send.success", attrs...)
			return
		}
		if attempt == attempts {
			break
		}
		delay, retry := retryDelay(lastErr, attempt, d.opts.RetryBackoff)
		if !retry {
			break
		}
		d.retried.Add(1)
		logger.Debug(ctx, "tg.sender", "send.retry.backoff",
			append(sendLogAttrs(j),
				slog.String("status", "retry"),
				slog.Int("attempts", attempt),
				slog.Duration("backoff", delay),
			)...,
		)
		if err := d.sleep(deadlineCtx, delay); err != nil {
			lastErr = errors.Join(lastErr, err)
			break
		}
	}

	d.failed.Add(1)
	logger.Error(ctx, "tg.sender", "send.fail",
		append(sendLogAttrs(j),
			slog.String("status", "fail"),
			slog.String("err", SanitizeError(lastErr)),
			slog.String("err_code", classifyError(lastErr)),
			slog.Duration("duration", logger.Took(start)),
		)...,
	)
}

func sendLogAttrs(j job) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return attrs
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
