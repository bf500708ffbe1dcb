// Package sched runs engines on their configured cadence. It replaces the
// external scheduler assumed by one-shot invocation: a minute ticker checks
// each engine's cron spec against its last run time.
package sched

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/cobblehill/lamplight/internal/engine"
)

// Invoker is the engine surface the runner drives.
type Invoker interface {
	Name() string
	RunOnce(ctx context.Context) (engine.Result, error)
}

// Job pairs an engine with its cadence. Spec accepts "@hourly", "@daily",
// or a standard 5-field cron expression.
type Job struct {
	Spec   string
	Engine Invoker
}

// Runner invokes each job when it comes due. Runs within one tick are
// sequential; the engines share stores and there is no intra-run
// parallelism to begin with.
type Runner struct {
	jobs     []Job
	interval time.Duration
	clock    engine.Clock
	metrics  *Metrics
	log      *slog.Logger

	lastRun map[string]time.Time
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithInterval overrides the tick interval (default one minute).
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) { r.interval = d }
}

// WithClock overrides the wall clock (tests).
func WithClock(c engine.Clock) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m *Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger overrides the logger.
func WithLogger(log *slog.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// NewRunner creates a runner over the given jobs.
func NewRunner(jobs []Job, opts ...RunnerOption) *Runner {
	r := &Runner{
		jobs:     jobs,
		interval: time.Minute,
		clock:    engine.SystemClock(),
		log:      slog.Default(),
		lastRun:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start blocks, ticking until the context is cancelled. Due jobs run
// immediately on startup.
func (r *Runner) Start(ctx context.Context) error {
	r.log.Info("scheduler starting", "jobs", len(r.jobs), "interval", r.interval.String())

	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Info("scheduler stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick runs every due job once.
func (r *Runner) tick(ctx context.Context) {
	now := r.clock.Now()
	for _, job := range r.jobs {
		name := job.Engine.Name()
		var last *time.Time
		if t, ok := r.lastRun[name]; ok {
			last = &t
		}
		if !isDue(job.Spec, last, now) {
			continue
		}
		r.lastRun[name] = now

		res, err := job.Engine.RunOnce(ctx)
		if err != nil {
			r.log.Error("engine run failed", "engine", name, "error", err)
			if r.metrics != nil {
				r.metrics.ObserveFailure(name)
			}
			continue
		}
		if r.metrics != nil {
			r.metrics.ObserveRun(name, res)
		}
	}
}

// isDue determines if a job with cronSpec should run now based on its last
// run time. Supports "@daily", "@hourly", and 5-field cron expressions; an
// unparsable spec falls back to @daily.
func isDue(cronSpec string, last *time.Time, now time.Time) bool {
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
