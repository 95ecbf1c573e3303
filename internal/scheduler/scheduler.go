package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Ticker is what the scheduler drives: the idempotent tick entry points of
// the dispatch engine.
type Ticker interface {
	OnDispatchTick(ctx context.Context) error
	OnDigestTick(ctx context.Context) error
	OnRetentionTick(ctx context.Context) error
	OnHealthTick(ctx context.Context) error
}

// Config holds the cron specs for the daily tasks. The dispatch tick is
// always every minute: the calendar's exact-minute gate turns off-slot ticks
// into no-ops, so firing at minute granularity tolerates scheduler jitter.
type Config struct {
	DigestCron    string
	RetentionCron string
}

// Scheduler runs the periodic ticks via cron in the bot's time zone.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// New registers all tick jobs. SkipIfStillRunning guarantees ticks of the
// same kind never overlap; a tick that outlives its period simply finishes
// and the next occurrence is dropped.
func New(t Ticker, loc *time.Location, cfg Config, log *zap.Logger) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	jobs := []struct {
		spec string
		name string
		fn   func(context.Context) error
	}{
		{"* * * * *", "dispatch", t.OnDispatchTick},
		{cfg.DigestCron, "digest", t.OnDigestTick},
		{cfg.RetentionCron, "retention", t.OnRetentionTick},
		{"0 * * * *", "health", t.OnHealthTick},
	}
	for _, job := range jobs {
		job := job
		if _, err := c.AddFunc(job.spec, func() {
			if err := job.fn(context.Background()); err != nil {
				log.Error("scheduled task failed", zap.String("task", job.name), zap.Error(err))
			}
		}); err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", job.name, job.spec, err)
		}
	}

	return &Scheduler{cron: c, log: log}, nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.log.Info("scheduler starting")
	s.cron.Start()
}

// Stop halts scheduling and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}
