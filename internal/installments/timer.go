package installments

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Timer drives ProcessScheduled: once at start, then daily at a fixed hour.
// The monthly watermark, not the timer, guarantees a single run per month,
// so missed or repeated ticks are harmless.
type Timer struct {
	cron      *cron.Cron
	scheduler *Scheduler
	logger    zerolog.Logger
	ctx       context.Context
}

// NewTimer schedules the daily check at hour (0-23) in loc.
func NewTimer(s *Scheduler, hour int, loc *time.Location, logger zerolog.Logger) (*Timer, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("invalid process hour %d", hour)
	}
	if loc == nil {
		loc = time.Local
	}

	t := &Timer{
		scheduler: s,
		logger:    logger,
		ctx:       context.Background(),
	}
	t.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.PrintfLogger(&t.logger))),
	)

	if _, err := t.cron.AddFunc(fmt.Sprintf("0 %d * * *", hour), t.Tick); err != nil {
		return nil, fmt.Errorf("failed to add cron job: %w", err)
	}
	return t, nil
}

// Start runs one check immediately and then starts the daily schedule.
func (t *Timer) Start(ctx context.Context) {
	t.ctx = ctx
	t.Tick()
	t.cron.Start()
}

// Stop stops the schedule and returns a context done when running jobs end.
func (t *Timer) Stop() context.Context {
	return t.cron.Stop()
}

// Tick runs one background check. Failures are logged and never stop the
// schedule.
func (t *Timer) Tick() {
	result, err := t.scheduler.ProcessScheduled(t.ctx, TriggerTimer)
	if err != nil {
		t.logger.Error().Err(err).Msg("Daily installment check failed")
		return
	}
	if !result.Processed {
		t.logger.Debug().Str("reason", string(result.Reason)).Msg("Daily installment check skipped")
		return
	}
	t.logger.Info().
		Int("processed", result.ProcessedCount).
		Int("completed", result.CompletedGroups).
		Msg("Daily installment check done")
}
