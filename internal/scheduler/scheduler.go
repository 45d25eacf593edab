// Package scheduler runs the deposit reconciliation sweep on a cron cadence.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/services"
)

// Sweeper reconciles stale PENDING deposits.
type Sweeper interface {
	Sweep(ctx context.Context) (*services.SweepResult, error)
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	schedule string

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler running sweeper on schedule. A run still in
// progress when the next tick fires makes that tick a no-op.
func New(sweeper Sweeper, schedule string) *Scheduler {
	cl := cronLogger{}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return &Scheduler{cron: c, sweeper: sweeper, schedule: schedule}
}

// Start registers the sweep and starts the cron scheduler. Sweeps run with a
// context derived from ctx that Stop cancels.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if _, err := s.cron.AddFunc(s.schedule, s.runSweep); err != nil {
		s.cancel()
		return err
	}
	logger.Log.Infow("scheduled reconciliation sweep", "schedule", s.schedule)

	s.cron.Start()
	return nil
}

// Stop cancels a running sweep and stops the scheduler. The returned context
// is done once the running job has returned.
func (s *Scheduler) Stop() context.Context {
	if s.cancel != nil {
		s.cancel()
	}
	return s.cron.Stop()
}

// runSweep leaves the summary to the sweeper, which logs it per run.
func (s *Scheduler) runSweep() {
	if _, err := s.sweeper.Sweep(s.ctx); err != nil {
		logger.Log.Errorw("reconciliation sweep failed", "error", err)
	}
}

// cronLogger routes cron's own logs to the service logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Log.Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Log.Errorw(msg, append(keysAndValues, "error", err)...)
}
