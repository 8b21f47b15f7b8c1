// Package scheduler runs the daily update on a cron schedule inside the server.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

// DailyRunner is the part of the pipeline service the scheduler needs.
type DailyRunner interface {
	RunDaily(ctx context.Context, opts model.RunOptions) (model.RunSummary, error)
}

// Runner wraps a cron instance whose jobs share one base context.
// Specs take a leading seconds field.
type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

// New creates a Runner. A job still running when its next tick arrives is skipped.
func New(baseCtx context.Context, logger *zap.Logger) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	return &Runner{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// Add schedules job under spec.
func (r *Runner) Add(spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		job(r.baseCtx)
	})
}

// Start runs the scheduler in its own goroutine.
func (r *Runner) Start() {
	r.logger.Info("cron started", zap.Int("entries", len(r.cron.Entries())))
	r.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("cron stopped")
}

// DailyJob returns a job that runs the daily update with a retention window of
// days (zero means the configured default) and logs the outcome.
func DailyJob(p DailyRunner, days int, logger *zap.Logger) func(context.Context) {
	return func(ctx context.Context) {
		summary, err := p.RunDaily(ctx, model.RunOptions{RetentionDays: days, Trigger: model.TriggerScheduler})
		if err != nil {
			logger.Warn("cron daily update rejected", zap.Error(err))
			return
		}
		if !summary.Success {
			logger.Warn("cron daily update failed", zap.String("run_id", summary.RunID))
			return
		}
		logger.Info("cron daily update ok", zap.String("run_id", summary.RunID))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
