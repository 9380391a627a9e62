package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/campus-feed-etl-service/internal/observability"
	"github.com/robfig/cron/v3"
)

// Scheduler triggers the runner's jobs on cron schedules. Overlapping runs of
// the same job are skipped; different jobs may run concurrently.
type Scheduler struct {
	cron    *cron.Cron
	runner  *Runner
	metrics *observability.Metrics
	logger  *slog.Logger
	ctx     context.Context
}

// NewScheduler registers every runner job that has a schedule. schedules maps
// job name to a standard five-field cron spec evaluated in loc.
func NewScheduler(runner *Runner, schedules map[string]string, loc *time.Location, metrics *observability.Metrics, logger *slog.Logger) (*Scheduler, error) {
	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner:  runner,
		metrics: metrics,
		logger:  logger,
		ctx:     context.Background(),
	}

	for _, name := range runner.Jobs() {
		spec := schedules[name]
		if spec == "" {
			logger.Info("job has no schedule", "job", name)
			continue
		}
		if _, err := s.cron.AddFunc(spec, s.trigger(name)); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", name, spec, err)
		}
		logger.Info("job scheduled", "job", name, "schedule", spec)
	}
	return s, nil
}

func (s *Scheduler) trigger(name string) func() {
	return func() {
		// name comes from runner.Jobs, so it is always registered.
		_, _ = s.runner.RunJob(s.ctx, name)
	}
}

// Run starts the schedule and blocks until ctx is cancelled, then waits for
// in-flight cycles to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.metrics.SchedulerRunning.Set(1)
	s.logger.Info("scheduler started", "entries", len(s.cron.Entries()))

	<-ctx.Done()

	s.logger.Info("scheduler stopping", "reason", ctx.Err())
	<-s.cron.Stop().Done()
	s.metrics.SchedulerRunning.Set(0)
}

// cronLogger adapts slog to cron's logging interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
