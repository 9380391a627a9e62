package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
	"github.com/couchcryptid/campus-feed-etl-service/internal/observability"
	"github.com/google/uuid"
)

// Runner owns the registered jobs and executes single cycles of them. It is
// the one place a cycle's outcome is classified, logged, and counted.
type Runner struct {
	jobs     map[string]Job
	notifier Notifier
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool

	// inflight holds one flag per job name; every trigger path goes through Run.
	inflight sync.Map
}

// NewRunner registers jobs by name. A nil notifier disables change
// notifications. Registering two jobs with the same name panics.
func NewRunner(timeout time.Duration, notifier Notifier, logger *slog.Logger, metrics *observability.Metrics, jobs ...Job) *Runner {
	r := &Runner{
		jobs:     make(map[string]Job, len(jobs)),
		notifier: notifier,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
	}
	for _, j := range jobs {
		if _, dup := r.jobs[j.Name()]; dup {
			panic("pipeline: duplicate job " + j.Name())
		}
		r.jobs[j.Name()] = j
	}
	return r
}

// Jobs returns the registered job names in sorted order.
func (r *Runner) Jobs() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckReadiness returns nil once any cycle has written to the store.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no ingestion cycle has written yet")
	}
	return nil
}

// RunJob runs one cycle of the named job. The only error it returns is
// domain.ErrUnknownJob; cycle failures are reported in the RunResult.
func (r *Runner) RunJob(ctx context.Context, name string) (domain.RunResult, error) {
	job, ok := r.jobs[name]
	if !ok {
		return domain.RunResult{}, fmt.Errorf("%w: %q", domain.ErrUnknownJob, name)
	}
	return r.Run(ctx, job), nil
}

// RunAll runs one cycle of every registered job, one after another.
func (r *Runner) RunAll(ctx context.Context) []domain.RunResult {
	results := make([]domain.RunResult, 0, len(r.jobs))
	for _, name := range r.Jobs() {
		if ctx.Err() != nil {
			break
		}
		results = append(results, r.Run(ctx, r.jobs[name]))
	}
	return results
}

// Run executes a single cycle of job under the runner's timeout. A cycle of a
// job that is still running elsewhere is not started and reports skipped.
func (r *Runner) Run(ctx context.Context, job Job) domain.RunResult {
	result := domain.RunResult{
		RunID:     uuid.NewString(),
		Job:       job.Name(),
		StartedAt: domain.Now(),
	}

	v, _ := r.inflight.LoadOrStore(job.Name(), new(atomic.Bool))
	running := v.(*atomic.Bool)
	if !running.CompareAndSwap(false, true) {
		result.FinishedAt = result.StartedAt
		result.Outcome = domain.OutcomeSkipped
		result.Err = domain.ErrAlreadyRunning
		result.Error = domain.ErrAlreadyRunning.Error()
		r.metrics.RunsTotal.WithLabelValues(result.Job, string(result.Outcome)).Inc()
		r.logger.Info("cycle skipped, previous cycle still running", "job", result.Job, "run_id", result.RunID)
		return result
	}
	defer running.Store(false)

	cycleCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	report, err := execute(cycleCtx, job)
	result.FinishedAt = domain.Now()
	result.Path = report.Path
	result.Written = report.Written
	result.Skipped = report.Skipped
	result.Deleted = report.Deleted
	result.Outcome = domain.Classify(err)
	if err != nil {
		result.Err = err
		result.Error = err.Error()
	}

	r.record(result)
	r.log(result)

	if result.Outcome == domain.OutcomeWritten {
		r.ready.Store(true)
		r.notify(ctx, result)
	}
	return result
}

// execute runs the job body, converting a panic into an error.
func execute(ctx context.Context, job Job) (report domain.WriteReport, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in job %s: %v", job.Name(), p)
		}
	}()
	return job.Run(ctx)
}

func (r *Runner) record(res domain.RunResult) {
	r.metrics.RunsTotal.WithLabelValues(res.Job, string(res.Outcome)).Inc()
	r.metrics.RunDuration.WithLabelValues(res.Job).Observe(res.Duration().Seconds())
	r.metrics.ItemsWritten.WithLabelValues(res.Job).Add(float64(res.Written))
	r.metrics.ItemsSkipped.WithLabelValues(res.Job).Add(float64(res.Skipped))
	r.metrics.ItemsDeleted.WithLabelValues(res.Job).Add(float64(res.Deleted))
	if res.Outcome == domain.OutcomeWritten {
		r.metrics.LastSuccess.WithLabelValues(res.Job).Set(float64(res.FinishedAt.Unix()))
	}
}

func (r *Runner) log(res domain.RunResult) {
	attrs := []any{
		"job", res.Job,
		"run_id", res.RunID,
		"outcome", res.Outcome,
		"written", res.Written,
		"skipped", res.Skipped,
		"deleted", res.Deleted,
		"duration", res.Duration(),
	}
	switch res.Outcome {
	case domain.OutcomeWritten:
		r.logger.Info("cycle finished", attrs...)
	case domain.OutcomeNoData:
		r.logger.Warn("cycle finished without data", append(attrs, "error", res.Err)...)
	default:
		r.logger.Error("cycle failed", append(attrs, "error", res.Err)...)
	}
}

// notify publishes the change. A failure never alters the cycle's outcome.
func (r *Runner) notify(ctx context.Context, res domain.RunResult) {
	if r.notifier == nil {
		return
	}
	change := domain.Change{
		RunID:     res.RunID,
		Job:       res.Job,
		Path:      res.Path,
		Written:   res.Written,
		Deleted:   res.Deleted,
		UpdatedAt: domain.FormatTimestamp(res.FinishedAt),
	}
	if err := r.notifier.Publish(ctx, change); err != nil {
		r.metrics.ChangesPublished.WithLabelValues("error").Inc()
		r.logger.Warn("change notification failed", "job", res.Job, "run_id", res.RunID, "error", err)
		return
	}
	r.metrics.ChangesPublished.WithLabelValues("success").Inc()
}
