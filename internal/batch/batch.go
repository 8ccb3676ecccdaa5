// Package batch runs many notice specs through a Processor with a fixed pool
// of workers and reports the outcome of each one.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/bulletin/internal/assemble"
	"github.com/jackzampolin/bulletin/internal/extract"
	"github.com/jackzampolin/bulletin/internal/notice"
	"github.com/jackzampolin/bulletin/internal/structuring"
)

// Defaults for Config.
const (
	DefaultWorkers       = 4
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 2 * time.Second
)

// Processor produces the notice for one spec.
type Processor interface {
	Process(ctx context.Context, spec notice.Spec) (notice.Notice, error)
}

// Config configures a Runner.
type Config struct {
	Processor Processor
	Workers   int

	// RetryAttempts bounds tries per item, the first included. Only
	// retryable structuring failures are tried again.
	RetryAttempts uint
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	Logger *slog.Logger
}

// Runner dispatches specs to workers. One Runner may serve several runs, one
// at a time or concurrently.
type Runner struct {
	processor     Processor
	workers       int
	retryAttempts uint
	retryDelay    time.Duration
	maxRetryDelay time.Duration
	logger        *slog.Logger
}

// NewRunner creates a runner.
func NewRunner(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = 30 * cfg.RetryDelay
	}
	return &Runner{
		processor:     cfg.Processor,
		workers:       cfg.Workers,
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
		maxRetryDelay: cfg.MaxRetryDelay,
		logger:        logger.With("component", "batch"),
	}
}

// Run processes every spec and returns a report with one item per spec, in
// input order. Item failures are recorded, not returned. When ctx is
// cancelled the items not yet started are marked cancelled and ctx.Err() is
// returned alongside the partial report.
func (r *Runner) Run(ctx context.Context, specs []notice.Spec) (*Report, error) {
	report := &Report{
		RunID:   uuid.New().String(),
		Started: time.Now(),
		Items:   make([]Item, len(specs)),
	}
	for i, spec := range specs {
		report.Items[i] = Item{Spec: spec, Status: StatusPending}
	}
	logger := r.logger.With("run_id", report.RunID)
	logger.Info("batch started", "items", len(specs), "workers", r.workers)

	queue := make(chan int)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)

	// Dispatcher
	g.Go(func() error {
		defer close(queue)
		for i := range specs {
			select {
			case queue <- i:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 0; w < r.workers; w++ {
		g.Go(func() error {
			for i := range queue {
				if gctx.Err() != nil {
					continue
				}
				report.Items[i] = r.runItem(gctx, logger, specs[i])
				n := done.Add(1)
				logger.Debug("item finished",
					"notice", specs[i].NoticeNumber,
					"gazette", specs[i].GazetteNumber,
					"status", report.Items[i].Status,
					"done", n,
					"total", len(specs))
			}
			return nil
		})
	}

	_ = g.Wait()
	report.Finished = time.Now()

	for i := range report.Items {
		if report.Items[i].Status == StatusPending {
			report.Items[i].Status = StatusCancelled
		}
	}

	counts := report.Counts()
	logger.Info("batch finished",
		"ok", counts[StatusOK],
		"failed", report.Failed(),
		"cancelled", counts[StatusCancelled],
		"elapsed", report.Finished.Sub(report.Started).Round(time.Millisecond))

	return report, ctx.Err()
}

func (r *Runner) runItem(ctx context.Context, logger *slog.Logger, spec notice.Spec) Item {
	start := time.Now()
	item := Item{Spec: spec}

	var n notice.Notice
	err := retry.Do(
		func() error {
			item.Attempts++
			var err error
			n, err = r.processor.Process(ctx, spec)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(r.retryAttempts),
		retry.Delay(r.retryDelay),
		retry.MaxDelay(r.maxRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(structuring.IsRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			logger.Warn("retrying item",
				"notice", spec.NoticeNumber,
				"gazette", spec.GazetteNumber,
				"attempt", attempt+1,
				"error", err)
		}),
	)
	item.Duration = time.Since(start)

	if err != nil {
		item.Status = Classify(err)
		item.Error = err.Error()
		logger.Warn("item failed",
			"notice", spec.NoticeNumber,
			"gazette", spec.GazetteNumber,
			"status", item.Status,
			"error", err)
		return item
	}
	item.Status = StatusOK
	item.Notice = &n
	return item
}

// Classify maps an item error to its report status.
func Classify(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCancelled
	case errors.Is(err, extract.ErrExtractionFailed):
		return StatusExtractionFailed
	case errors.Is(err, structuring.ErrStructuring):
		return StatusStructuringFailed
	case errors.Is(err, assemble.ErrValidation):
		return StatusValidationFailed
	default:
		return StatusFailed
	}
}
