// Package worker runs the job intake loop: it dequeues dispatch jobs, starts
// one agent session per job, and bounds how many run at once. Shutdown is
// graceful: the loop stops taking work while in-flight sessions get a drain
// window to finish their current turn.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/androfit/agent/internal/logging"
	"github.com/androfit/agent/internal/metrics"
	"github.com/androfit/agent/pkg/domain"
	"github.com/androfit/agent/pkg/ports"
)

const (
	// DefaultMaxSessions bounds concurrent sessions per worker.
	DefaultMaxSessions = 4

	// DefaultDrainTimeout is how long in-flight sessions get on shutdown.
	DefaultDrainTimeout = 30 * time.Second

	// dequeueRetryDelay paces the loop after a transient queue error.
	dequeueRetryDelay = time.Second
)

// Handler runs one job to completion. The worker calls it on its own
// goroutine; returning an error marks the job failed.
type Handler func(ctx context.Context, job *domain.Job) error

// Config wires a Worker.
type Config struct {
	Queue ports.JobQueue

	// Handlers maps job kinds to their runners. Jobs with a kind not in the
	// map are rejected.
	Handlers map[domain.JobKind]Handler

	// MaxSessions defaults to DefaultMaxSessions.
	MaxSessions int

	// DrainTimeout defaults to DefaultDrainTimeout.
	DrainTimeout time.Duration

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Worker consumes the job queue.
type Worker struct {
	cfg Config
	sem *semaphore.Weighted

	wg    sync.WaitGroup
	ready atomic.Bool
}

// New creates a worker. Zero values in cfg get defaults.
func New(cfg Config) *Worker {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	return &Worker{
		cfg: cfg,
		sem: semaphore.NewWeighted(int64(cfg.MaxSessions)),
	}
}

// Ready reports whether the worker is accepting jobs. Wired to /readyz.
func (w *Worker) Ready() bool {
	return w.ready.Load()
}

// Run consumes jobs until ctx is canceled or the queue closes, then drains.
// In-flight sessions keep running through the drain window even though ctx
// is already canceled; they are cut off when the window expires.
func (w *Worker) Run(ctx context.Context) error {
	w.ready.Store(true)
	defer w.ready.Store(false)

	jobCtx, cancelJobs := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelJobs()

	for {
		job, err := w.cfg.Queue.Dequeue(ctx)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrQueueClosed):
				w.cfg.Logger.Info("job queue closed, draining")
				w.drain(cancelJobs)
				return nil
			case ctx.Err() != nil:
				w.cfg.Logger.Info("shutdown requested, draining")
				w.drain(cancelJobs)
				return ctx.Err()
			default:
				w.cfg.Logger.Warn("dequeue failed, retrying", "err", err)
				select {
				case <-time.After(dequeueRetryDelay):
					continue
				case <-ctx.Done():
					w.drain(cancelJobs)
					return ctx.Err()
				}
			}
		}

		if err := w.reject(job); err != nil {
			w.cfg.Logger.Warn("rejecting job", "job_id", job.ID, "kind", job.Kind, "err", err)
			continue
		}

		if err := w.sem.Acquire(ctx, 1); err != nil {
			// Shutdown while waiting for a slot. The job is lost from this
			// worker; a redis queue redelivers it to another.
			w.cfg.Logger.Info("shutdown requested, draining", "dropped_job", job.ID)
			w.drain(cancelJobs)
			return ctx.Err()
		}

		w.wg.Add(1)
		go w.run(jobCtx, job)
	}
}

// reject validates the job and checks a handler exists. A non-nil return has
// already been counted.
func (w *Worker) reject(job *domain.Job) error {
	err := job.Validate()
	if err == nil {
		if _, ok := w.cfg.Handlers[job.Kind]; !ok {
			err = domain.ErrJobKind
		}
	}
	if err != nil && w.cfg.Metrics != nil {
		w.cfg.Metrics.JobsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
	}
	return err
}

func (w *Worker) run(ctx context.Context, job *domain.Job) {
	defer w.wg.Done()
	defer w.sem.Release(1)

	logger := w.cfg.Logger.With("job_id", job.ID, "kind", job.Kind)
	logger.Info("starting session", "wait", time.Since(job.EnqueuedAt).String())

	if w.cfg.Metrics != nil {
		w.cfg.Metrics.SessionsStarted.Inc()
		w.cfg.Metrics.SessionsActive.Inc()
		defer w.cfg.Metrics.SessionsActive.Dec()
	}

	err := w.cfg.Handlers[job.Kind](ctx, job)

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeFailed
		logger.Error("session failed", "err", err)
	} else {
		logger.Info("session finished")
	}
	if w.cfg.Metrics != nil {
		w.cfg.Metrics.JobsTotal.WithLabelValues(outcome).Inc()
	}
}

// drain waits for in-flight sessions, cutting them off at DrainTimeout.
// Readiness drops immediately so /readyz fails for the whole drain window.
func (w *Worker) drain(cancelJobs context.CancelFunc) {
	w.ready.Store(false)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.cfg.DrainTimeout):
		w.cfg.Logger.Warn("drain window expired, canceling in-flight sessions")
		cancelJobs()
		<-done
	}
}
