package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/androfit/agent/internal/metrics"
	"github.com/androfit/agent/internal/worker"
	"github.com/androfit/agent/pkg/adapters/memory"
	"github.com/androfit/agent/pkg/domain"
)

func textJob(id string) *domain.Job {
	return &domain.Job{ID: id, Kind: domain.JobKindText, EnqueuedAt: time.Now()}
}

func TestWorker_ProcessesJobs(t *testing.T) {
	queue := memory.NewQueue(8)
	m := metrics.New()

	var mu sync.Mutex
	var seen []string

	w := worker.New(worker.Config{
		Queue: queue,
		Handlers: map[domain.JobKind]worker.Handler{
			domain.JobKindText: func(ctx context.Context, job *domain.Job) error {
				mu.Lock()
				seen = append(seen, job.ID)
				mu.Unlock()
				return nil
			},
		},
		Metrics: m,
	})

	ctx := context.Background()
	require.NoError(t, queue.Enqueue(ctx, textJob("j1")))
	require.NoError(t, queue.Enqueue(ctx, textJob("j2")))
	require.NoError(t, queue.Close())

	require.NoError(t, w.Run(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"j1", "j2"}, seen)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.JobsTotal.WithLabelValues(metrics.OutcomeOK)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SessionsStarted))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.SessionsActive))
}

func TestWorker_RejectsBadJobs(t *testing.T) {
	queue := memory.NewQueue(8)
	m := metrics.New()

	w := worker.New(worker.Config{
		Queue: queue,
		Handlers: map[domain.JobKind]worker.Handler{
			domain.JobKindText: func(ctx context.Context, job *domain.Job) error { return nil },
		},
		Metrics: m,
	})

	ctx := context.Background()
	// Unknown kind, missing room, and a kind with no handler.
	require.NoError(t, queue.Enqueue(ctx, &domain.Job{ID: "bad-kind", Kind: "video"}))
	require.NoError(t, queue.Enqueue(ctx, &domain.Job{ID: "no-room", Kind: domain.JobKindRoom}))
	require.NoError(t, queue.Enqueue(ctx, &domain.Job{ID: "no-handler", Kind: domain.JobKindRoom, Room: "gym-1"}))
	require.NoError(t, queue.Close())

	require.NoError(t, w.Run(ctx))

	assert.Equal(t, float64(3), testutil.ToFloat64(m.JobsTotal.WithLabelValues(metrics.OutcomeRejected)))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.SessionsStarted))
}

func TestWorker_CountsFailures(t *testing.T) {
	queue := memory.NewQueue(8)
	m := metrics.New()

	w := worker.New(worker.Config{
		Queue: queue,
		Handlers: map[domain.JobKind]worker.Handler{
			domain.JobKindText: func(ctx context.Context, job *domain.Job) error {
				return errors.New("provider down")
			},
		},
		Metrics: m,
	})

	ctx := context.Background()
	require.NoError(t, queue.Enqueue(ctx, textJob("j1")))
	require.NoError(t, queue.Close())

	require.NoError(t, w.Run(ctx))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.JobsTotal.WithLabelValues(metrics.OutcomeFailed)))
}

func TestWorker_BoundsConcurrency(t *testing.T) {
	queue := memory.NewQueue(8)

	var active, peak int32
	w := worker.New(worker.Config{
		Queue:       queue,
		MaxSessions: 2,
		Handlers: map[domain.JobKind]worker.Handler{
			domain.JobKindText: func(ctx context.Context, job *domain.Job) error {
				n := atomic.AddInt32(&active, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			},
		},
	})

	ctx := context.Background()
	for i := 0; i < 6; i++ {
		require.NoError(t, queue.Enqueue(ctx, textJob("j"+string(rune('0'+i)))))
	}
	require.NoError(t, queue.Close())

	require.NoError(t, w.Run(ctx))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.Greater(t, atomic.LoadInt32(&peak), int32(0))
}

func TestWorker_ReadyLifecycle(t *testing.T) {
	queue := memory.NewQueue(1)
	w := worker.New(worker.Config{
		Queue: queue,
		Handlers: map[domain.JobKind]worker.Handler{
			domain.JobKindText: func(ctx context.Context, job *domain.Job) error { return nil },
		},
	})

	assert.False(t, w.Ready())

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	assert.Eventually(t, w.Ready, time.Second, 5*time.Millisecond)

	require.NoError(t, queue.Close())
	require.NoError(t, <-done)
	assert.False(t, w.Ready())
}

func TestWorker_DrainTimeoutCancelsSessions(t *testing.T) {
	queue := memory.NewQueue(1)

	started := make(chan struct{})
	canceled := make(chan struct{})
	w := worker.New(worker.Config{
		Queue:        queue,
		DrainTimeout: 50 * time.Millisecond,
		Handlers: map[domain.JobKind]worker.Handler{
			domain.JobKindText: func(ctx context.Context, job *domain.Job) error {
				close(started)
				<-ctx.Done()
				close(canceled)
				return ctx.Err()
			},
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, queue.Enqueue(ctx, textJob("stuck")))

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	<-started
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not drain")
	}

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("in-flight session was not cut off")
	}
}

func TestWorker_NotReadyWhileDraining(t *testing.T) {
	queue := memory.NewQueue(8)
	release := make(chan struct{})
	started := make(chan struct{})

	w := worker.New(worker.Config{
		Queue: queue,
		Handlers: map[domain.JobKind]worker.Handler{
			domain.JobKindText: func(ctx context.Context, job *domain.Job) error {
				close(started)
				<-release
				return nil
			},
		},
		DrainTimeout: 5 * time.Second,
	})

	ctx := context.Background()
	require.NoError(t, queue.Enqueue(ctx, textJob("slow")))

	runDone := make(chan error, 1)
	go func() { runDone <- w.Run(ctx) }()

	<-started
	require.NoError(t, queue.Close())

	// Readiness must drop as soon as the drain starts, while the in-flight
	// session is still running, so /readyz fails during the drain window.
	assert.Eventually(t, func() bool { return !w.Ready() }, time.Second, 10*time.Millisecond)
	select {
	case <-runDone:
		t.Fatal("worker finished before the in-flight session was released")
	default:
	}

	close(release)
	require.NoError(t, <-runDone)
}
