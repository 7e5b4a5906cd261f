package memory

import (
	"context"
	"sync"
	"time"

	"github.com/androfit/agent/pkg/domain"
)

// Queue implements ports.JobQueue with a buffered channel. Used by tests and
// by dev mode, where worker and dispatcher share a process.
type Queue struct {
	jobs chan *domain.Job

	// done signals closure. The jobs channel itself is never closed, so a
	// producer blocked on a full buffer can never hit a closed-channel send.
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewQueue creates an in-memory job queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 64
	}
	return &Queue{
		jobs: make(chan *domain.Job, capacity),
		done: make(chan struct{}),
	}
}

// Enqueue appends a job to the queue.
func (q *Queue) Enqueue(ctx context.Context, job *domain.Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return domain.ErrQueueClosed
	}
	q.mu.Unlock()

	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}

	select {
	case q.jobs <- job:
		return nil
	case <-q.done:
		return domain.ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until a job is available, the context is canceled, or the
// queue is closed and drained.
func (q *Queue) Dequeue(ctx context.Context) (*domain.Job, error) {
	select {
	case job := <-q.jobs:
		return job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.done:
		// Closed; deliver anything still buffered before reporting it.
		select {
		case job := <-q.jobs:
			return job, nil
		default:
			return nil, domain.ErrQueueClosed
		}
	}
}

// Close closes the queue. Jobs already enqueued are still delivered.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
	return nil
}
