package ports

import (
	"context"

	"github.com/androfit/agent/pkg/domain"
)

// JobQueue is the worker's source of work. Implementations must be safe for
// concurrent use; a job is delivered to exactly one consumer.
type JobQueue interface {
	// Enqueue appends a job to the queue.
	Enqueue(ctx context.Context, job *domain.Job) error

	// Dequeue blocks until a job is available, the context is canceled, or
	// the queue is closed (domain.ErrQueueClosed).
	Dequeue(ctx context.Context) (*domain.Job, error)

	// Close releases the queue. Pending Dequeue calls unblock with
	// domain.ErrQueueClosed.
	Close() error
}
