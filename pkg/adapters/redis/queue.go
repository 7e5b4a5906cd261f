package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/androfit/agent/pkg/domain"
)

// Queue implements ports.JobQueue on a Redis list (LPUSH producer,
// BRPOP consumer). A job is delivered to exactly one worker.
type Queue struct {
	client *backend.Client
	key    string
	closed atomic.Bool
}

// NewQueue creates a job queue backed by the given Redis list key.
func NewQueue(client *backend.Client, key string) *Queue {
	if key == "" {
		key = "androfit:jobs"
	}
	return &Queue{
		client: client,
		key:    key,
	}
}

// Enqueue appends a job to the queue.
func (q *Queue) Enqueue(ctx context.Context, job *domain.Job) error {
	if q.closed.Load() {
		return domain.ErrQueueClosed
	}

	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	return nil
}

// Dequeue blocks until a job is available or the context is canceled.
// BRPOP is issued with a short timeout so Close is noticed promptly.
func (q *Queue) Dequeue(ctx context.Context) (*domain.Job, error) {
	for {
		if q.closed.Load() {
			return nil, domain.ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err == backend.Nil {
			continue // timed out, poll again
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to dequeue job: %w", err)
		}

		// BRPOP returns [key, value].
		if len(res) != 2 {
			return nil, fmt.Errorf("unexpected BRPOP reply length %d", len(res))
		}

		var job domain.Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job: %w", err)
		}

		return &job, nil
	}
}

// Close marks the queue closed. Blocked Dequeue calls return
// domain.ErrQueueClosed within one poll interval.
func (q *Queue) Close() error {
	q.closed.Store(true)
	return nil
}
