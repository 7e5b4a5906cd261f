package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/androfit/agent/pkg/adapters/redis"
	"github.com/androfit/agent/pkg/domain"
	"github.com/androfit/agent/pkg/ports"
)

func TestRedisQueue_Contract(t *testing.T) {
	queue := redis.NewQueue(newTestClient(t), "test:jobs")
	ports.RunJobQueueContract(t, queue)
}

func TestRedisQueue_Close(t *testing.T) {
	queue := redis.NewQueue(newTestClient(t), "test:jobs")
	require.NoError(t, queue.Close())

	err := queue.Enqueue(context.Background(), &domain.Job{ID: "j1", Kind: domain.JobKindText})
	assert.ErrorIs(t, err, domain.ErrQueueClosed)

	_, err = queue.Dequeue(context.Background())
	assert.ErrorIs(t, err, domain.ErrQueueClosed)
}
