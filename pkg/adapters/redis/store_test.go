package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/androfit/agent/pkg/adapters/redis"
	"github.com/androfit/agent/pkg/domain"
	"github.com/androfit/agent/pkg/ports"
)

func newTestClient(t *testing.T) *backend.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	return backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
}

func TestRedisStore_Contract(t *testing.T) {
	store := redis.NewFromClient(newTestClient(t))
	ports.RunSessionStoreContract(t, store)
}

func TestRedisStore_TTLPrunesFromList(t *testing.T) {
	store := redis.NewFromClient(newTestClient(t), redis.WithTTL(time.Second), redis.WithPrefix("t:"))

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, domain.NewSession("ttl-session", domain.DefaultProfile())))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, "ttl-session")

	// Index scores are wall-clock based; once the TTL has elapsed the lazy
	// cleanup in List must drop the entry.
	time.Sleep(1200 * time.Millisecond)

	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, sessions, "ttl-session")
}
