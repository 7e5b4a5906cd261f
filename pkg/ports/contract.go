package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/androfit/agent/pkg/domain"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(sessionID, domain.DefaultProfile())
		session.Transcript.Append(domain.Message{Role: domain.RoleUser, Content: "hi coach"})

		err := store.Save(ctx, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.ID, loaded.ID)
		assert.Equal(t, session.Profile.Name, loaded.Profile.Name)
		require.Equal(t, 1, loaded.Transcript.Len())
		assert.Equal(t, "hi coach", loaded.Transcript.Messages[0].Content)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, domain.NewSession(sessionID, domain.DefaultProfile()))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, domain.NewSession(id1, domain.DefaultProfile()))
		_ = store.Save(ctx, domain.NewSession(id2, domain.DefaultProfile()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunJobQueueContract runs a suite of tests to verify that a JobQueue
// implementation adheres to the defined interface contract.
func RunJobQueueContract(t *testing.T, queue JobQueue) {
	ctx := context.Background()

	t.Run("Enqueue and Dequeue", func(t *testing.T) {
		job := &domain.Job{ID: "contract-job-1", Kind: domain.JobKindText}
		require.NoError(t, queue.Enqueue(ctx, job))

		got, err := queue.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
		assert.Equal(t, job.Kind, got.Kind)
	})

	t.Run("FIFO Order", func(t *testing.T) {
		require.NoError(t, queue.Enqueue(ctx, &domain.Job{ID: "fifo-1", Kind: domain.JobKindText}))
		require.NoError(t, queue.Enqueue(ctx, &domain.Job{ID: "fifo-2", Kind: domain.JobKindText}))

		first, err := queue.Dequeue(ctx)
		require.NoError(t, err)
		second, err := queue.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, "fifo-1", first.ID)
		assert.Equal(t, "fifo-2", second.ID)
	})

	t.Run("Dequeue honors cancellation", func(t *testing.T) {
		shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		_, err := queue.Dequeue(shortCtx)
		require.Error(t, err)
	})
}
