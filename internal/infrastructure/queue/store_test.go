package queue

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "queue.db"), "sync_queue")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func taskPayload(t *testing.T, title string) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"title":         title,
		"reminder_time": "2026-08-31T09:00:00",
	})
	require.NoError(t, err)
	return payload
}

func TestEnqueueAssignsOrderingKeys(t *testing.T) {
	store := openTestStore(t)

	first, err := store.Enqueue(Item{
		Operation: OpCreate,
		Entity:    EntityTask,
		EntityID:  -1,
		Payload:   taskPayload(t, "water plants"),
	})
	require.NoError(t, err)

	second, err := store.Enqueue(Item{
		Operation: OpComplete,
		Entity:    EntityTask,
		EntityID:  12,
	})
	require.NoError(t, err)

	assert.NotZero(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEmpty(t, first.ClientOpID)
	assert.NotEqual(t, first.ClientOpID, second.ClientOpID)
	assert.Equal(t, StatusPending, first.Status)

	// Two rapid enqueues must never share a timestamp.
	assert.True(t, first.Timestamp.Before(second.Timestamp),
		"expected %v < %v", first.Timestamp, second.Timestamp)
}

func TestEnqueueRejectsInvalidItems(t *testing.T) {
	store := openTestStore(t)

	cases := []struct {
		name string
		item Item
	}{
		{"light op with payload", Item{
			Operation: OpDelete,
			Entity:    EntityTask,
			EntityID:  3,
			Payload:   taskPayload(t, "x"),
		}},
		{"light op without entity id", Item{
			Operation: OpComplete,
			Entity:    EntityTask,
		}},
		{"full op without payload", Item{
			Operation: OpUpdate,
			Entity:    EntityTask,
			EntityID:  3,
		}},
		{"unknown operation", Item{
			Operation: Operation("merge"),
			Entity:    EntityTask,
			EntityID:  3,
		}},
		{"unknown entity", Item{
			Operation: OpDelete,
			Entity:    Entity("calendar"),
			EntityID:  3,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.Enqueue(tc.item)
			assert.Error(t, err)
		})
	}

	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size, "rejected items must not be persisted")
}

func TestPendingOrderAndFiltering(t *testing.T) {
	store := openTestStore(t)

	var ids []uint64
	for _, title := range []string{"a", "b", "c"} {
		item, err := store.Enqueue(Item{
			Operation: OpCreate,
			Entity:    EntityTask,
			EntityID:  -1,
			Payload:   taskPayload(t, title),
		})
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}
	_, err := store.Enqueue(Item{
		Operation: OpDelete,
		Entity:    EntityGroup,
		EntityID:  7,
	})
	require.NoError(t, err)

	pending, err := store.Pending(EntityTask)
	require.NoError(t, err)
	require.Len(t, pending, 3, "other entity types stay out of the drain")
	for i := 1; i < len(pending); i++ {
		assert.True(t, pending[i-1].Timestamp.Before(pending[i].Timestamp))
	}
	assert.Equal(t, ids[0], pending[0].ID)
	assert.Equal(t, ids[2], pending[2].ID)
}

func TestPendingIncludesSyncingExcludesFailed(t *testing.T) {
	store := openTestStore(t)

	syncing, err := store.Enqueue(Item{
		Operation: OpComplete,
		Entity:    EntityTask,
		EntityID:  1,
	})
	require.NoError(t, err)
	parked, err := store.Enqueue(Item{
		Operation: OpUpdate,
		Entity:    EntityTask,
		EntityID:  2,
		Payload:   taskPayload(t, "stale"),
	})
	require.NoError(t, err)

	require.NoError(t, store.MarkSyncing([]uint64{syncing.ID}))
	require.NoError(t, store.MarkFailed(parked.ID, "revision mismatch"))

	pending, err := store.Pending(EntityTask)
	require.NoError(t, err)
	// An interrupted drain leaves items in syncing; a restart must resume them.
	require.Len(t, pending, 1)
	assert.Equal(t, syncing.ID, pending[0].ID)
	assert.Equal(t, StatusSyncing, pending[0].Status)

	failed, err := store.Failed(EntityTask)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, parked.ID, failed[0].ID)
	assert.Equal(t, "revision mismatch", failed[0].FailReason)
	assert.Equal(t, 1, failed[0].RetryCount)
}

func TestMarkPendingRevertsSyncing(t *testing.T) {
	store := openTestStore(t)

	item, err := store.Enqueue(Item{
		Operation: OpDelete,
		Entity:    EntityUser,
		EntityID:  4,
	})
	require.NoError(t, err)
	before := item.Timestamp

	require.NoError(t, store.MarkSyncing([]uint64{item.ID}))
	require.NoError(t, store.MarkPending([]uint64{item.ID}))

	pending, err := store.Pending(EntityUser)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, StatusPending, pending[0].Status)
	assert.Zero(t, pending[0].RetryCount, "transient failures do not count as retries")
	assert.True(t, pending[0].Timestamp.Equal(before), "reverting must not reorder the queue")
}

func TestDropEntityRemovesAllItemsForOneID(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Enqueue(Item{
		Operation: OpCreate,
		Entity:    EntityTask,
		EntityID:  -4,
		Payload:   taskPayload(t, "draft"),
	})
	require.NoError(t, err)
	kept, err := store.Enqueue(Item{
		Operation: OpCreate,
		Entity:    EntityTask,
		EntityID:  -5,
		Payload:   taskPayload(t, "other draft"),
	})
	require.NoError(t, err)

	require.NoError(t, store.DropEntity(EntityTask, -4))

	pending, err := store.Pending(EntityTask)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, kept.ID, pending[0].ID)
}

func TestRewritePayloadAmendsPendingCreate(t *testing.T) {
	store := openTestStore(t)

	created, err := store.Enqueue(Item{
		Operation: OpCreate,
		Entity:    EntityTask,
		EntityID:  -2,
		Payload:   taskPayload(t, "before"),
	})
	require.NoError(t, err)

	require.NoError(t, store.RewritePayload(EntityTask, -2, taskPayload(t, "after")))

	pending, err := store.Pending(EntityTask)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, created.ID, pending[0].ID)
	assert.Contains(t, string(pending[0].Payload), "after")
	assert.Equal(t, len(pending[0].Payload), pending[0].SizeBytes)
	assert.True(t, pending[0].Timestamp.Equal(created.Timestamp), "amending never reorders the queue")
}

func TestRemoveAndSizeAccounting(t *testing.T) {
	store := openTestStore(t)

	payload := taskPayload(t, "vacuum")
	item, err := store.Enqueue(Item{
		Operation: OpCreate,
		Entity:    EntityTask,
		EntityID:  -1,
		Payload:   payload,
	})
	require.NoError(t, err)

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	bytes, err := store.SizeBytes()
	require.NoError(t, err)
	assert.Equal(t, len(payload), bytes)

	require.NoError(t, store.Remove(item.ID))
	size, err = store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestPurgeFailedKeepsRecentAndPendingRows(t *testing.T) {
	store := openTestStore(t)

	oldParked, err := store.Enqueue(Item{
		Operation: OpUpdate,
		Entity:    EntityTask,
		EntityID:  9,
		Payload:   taskPayload(t, "old"),
	})
	require.NoError(t, err)
	require.NoError(t, store.MarkFailed(oldParked.ID, "revision mismatch"))

	kept, err := store.Enqueue(Item{
		Operation: OpComplete,
		Entity:    EntityTask,
		EntityID:  10,
	})
	require.NoError(t, err)

	require.NoError(t, store.PurgeFailed(time.Now().Add(time.Minute)))

	failed, err := store.Failed(EntityTask)
	require.NoError(t, err)
	assert.Empty(t, failed)

	pending, err := store.Pending(EntityTask)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, kept.ID, pending[0].ID)
}

func TestQueueSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queue.db")

	store, err := Open(path, "sync_queue")
	require.NoError(t, err)
	item, err := store.Enqueue(Item{
		Operation: OpDelete,
		Entity:    EntityTask,
		EntityID:  5,
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(path, "sync_queue")
	require.NoError(t, err)
	defer reopened.Close()

	pending, err := reopened.Pending(EntityTask)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, item.ID, pending[0].ID)
	assert.Equal(t, item.ClientOpID, pending[0].ClientOpID)
}
