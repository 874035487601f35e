package task

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorehub/client/domain"
	"github.com/chorehub/client/internal/infrastructure/queue"
	"github.com/chorehub/client/repository"
)

// memCache is an in-memory TaskCache double.
type memCache struct {
	mu          sync.Mutex
	tasks       map[int]domain.Task
	placeholder int
}

func newMemCache() *memCache {
	return &memCache{tasks: make(map[int]domain.Task)}
}

func (c *memCache) Get(ctx context.Context, id int) (*domain.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	task, ok := c.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (c *memCache) Put(ctx context.Context, tasks []domain.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tasks {
		c.tasks[t.ID] = t
	}
	return nil
}

func (c *memCache) Delete(ctx context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(c.tasks, id)
	return nil
}

func (c *memCache) ScanAll(ctx context.Context) ([]domain.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (c *memCache) NextPlaceholderID(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.placeholder++
	return -c.placeholder, nil
}

type recordingTrigger struct {
	mu       sync.Mutex
	entities []queue.Entity
}

func (r *recordingTrigger) Trigger(entities ...queue.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities = append(r.entities, entities...)
}

func (r *recordingTrigger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entities)
}

func setup(t *testing.T) (*UseCase, *memCache, *queue.Store, *recordingTrigger) {
	t.Helper()
	store, err := queue.Open(filepath.Join(t.TempDir(), "queue.db"), "sync_queue")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cache := newMemCache()
	trigger := &recordingTrigger{}
	return New(cache, store, trigger, nil), cache, store, trigger
}

func validTask(title string) *domain.Task {
	return &domain.Task{
		Title:        title,
		Type:         domain.TaskOneTime,
		ReminderTime: "2026-08-31T09:00:00",
	}
}

func TestCreateIsVisibleBeforeSync(t *testing.T) {
	uc, cache, store, trigger := setup(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, validTask("take out trash"))
	require.NoError(t, err)
	assert.True(t, created.IsLocal(), "new task carries a placeholder id")
	assert.True(t, created.Enabled)

	// The write is observable without any reconciliation having run.
	cached, err := cache.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "take out trash", cached.Title)

	pending, err := store.Pending(queue.EntityTask)
	require.NoError(t, err)
	require.Len(t, pending, 1, "exactly one queue item per mutation")
	assert.Equal(t, queue.OpCreate, pending[0].Operation)
	assert.Equal(t, created.ID, pending[0].EntityID)
	assert.NotEmpty(t, pending[0].Payload)
	assert.Equal(t, 1, trigger.count())
}

func TestCreateRejectsInvalidTask(t *testing.T) {
	uc, _, store, trigger := setup(t)

	_, err := uc.Create(context.Background(), &domain.Task{Title: "no reminder"})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	size, _ := store.Size()
	assert.Zero(t, size, "rejected mutations never reach the queue")
	assert.Zero(t, trigger.count())
}

func TestUpdateCarriesKnownRevision(t *testing.T) {
	uc, cache, store, _ := setup(t)
	ctx := context.Background()

	rev := 3
	existing := *validTask("old title")
	existing.ID = 10
	existing.Revision = &rev
	require.NoError(t, cache.Put(ctx, []domain.Task{existing}))

	updated, err := uc.Update(ctx, 10, validTask("new title"))
	require.NoError(t, err)
	require.NotNil(t, updated.Revision)
	assert.Equal(t, 3, *updated.Revision)

	pending, err := store.Pending(queue.EntityTask)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, queue.OpUpdate, pending[0].Operation)
	require.NotNil(t, pending[0].Revision)
	assert.Equal(t, 3, *pending[0].Revision)
}

func TestUpdateMissingTaskFailsCleanly(t *testing.T) {
	uc, _, store, trigger := setup(t)

	_, err := uc.Update(context.Background(), 99, validTask("x"))
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

	size, _ := store.Size()
	assert.Zero(t, size)
	assert.Zero(t, trigger.count())
}

func TestCompleteFlipsFlagAndEnqueuesLightOp(t *testing.T) {
	uc, cache, store, _ := setup(t)
	ctx := context.Background()

	existing := *validTask("dishes")
	existing.ID = 5
	require.NoError(t, cache.Put(ctx, []domain.Task{existing}))

	done, err := uc.Complete(ctx, 5)
	require.NoError(t, err)
	assert.True(t, done.Completed)

	pending, err := store.Pending(queue.EntityTask)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, queue.OpComplete, pending[0].Operation)
	assert.Empty(t, pending[0].Payload, "light operations travel without a payload")

	undone, err := uc.Uncomplete(ctx, 5)
	require.NoError(t, err)
	assert.False(t, undone.Completed)

	pending, err = store.Pending(queue.EntityTask)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, queue.OpUncomplete, pending[1].Operation)
}

func TestCompleteMissingTaskWritesNothing(t *testing.T) {
	uc, _, store, trigger := setup(t)

	_, err := uc.Complete(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

	size, _ := store.Size()
	assert.Zero(t, size)
	assert.Zero(t, trigger.count())
}

func TestDeleteBeforeFirstSyncCancelsCreate(t *testing.T) {
	uc, cache, store, _ := setup(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, validTask("abandoned draft"))
	require.NoError(t, err)
	require.True(t, created.IsLocal())

	require.NoError(t, uc.Delete(ctx, created.ID))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size, "a cancelled placeholder leaves nothing for the server")

	_, err = cache.Get(ctx, created.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestCompleteBeforeFirstSyncFoldsIntoCreate(t *testing.T) {
	uc, _, store, _ := setup(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, validTask("quick chore"))
	require.NoError(t, err)
	require.True(t, created.IsLocal())

	done, err := uc.Complete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)

	pending, err := store.Pending(queue.EntityTask)
	require.NoError(t, err)
	require.Len(t, pending, 1, "the placeholder keeps one queue item")
	assert.Equal(t, queue.OpCreate, pending[0].Operation)
	assert.Contains(t, string(pending[0].Payload), `"completed":true`)
}

func TestUpdateBeforeFirstSyncFoldsIntoCreate(t *testing.T) {
	uc, _, store, _ := setup(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, validTask("first title"))
	require.NoError(t, err)

	_, err = uc.Update(ctx, created.ID, validTask("second title"))
	require.NoError(t, err)

	pending, err := store.Pending(queue.EntityTask)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, queue.OpCreate, pending[0].Operation)
	assert.Contains(t, string(pending[0].Payload), "second title")
}

func TestDeleteUncachedTaskStillEnqueues(t *testing.T) {
	uc, _, store, trigger := setup(t)

	// The server may hold a record this device never cached.
	require.NoError(t, uc.Delete(context.Background(), 77))

	pending, err := store.Pending(queue.EntityTask)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, queue.OpDelete, pending[0].Operation)
	assert.Equal(t, 77, pending[0].EntityID)
	assert.Equal(t, 1, trigger.count())
}

func TestListFilters(t *testing.T) {
	uc, cache, _, _ := setup(t)
	ctx := context.Background()

	gid := 2
	a := *validTask("a")
	a.ID, a.Enabled = 1, true
	b := *validTask("b")
	b.ID, b.Enabled, b.Completed = 2, true, true
	c := *validTask("c")
	c.ID, c.Enabled, c.GroupID = 3, false, &gid
	require.NoError(t, cache.Put(ctx, []domain.Task{a, b, c}))

	all, err := uc.List(ctx, repository.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	enabled, err := uc.List(ctx, repository.TaskFilter{EnabledOnly: true})
	require.NoError(t, err)
	assert.Len(t, enabled, 2)

	completed, err := uc.List(ctx, repository.TaskFilter{CompletedOnly: true})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, 2, completed[0].ID)

	grouped, err := uc.List(ctx, repository.TaskFilter{GroupID: &gid})
	require.NoError(t, err)
	require.Len(t, grouped, 1)
	assert.Equal(t, 3, grouped[0].ID)
}

func TestTodayIDs(t *testing.T) {
	uc, cache, _, _ := setup(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	due := *validTask("due today")
	due.ID, due.Enabled = 1, true
	due.ReminderTime = "2026-08-31T09:00:00"

	notToday := *validTask("tomorrow")
	notToday.ID, notToday.Enabled = 2, true
	notToday.ReminderTime = "2026-09-01T09:00:00"

	recurring := domain.Task{
		ID:           3,
		Title:        "every day",
		Type:         domain.TaskRecurring,
		Recurrence:   &domain.Recurrence{Type: "daily", Interval: 1},
		ReminderTime: "08:00",
		Enabled:      true,
	}

	disabled := *validTask("off")
	disabled.ID = 4
	disabled.ReminderTime = "2026-08-31T09:00:00"

	completed := *validTask("done")
	completed.ID, completed.Enabled, completed.Completed = 5, true, true
	completed.ReminderTime = "2026-08-31T09:00:00"

	require.NoError(t, cache.Put(ctx, []domain.Task{due, notToday, recurring, disabled, completed}))

	ids, err := uc.TodayIDs(ctx, now)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 3}, ids)
}
