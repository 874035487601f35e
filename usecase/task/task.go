package task

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chorehub/client/domain"
	"github.com/chorehub/client/internal/infrastructure/queue"
	"github.com/chorehub/client/repository"
	"github.com/chorehub/client/usecase"
)

// UseCase is the offline-first façade for tasks. Every read is served from
// the local cache; every mutation is one synchronous cache write plus exactly
// one queue item, with reconciliation triggered in the background. Callers
// never wait on network I/O.
type UseCase struct {
	cache  repository.TaskCache
	store  repository.SyncQueue
	sync   usecase.SyncTrigger
	logger *zap.Logger
}

func New(cache repository.TaskCache, store repository.SyncQueue, sync usecase.SyncTrigger, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		cache:  cache,
		store:  store,
		sync:   sync,
		logger: logger,
	}
}

// List returns cached tasks matching the filter.
func (uc *UseCase) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	tasks, err := uc.cache.ScanAll(ctx)
	if err != nil {
		return nil, err
	}
	out := tasks[:0]
	for _, t := range tasks {
		if filter.EnabledOnly && !t.Enabled {
			continue
		}
		if filter.CompletedOnly && !t.Completed {
			continue
		}
		if filter.GroupID != nil && (t.GroupID == nil || *t.GroupID != *filter.GroupID) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Get returns one cached task.
func (uc *UseCase) Get(ctx context.Context, id int) (*domain.Task, error) {
	return uc.cache.Get(ctx, id)
}

// TodayIDs returns the ids of cached tasks due today: enabled repeating
// tasks plus one-time tasks whose reminder falls on the current date.
func (uc *UseCase) TodayIDs(ctx context.Context, now time.Time) ([]int, error) {
	tasks, err := uc.cache.ScanAll(ctx)
	if err != nil {
		return nil, err
	}
	today := now.Format("2006-01-02")
	var ids []int
	for _, t := range tasks {
		if !t.Enabled || t.Completed {
			continue
		}
		if t.Type == domain.TaskOneTime && !strings.HasPrefix(t.ReminderTime, today) {
			continue
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// Create writes the task to the cache under a placeholder id, enqueues a full
// create operation and returns the locally-written task immediately. The
// server-assigned id arrives with the next successful reconciliation.
func (uc *UseCase) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.Type == "" {
		task.SetType(domain.TaskOneTime)
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	placeholder, err := uc.cache.NextPlaceholderID(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UnixMilli()
	task.ID = placeholder
	task.Enabled = true
	task.Revision = nil
	task.CreatedAt = now
	task.UpdatedAt = now
	task.Normalize()

	if err := uc.cache.Put(ctx, []domain.Task{*task}); err != nil {
		return nil, err
	}
	if err := uc.enqueue(queue.OpCreate, task.ID, task, nil); err != nil {
		return nil, err
	}
	uc.trigger()
	return task, nil
}

// Update overwrites the cached task, enqueues a full update carrying the
// current known revision and returns the optimistic result immediately.
func (uc *UseCase) Update(ctx context.Context, id int, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	existing, err := uc.cache.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	task.ID = id
	if task.Revision == nil {
		task.Revision = existing.Revision
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = time.Now().UnixMilli()
	task.Normalize()

	if err := uc.cache.Put(ctx, []domain.Task{*task}); err != nil {
		return nil, err
	}
	if task.IsLocal() {
		// The create is still queued; fold the edit into it so the entity
		// keeps one queue item until the server assigns a real id.
		if err := uc.rewriteCreate(task); err != nil {
			return nil, err
		}
		uc.trigger()
		return task, nil
	}
	if err := uc.enqueue(queue.OpUpdate, id, task, task.Revision); err != nil {
		return nil, err
	}
	uc.trigger()
	return task, nil
}

// Complete flips the completed flag on. A missing task surfaces as NotFound
// synchronously, before any queue write.
func (uc *UseCase) Complete(ctx context.Context, id int) (*domain.Task, error) {
	return uc.setCompleted(ctx, id, true)
}

// Uncomplete flips the completed flag off.
func (uc *UseCase) Uncomplete(ctx context.Context, id int) (*domain.Task, error) {
	return uc.setCompleted(ctx, id, false)
}

// Delete removes the task from the cache and enqueues a light delete. A
// cache miss is logged, not fatal: the server may hold a record the device
// never cached. Deleting a placeholder cancels the queued create instead;
// the server never learned of the entity, so there is nothing to delete
// there.
func (uc *UseCase) Delete(ctx context.Context, id int) error {
	if err := uc.cache.Delete(ctx, id); err != nil {
		if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return err
		}
		uc.logger.Warn("delete of uncached task", zap.Int("task_id", id))
	}
	if id < 0 {
		if err := uc.store.DropEntity(queue.EntityTask, id); err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "failed to cancel queued create", err)
		}
		return nil
	}
	if err := uc.enqueue(queue.OpDelete, id, nil, nil); err != nil {
		return err
	}
	uc.trigger()
	return nil
}

// PendingSync exposes the queue items awaiting reconciliation for tasks.
func (uc *UseCase) PendingSync() ([]queue.Item, error) {
	return uc.store.Pending(queue.EntityTask)
}

func (uc *UseCase) setCompleted(ctx context.Context, id int, completed bool) (*domain.Task, error) {
	task, err := uc.cache.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Completed = completed
	task.UpdatedAt = time.Now().UnixMilli()
	if err := uc.cache.Put(ctx, []domain.Task{*task}); err != nil {
		return nil, err
	}
	if task.IsLocal() {
		if err := uc.rewriteCreate(task); err != nil {
			return nil, err
		}
		uc.trigger()
		return task, nil
	}
	op := queue.OpComplete
	if !completed {
		op = queue.OpUncomplete
	}
	if err := uc.enqueue(op, id, nil, nil); err != nil {
		return nil, err
	}
	uc.trigger()
	return task, nil
}

// rewriteCreate replaces the payload of the queued create for a placeholder
// task with the current cache state.
func (uc *UseCase) rewriteCreate(task *domain.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	if err := uc.store.RewritePayload(queue.EntityTask, task.ID, payload); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "failed to amend queued create", err)
	}
	return nil
}

func (uc *UseCase) enqueue(op queue.Operation, entityID int, task *domain.Task, revision *int) error {
	item := queue.Item{
		Operation: op,
		Entity:    queue.EntityTask,
		EntityID:  entityID,
		Revision:  revision,
	}
	if !op.Light() {
		payload, err := json.Marshal(task)
		if err != nil {
			return err
		}
		item.Payload = payload
	}
	if _, err := uc.store.Enqueue(item); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "failed to enqueue sync item", err)
	}
	return nil
}

func (uc *UseCase) trigger() {
	if uc.sync != nil {
		uc.sync.Trigger(queue.EntityTask)
	}
}
