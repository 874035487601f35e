package group

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/chorehub/client/domain"
	"github.com/chorehub/client/internal/infrastructure/queue"
	"github.com/chorehub/client/repository"
	"github.com/chorehub/client/usecase"
)

// UseCase is the offline-first façade for groups, symmetric with the task
// façade: cache-only reads, one queue item per mutation, non-blocking sync.
type UseCase struct {
	cache  repository.GroupCache
	store  repository.SyncQueue
	sync   usecase.SyncTrigger
	logger *zap.Logger
}

func New(cache repository.GroupCache, store repository.SyncQueue, sync usecase.SyncTrigger, logger *zap.Logger) *UseCase {
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

func (uc *UseCase) List(ctx context.Context) ([]domain.Group, error) {
	return uc.cache.ScanAll(ctx)
}

func (uc *UseCase) Get(ctx context.Context, id int) (*domain.Group, error) {
	return uc.cache.Get(ctx, id)
}

func (uc *UseCase) Create(ctx context.Context, group *domain.Group) (*domain.Group, error) {
	if group == nil {
		return nil, domain.ErrInvalidPayload
	}
	if err := group.Validate(); err != nil {
		return nil, err
	}

	placeholder, err := uc.cache.NextPlaceholderID(ctx)
	if err != nil {
		return nil, err
	}
	group.ID = placeholder
	group.UpdatedAt = time.Now().UnixMilli()
	group.Normalize()

	if err := uc.cache.Put(ctx, []domain.Group{*group}); err != nil {
		return nil, err
	}
	if err := uc.enqueue(queue.OpCreate, group.ID, group, nil); err != nil {
		return nil, err
	}
	uc.trigger()
	return group, nil
}

func (uc *UseCase) Update(ctx context.Context, id int, group *domain.Group) (*domain.Group, error) {
	if group == nil {
		return nil, domain.ErrInvalidPayload
	}
	if _, err := uc.cache.Get(ctx, id); err != nil {
		return nil, err
	}
	group.ID = id
	if err := group.Validate(); err != nil {
		return nil, err
	}
	group.UpdatedAt = time.Now().UnixMilli()
	group.Normalize()

	if err := uc.cache.Put(ctx, []domain.Group{*group}); err != nil {
		return nil, err
	}
	if group.IsLocal() {
		// Fold the edit into the still-queued create.
		payload, err := json.Marshal(group)
		if err != nil {
			return nil, err
		}
		if err := uc.store.RewritePayload(queue.EntityGroup, id, payload); err != nil {
			return nil, domain.WrapError(domain.ErrCodeInternal, "failed to amend queued create", err)
		}
		uc.trigger()
		return group, nil
	}
	if err := uc.enqueue(queue.OpUpdate, id, group, nil); err != nil {
		return nil, err
	}
	uc.trigger()
	return group, nil
}

func (uc *UseCase) Delete(ctx context.Context, id int) error {
	if err := uc.cache.Delete(ctx, id); err != nil {
		if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return err
		}
		uc.logger.Warn("delete of uncached group", zap.Int("group_id", id))
	}
	if id < 0 {
		// The server never learned of this group; cancel the queued create.
		if err := uc.store.DropEntity(queue.EntityGroup, id); err != nil {
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

func (uc *UseCase) enqueue(op queue.Operation, entityID int, group *domain.Group, revision *int) error {
	item := queue.Item{
		Operation: op,
		Entity:    queue.EntityGroup,
		EntityID:  entityID,
		Revision:  revision,
	}
	if !op.Light() {
		payload, err := json.Marshal(group)
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
		uc.sync.Trigger(queue.EntityGroup)
	}
}
