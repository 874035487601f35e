package user

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/chorehub/client/domain"
	"github.com/chorehub/client/internal/infrastructure/queue"
	"github.com/chorehub/client/repository"
	"github.com/chorehub/client/usecase"
)

// UseCase is the offline-first façade for household users.
type UseCase struct {
	cache  repository.UserCache
	store  repository.SyncQueue
	sync   usecase.SyncTrigger
	logger *zap.Logger
}

func New(cache repository.UserCache, store repository.SyncQueue, sync usecase.SyncTrigger, logger *zap.Logger) *UseCase {
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

func (uc *UseCase) List(ctx context.Context) ([]domain.User, error) {
	return uc.cache.ScanAll(ctx)
}

func (uc *UseCase) Get(ctx context.Context, id int) (*domain.User, error) {
	return uc.cache.Get(ctx, id)
}

func (uc *UseCase) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	if user.Role == "" {
		user.Role = domain.RoleRegular
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	placeholder, err := uc.cache.NextPlaceholderID(ctx)
	if err != nil {
		return nil, err
	}
	user.ID = placeholder
	user.Active = true

	if err := uc.cache.Put(ctx, []domain.User{*user}); err != nil {
		return nil, err
	}
	if err := uc.enqueue(queue.OpCreate, user.ID, user); err != nil {
		return nil, err
	}
	uc.trigger()
	return user, nil
}

func (uc *UseCase) Update(ctx context.Context, id int, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	if _, err := uc.cache.Get(ctx, id); err != nil {
		return nil, err
	}
	user.ID = id
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := uc.cache.Put(ctx, []domain.User{*user}); err != nil {
		return nil, err
	}
	if id < 0 {
		// Fold the edit into the still-queued create.
		payload, err := json.Marshal(user)
		if err != nil {
			return nil, err
		}
		if err := uc.store.RewritePayload(queue.EntityUser, id, payload); err != nil {
			return nil, domain.WrapError(domain.ErrCodeInternal, "failed to amend queued create", err)
		}
		uc.trigger()
		return user, nil
	}
	if err := uc.enqueue(queue.OpUpdate, id, user); err != nil {
		return nil, err
	}
	uc.trigger()
	return user, nil
}

func (uc *UseCase) Delete(ctx context.Context, id int) error {
	if err := uc.cache.Delete(ctx, id); err != nil {
		if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return err
		}
		uc.logger.Warn("delete of uncached user", zap.Int("user_id", id))
	}
	if id < 0 {
		// The server never learned of this user; cancel the queued create.
		if err := uc.store.DropEntity(queue.EntityUser, id); err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "failed to cancel queued create", err)
		}
		return nil
	}
	if err := uc.enqueue(queue.OpDelete, id, nil); err != nil {
		return err
	}
	uc.trigger()
	return nil
}

func (uc *UseCase) enqueue(op queue.Operation, entityID int, user *domain.User) error {
	item := queue.Item{
		Operation: op,
		Entity:    queue.EntityUser,
		EntityID:  entityID,
	}
	if !op.Light() {
		payload, err := json.Marshal(user)
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
		uc.sync.Trigger(queue.EntityUser)
	}
}
