package reconciler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/chorehub/client/domain"
	"github.com/chorehub/client/internal/infrastructure/queue"
	"github.com/chorehub/client/internal/remote"
	"github.com/chorehub/client/repository"
)

// Target binds one entity type to its remote endpoints and local cache. The
// engine itself stays entity-agnostic; everything type-specific lives in
// these closures so tests can script them.
type Target struct {
	Entity queue.Entity

	// Submit sends one ordered batch to the entity's sync-queue endpoint.
	Submit func(ctx context.Context, ops []remote.Operation) ([]remote.BatchRecord, error)

	// Apply decodes one post-merge server record and upserts it into the
	// cache, returning the server-assigned entity id.
	Apply func(ctx context.Context, record json.RawMessage) (int, error)

	// Drop removes a placeholder row once the server record replaced it.
	Drop func(ctx context.Context, id int) error

	// Pull refreshes the cache from the server list endpoint.
	Pull func(ctx context.Context) error
}

// TaskTarget wires the task entity type.
func TaskTarget(cache repository.TaskCache, client *remote.TaskClient, logger *zap.Logger) Target {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Target{
		Entity: queue.EntityTask,
		Submit: client.SubmitQueue,
		Apply: func(ctx context.Context, record json.RawMessage) (int, error) {
			var t domain.Task
			if err := json.Unmarshal(record, &t); err != nil {
				return 0, err
			}
			if err := cache.Put(ctx, []domain.Task{t}); err != nil {
				return 0, err
			}
			return t.ID, nil
		},
		Drop: func(ctx context.Context, id int) error {
			err := cache.Delete(ctx, id)
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				return nil
			}
			return err
		},
		Pull: func(ctx context.Context) error {
			tasks, err := client.List(ctx, false)
			if err != nil {
				return err
			}
			return cache.Put(ctx, tasks)
		},
	}
}

// GroupTarget wires the group entity type.
func GroupTarget(cache repository.GroupCache, client *remote.GroupClient, logger *zap.Logger) Target {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Target{
		Entity: queue.EntityGroup,
		Submit: client.SubmitQueue,
		Apply: func(ctx context.Context, record json.RawMessage) (int, error) {
			var g domain.Group
			if err := json.Unmarshal(record, &g); err != nil {
				return 0, err
			}
			if err := cache.Put(ctx, []domain.Group{g}); err != nil {
				return 0, err
			}
			return g.ID, nil
		},
		Drop: func(ctx context.Context, id int) error {
			err := cache.Delete(ctx, id)
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				return nil
			}
			return err
		},
		Pull: func(ctx context.Context) error {
			groups, err := client.List(ctx)
			if err != nil {
				return err
			}
			return cache.Put(ctx, groups)
		},
	}
}

// UserTarget wires the user entity type.
func UserTarget(cache repository.UserCache, client *remote.UserClient, logger *zap.Logger) Target {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Target{
		Entity: queue.EntityUser,
		Submit: client.SubmitQueue,
		Apply: func(ctx context.Context, record json.RawMessage) (int, error) {
			var u domain.User
			if err := json.Unmarshal(record, &u); err != nil {
				return 0, err
			}
			if err := cache.Put(ctx, []domain.User{u}); err != nil {
				return 0, err
			}
			return u.ID, nil
		},
		Drop: func(ctx context.Context, id int) error {
			err := cache.Delete(ctx, id)
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				return nil
			}
			return err
		},
		Pull: func(ctx context.Context) error {
			users, err := client.List(ctx)
			if err != nil {
				return err
			}
			return cache.Put(ctx, users)
		},
	}
}
