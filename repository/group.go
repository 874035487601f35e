package repository

import (
	"context"

	"github.com/chorehub/client/domain"
)

// GroupCache is the local durable store for groups.
type GroupCache interface {
	Get(ctx context.Context, id int) (*domain.Group, error)
	Put(ctx context.Context, groups []domain.Group) error
	Delete(ctx context.Context, id int) error
	ScanAll(ctx context.Context) ([]domain.Group, error)
	NextPlaceholderID(ctx context.Context) (int, error)
}
