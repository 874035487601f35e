package repository

import (
	"context"

	"github.com/chorehub/client/domain"
)

// UserCache is the local durable store for users.
type UserCache interface {
	Get(ctx context.Context, id int) (*domain.User, error)
	Put(ctx context.Context, users []domain.User) error
	Delete(ctx context.Context, id int) error
	ScanAll(ctx context.Context) ([]domain.User, error)
	NextPlaceholderID(ctx context.Context) (int, error)
}
