package repository

import (
	"context"

	"github.com/chorehub/client/domain"
)

// TaskFilter narrows cache scans; zero values match everything.
type TaskFilter struct {
	EnabledOnly   bool
	CompletedOnly bool
	GroupID       *int
}

// TaskCache is the local durable store for tasks. All reads served to the UI
// come from here; the reconciler overwrites rows with server state.
type TaskCache interface {
	Get(ctx context.Context, id int) (*domain.Task, error)
	Put(ctx context.Context, tasks []domain.Task) error
	Delete(ctx context.Context, id int) error
	ScanAll(ctx context.Context) ([]domain.Task, error)
	// NextPlaceholderID allocates a negative local id for a task created
	// while the server-assigned id is still unknown.
	NextPlaceholderID(ctx context.Context) (int, error)
}
