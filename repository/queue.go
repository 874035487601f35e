package repository

import (
	"time"

	"github.com/chorehub/client/internal/infrastructure/queue"
)

// SyncQueue is the persisted FIFO of mutations awaiting reconciliation.
// Enqueue assigns the timestamp; Pending returns items in timestamp order,
// the ordering contract the server replays mutations by.
type SyncQueue interface {
	Enqueue(item queue.Item) (*queue.Item, error)
	Pending(entity queue.Entity) ([]queue.Item, error)
	Failed(entity queue.Entity) ([]queue.Item, error)
	Remove(id uint64) error
	DropEntity(entity queue.Entity, entityID int) error
	RewritePayload(entity queue.Entity, entityID int, payload []byte) error
	MarkSyncing(ids []uint64) error
	MarkPending(ids []uint64) error
	MarkFailed(id uint64, reason string) error
	Size() (int, error)
	SizeBytes() (int, error)
	PurgeFailed(olderThan time.Time) error
}
