package usecase

import "github.com/chorehub/client/internal/infrastructure/queue"

// SyncTrigger kicks a background reconciliation pass. Implementations must
// never block the caller; the mutating call has already returned by the time
// any network I/O happens.
type SyncTrigger interface {
	Trigger(entities ...queue.Entity)
}
