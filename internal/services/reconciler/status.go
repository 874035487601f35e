package reconciler

import (
	"sync"
	"time"

	"github.com/chorehub/client/internal/infrastructure/queue"
)

// State summarizes where an entity type stands in the sync cycle.
type State string

const (
	StateIdle     State = "idle"
	StateSyncing  State = "syncing"
	StateSynced   State = "synced"
	StateFailed   State = "failed"
	StateConflict State = "conflict"
)

// Snapshot is the externally visible sync health for one entity type.
// Background reconciliation failures are reported here, never through the
// mutating call that queued the work.
type Snapshot struct {
	Entity    queue.Entity `json:"entity"`
	State     State        `json:"state"`
	Pending   int          `json:"pending"`
	Failed    int          `json:"failed"`
	LastError string       `json:"last_error,omitempty"`
	LastSync  time.Time    `json:"last_sync"`
}

// StatusBoard is the sync-status observable UI layers poll or subscribe to.
type StatusBoard struct {
	mu        sync.RWMutex
	snapshots map[queue.Entity]Snapshot
	subs      map[int]chan Snapshot
	nextSub   int
}

func NewStatusBoard() *StatusBoard {
	return &StatusBoard{
		snapshots: make(map[queue.Entity]Snapshot),
		subs:      make(map[int]chan Snapshot),
	}
}

// Set stores a snapshot and fans it out to subscribers. Slow subscribers miss
// updates rather than blocking the reconciler.
func (b *StatusBoard) Set(snap Snapshot) {
	b.mu.Lock()
	b.snapshots[snap.Entity] = snap
	subs := make([]chan Snapshot, 0, len(b.subs))
	for _, ch := range b.subs {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Get returns the snapshot for one entity type.
func (b *StatusBoard) Get(entity queue.Entity) Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snap, ok := b.snapshots[entity]
	if !ok {
		return Snapshot{Entity: entity, State: StateIdle}
	}
	return snap
}

// All returns every known snapshot.
func (b *StatusBoard) All() []Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Snapshot, 0, len(b.snapshots))
	for _, snap := range b.snapshots {
		out = append(out, snap)
	}
	return out
}

// Subscribe registers a listener channel. The returned cancel function must
// be called to release it.
func (b *StatusBoard) Subscribe() (<-chan Snapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSub
	b.nextSub++
	ch := make(chan Snapshot, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}
