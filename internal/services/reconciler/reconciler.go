package reconciler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/chorehub/client/domain"
	"github.com/chorehub/client/internal/infrastructure/queue"
	"github.com/chorehub/client/internal/remote"
	"github.com/chorehub/client/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// Notifier receives change events once reconciled state lands in the cache.
type Notifier interface {
	EntityChanged(entity queue.Entity, ids []int)
	SyncStateChanged(snap Snapshot)
}

// Config controls how frequently and how long reconciliation runs.
type Config struct {
	Interval     time.Duration
	DrainTimeout time.Duration
	PurgeAfter   time.Duration
}

// Reconciler drains the sync queue against the remote service and applies the
// post-merge server state back to the local cache. It holds no state between
// invocations beyond what it reads from the queue, so an interrupted cycle
// simply resumes on the next run.
type Reconciler struct {
	store    repository.SyncQueue
	monitor  ConnectionHealth
	targets  []Target
	board    *StatusBoard
	notifier Notifier
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      Config

	mu       sync.Mutex
	inflight map[queue.Entity]bool
}

func New(
	store repository.SyncQueue,
	monitor ConnectionHealth,
	targets []Target,
	board *StatusBoard,
	notifier Notifier,
	logger *zap.Logger,
	cfg Config,
) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = cfg.Interval
	}
	if board == nil {
		board = NewStatusBoard()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Reconciler{
		store:    store,
		monitor:  monitor,
		targets:  targets,
		board:    board,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
		inflight: make(map[queue.Entity]bool),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.DrainTimeout)
		defer cancel()
		if err := r.SyncAll(ctx); err != nil {
			r.logger.Error("scheduled sync failed", zap.Error(err))
		}
	}); err != nil {
		r.logger.Error("failed to schedule sync cycle",
			zap.String("schedule", schedule),
			zap.Error(err))
	}
	if cfg.PurgeAfter > 0 {
		if _, err := r.cron.AddFunc("@hourly", func() {
			if err := store.PurgeFailed(time.Now().Add(-cfg.PurgeAfter)); err != nil {
				r.logger.Warn("failed item purge failed", zap.Error(err))
			}
		}); err != nil {
			r.logger.Error("failed to schedule failed-item purge", zap.Error(err))
		}
	}

	return r
}

// Board exposes the sync-status observable.
func (r *Reconciler) Board() *StatusBoard {
	return r.board
}

// Start launches the cron scheduler.
func (r *Reconciler) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("reconciler started", zap.Duration("interval", r.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (r *Reconciler) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("reconciler stopped")
}

// Trigger kicks off a background cycle for the given entity types (all when
// none given). It never blocks the caller; overlapping triggers for the same
// entity type coalesce into the in-flight drain.
func (r *Reconciler) Trigger(entities ...queue.Entity) {
	targets := r.targets
	if len(entities) > 0 {
		wanted := make(map[queue.Entity]bool, len(entities))
		for _, e := range entities {
			wanted[e] = true
		}
		var filtered []Target
		for _, t := range r.targets {
			if wanted[t.Entity] {
				filtered = append(filtered, t)
			}
		}
		targets = filtered
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.DrainTimeout)
		defer cancel()
		for _, t := range targets {
			if err := r.Sync(ctx, t); err != nil {
				r.logger.Error("triggered sync failed",
					zap.String("entity", string(t.Entity)),
					zap.Error(err))
			}
		}
	}()
}

// SyncAll drains every entity type once.
func (r *Reconciler) SyncAll(ctx context.Context) error {
	var firstErr error
	for _, t := range r.targets {
		if err := r.Sync(ctx, t); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Sync drains the queue for one entity type and, when anything was pushed,
// refreshes the cache from the server. At most one drain per entity type
// runs at a time; a second invocation degrades to a no-op.
func (r *Reconciler) Sync(ctx context.Context, t Target) error {
	if r.monitor != nil && !r.monitor.IsOnline() {
		r.logger.Debug("skipping sync (offline)", zap.String("entity", string(t.Entity)))
		return nil
	}
	if !r.acquire(t.Entity) {
		return nil
	}
	defer r.release(t.Entity)

	pushed, err := r.drain(ctx, t)
	if err != nil {
		return err
	}
	if pushed > 0 && t.Pull != nil {
		if err := t.Pull(ctx); err != nil {
			r.logger.Warn("server-state pull failed",
				zap.String("entity", string(t.Entity)),
				zap.Error(err))
		} else if r.notifier != nil {
			r.notifier.EntityChanged(t.Entity, nil)
		}
	}
	return nil
}

// Refresh overwrites the cache with the server's current state regardless of
// queue contents. Used at startup and on explicit user refresh.
func (r *Reconciler) Refresh(ctx context.Context) error {
	var firstErr error
	for _, t := range r.targets {
		if t.Pull == nil {
			continue
		}
		if err := t.Pull(ctx); err != nil {
			r.logger.Warn("refresh failed", zap.String("entity", string(t.Entity)), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if r.notifier != nil {
			r.notifier.EntityChanged(t.Entity, nil)
		}
	}
	return firstErr
}

func (r *Reconciler) drain(ctx context.Context, t Target) (int, error) {
	items, err := r.store.Pending(t.Entity)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		// Empty queue: no cache writes, no network calls.
		r.setState(t.Entity, StateIdle, "")
		return 0, nil
	}

	// The queue already orders by timestamp; re-sort defensively since the
	// server treats the batch order as causal order.
	sort.Slice(items, func(a, b int) bool {
		if items[a].Timestamp.Equal(items[b].Timestamp) {
			return items[a].ID < items[b].ID
		}
		return items[a].Timestamp.Before(items[b].Timestamp)
	})

	ops := make([]remote.Operation, 0, len(items))
	ids := make([]uint64, 0, len(items))
	for _, item := range items {
		ops = append(ops, remote.EncodeOperation(item))
		ids = append(ids, item.ID)
	}

	r.setState(t.Entity, StateSyncing, "")
	if err := r.store.MarkSyncing(ids); err != nil {
		r.logger.Warn("failed to mark items syncing", zap.Error(err))
	}

	records, err := t.Submit(ctx, ops)
	if err != nil {
		if revertErr := r.store.MarkPending(ids); revertErr != nil {
			r.logger.Warn("failed to revert syncing items", zap.Error(revertErr))
		}
		if domain.IsDomainError(err, domain.ErrCodeUnavailable) {
			// Transient: queue untouched, unchanged ordering, next cycle
			// retries. Not an error for the caller.
			r.logger.Debug("sync deferred",
				zap.String("entity", string(t.Entity)),
				zap.Error(err))
			r.setState(t.Entity, StateIdle, "")
			return 0, nil
		}
		r.setState(t.Entity, StateFailed, err.Error())
		return 0, err
	}

	applied, conflicts := r.applyRecords(ctx, t, records)
	parked := r.settleItems(ctx, t, items, conflicts)

	state := StateSynced
	var lastErr string
	if parked > 0 {
		state = StateConflict
		lastErr = fmt.Sprintf("%d update(s) need manual resolution", parked)
	}
	r.setState(t.Entity, state, lastErr)

	if r.notifier != nil && len(applied) > 0 {
		r.notifier.EntityChanged(t.Entity, applied)
	}
	return len(items), nil
}

// applyRecords writes the server's post-merge records into the cache. Server
// state always wins over local optimistic state. One malformed record is
// skipped and logged, never aborting the batch.
func (r *Reconciler) applyRecords(ctx context.Context, t Target, records []remote.BatchRecord) ([]int, map[int]*remote.ConflictDetail) {
	var applied []int
	conflicts := make(map[int]*remote.ConflictDetail)

	for _, record := range records {
		if record.Conflict != nil {
			conflicts[record.Conflict.EntityID] = record.Conflict
			if len(record.Conflict.ServerData) > 0 {
				if id, err := t.Apply(ctx, record.Conflict.ServerData); err != nil {
					r.logger.Warn("skipping malformed conflict payload",
						zap.String("entity", string(t.Entity)),
						zap.Error(err))
				} else {
					applied = append(applied, id)
				}
			}
			continue
		}
		id, err := t.Apply(ctx, record.Entity)
		if err != nil {
			r.logger.Warn("skipping malformed record in batch response",
				zap.String("entity", string(t.Entity)),
				zap.Error(err))
			continue
		}
		applied = append(applied, id)
	}
	return applied, conflicts
}

// settleItems removes confirmed queue items and parks conflicted updates.
// Retrying a stale-revision update would reproduce the same conflict, so
// those rows transition to failed and wait for manual resolution.
func (r *Reconciler) settleItems(ctx context.Context, t Target, items []queue.Item, conflicts map[int]*remote.ConflictDetail) int {
	parked := 0
	for _, item := range items {
		if detail, ok := conflicts[item.EntityID]; ok && item.Operation == queue.OpUpdate {
			reason := detail.Message
			if reason == "" {
				reason = "revision mismatch"
			}
			if err := r.store.MarkFailed(item.ID, reason); err != nil {
				r.logger.Warn("failed to park conflicted item", zap.Error(err))
			}
			parked++
			continue
		}
		if item.Operation == queue.OpCreate && item.EntityID < 0 && t.Drop != nil {
			if err := t.Drop(ctx, item.EntityID); err != nil {
				r.logger.Warn("failed to drop placeholder row",
					zap.Int("placeholder_id", item.EntityID),
					zap.Error(err))
			}
		}
		if err := r.store.Remove(item.ID); err != nil {
			r.logger.Warn("failed to remove synced item", zap.Uint64("item_id", item.ID), zap.Error(err))
		}
	}
	return parked
}

func (r *Reconciler) setState(entity queue.Entity, state State, lastErr string) {
	pending, err := r.store.Pending(entity)
	if err != nil {
		r.logger.Warn("pending count unavailable",
			zap.String("entity", string(entity)),
			zap.Error(err))
	}
	failed, err := r.store.Failed(entity)
	if err != nil {
		r.logger.Warn("failed count unavailable",
			zap.String("entity", string(entity)),
			zap.Error(err))
	}
	snap := Snapshot{
		Entity:    entity,
		State:     state,
		Pending:   len(pending),
		Failed:    len(failed),
		LastError: lastErr,
		LastSync:  time.Now().UTC(),
	}
	r.board.Set(snap)
	if r.notifier != nil {
		r.notifier.SyncStateChanged(snap)
	}
}

func (r *Reconciler) acquire(entity queue.Entity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight[entity] {
		return false
	}
	r.inflight[entity] = true
	return true
}

func (r *Reconciler) release(entity queue.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, entity)
}
