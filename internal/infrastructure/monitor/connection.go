package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chorehub/client/repository"
)

// Pinger abstracts the remote reachability probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor tracks whether the remote service is reachable and how much work
// the sync queue is holding. The reconciler skips drain cycles while the
// device is offline.
type Monitor struct {
	remote Pinger
	store  repository.SyncQueue

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	logger   *zap.Logger
}

func New(remote Pinger, store repository.SyncQueue, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		remote:   remote,
		store:    store,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	close(m.stopCh)
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Remote
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh()
	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh() {
	cacheOK, size, bytes := m.checkQueue()
	status := Status{
		Remote:     m.checkRemote(),
		Cache:      cacheOK,
		QueueSize:  size,
		QueueBytes: bytes,
		LastCheck:  time.Now(),
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *Monitor) checkRemote() bool {
	if m.remote == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return m.remote.Ping(ctx) == nil
}

func (m *Monitor) checkQueue() (bool, int, int) {
	if m.store == nil {
		return false, 0, 0
	}
	size, err := m.store.Size()
	if err != nil {
		m.logger.Warn("queue size check failed", zap.Error(err))
		return false, size, 0
	}
	bytes, err := m.store.SizeBytes()
	if err != nil {
		m.logger.Warn("queue byte accounting failed", zap.Error(err))
		return true, size, 0
	}
	return true, size, bytes
}
