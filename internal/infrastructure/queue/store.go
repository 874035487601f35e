package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Store persists the sync queue in BoltDB. Keys are built from the enqueue
// timestamp so cursor order is submission order.
type Store struct {
	db     *bolt.DB
	bucket []byte

	mu        sync.Mutex
	lastNanos int64
}

// Open initializes the BoltDB file and ensures the queue bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "sync_queue"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Wrap reuses an already-open BoltDB handle, sharing the file with the cache.
func Wrap(db *bolt.DB, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "sync_queue"
	}
	if db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		return nil, err
	}
	return &Store{db: db, bucket: []byte(bucket)}, nil
}

// Enqueue persists a new queue item. The timestamp is assigned here from a
// monotonically non-decreasing clock so two rapid local edits never share an
// ordering key. Returns the stored item with its assigned ID.
func (s *Store) Enqueue(item Item) (*Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	item.normalize()
	if err := item.Validate(); err != nil {
		return nil, err
	}
	item.Timestamp = s.nextTimestamp()

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		item.ID = seq
		item.bucketKey = []byte(buildKey(item))

		payload, err := json.Marshal(item)
		if err != nil {
			return err
		}
		return b.Put(item.bucketKey, payload)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Pending returns the items awaiting reconciliation for one entity type,
// sorted by timestamp ascending. Items left in the syncing state by an
// interrupted drain are included so a restart resumes them.
func (s *Store) Pending(entity Entity) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}

	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			if item.Entity != entity || item.Status == StatusFailed {
				continue
			}
			item.bucketKey = append([]byte(nil), k...)
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(a, b int) bool {
		if items[a].Timestamp.Equal(items[b].Timestamp) {
			return items[a].ID < items[b].ID
		}
		return items[a].Timestamp.Before(items[b].Timestamp)
	})
	return items, nil
}

// Failed returns the parked items for one entity type, oldest first.
func (s *Store) Failed(entity Entity) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			if item.Entity != entity || item.Status != StatusFailed {
				continue
			}
			item.bucketKey = append([]byte(nil), k...)
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

// Remove deletes a confirmed item from the queue.
func (s *Store) Remove(id uint64) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			if item.ID == id {
				return c.Delete()
			}
		}
		return nil
	})
}

// MarkSyncing transitions the given items so an interrupted drain is visible
// after a crash. The transition is cosmetic for ordering purposes; Pending
// still returns syncing items.
func (s *Store) MarkSyncing(ids []uint64) error {
	return s.transition(ids, func(item *Item) {
		item.Status = StatusSyncing
	})
}

// MarkPending reverts items to the pending state after a transient failure or
// a cancelled request, leaving retry ordering unchanged.
func (s *Store) MarkPending(ids []uint64) error {
	return s.transition(ids, func(item *Item) {
		item.Status = StatusPending
	})
}

// MarkFailed parks an item, recording the reason and bumping its retry count.
// The row is retained for auditability and manual retry, never dropped.
func (s *Store) MarkFailed(id uint64, reason string) error {
	return s.transition([]uint64{id}, func(item *Item) {
		item.Status = StatusFailed
		item.FailReason = reason
		item.RetryCount++
		item.LastRetry = time.Now()
	})
}

// DropEntity deletes every queued item for one entity id. A placeholder
// deleted before its create ever reached the server must leave no trace in
// the queue; there is nothing on the server to correlate a delete with.
func (s *Store) DropEntity(entity Entity, entityID int) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			if item.Entity == entity && item.EntityID == entityID {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// RewritePayload folds a later local edit into the still-pending create for a
// placeholder entity. The entity keeps exactly one queue item until the
// server assigns it a real id; its ordering key is untouched.
func (s *Store) RewritePayload(entity Entity, entityID int, payload []byte) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			if item.Entity != entity || item.EntityID != entityID ||
				item.Operation != OpCreate || item.Status == StatusFailed {
				continue
			}
			item.Payload = append([]byte(nil), payload...)
			item.SizeBytes = len(item.Payload)
			raw, err := json.Marshal(item)
			if err != nil {
				return err
			}
			return b.Put(append([]byte(nil), k...), raw)
		}
		return nil
	})
}

// Size returns the number of queued items.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// SizeBytes returns the payload bytes held by the queue, used for
// backpressure accounting.
func (s *Store) SizeBytes() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var total int
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			total += item.SizeBytes
		}
		return nil
	})
	return total, err
}

// PurgeFailed removes parked items older than the provided timestamp.
func (s *Store) PurgeFailed(olderThan time.Time) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			if item.Status == StatusFailed && item.Timestamp.Before(olderThan) {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) transition(ids []uint64, apply func(*Item)) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if len(ids) == 0 {
		return nil
	}
	wanted := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			if !wanted[item.ID] {
				continue
			}
			apply(&item)
			payload, err := json.Marshal(item)
			if err != nil {
				return err
			}
			if err := b.Put(append([]byte(nil), k...), payload); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) nextTimestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	nanos := time.Now().UnixNano()
	if nanos <= s.lastNanos {
		nanos = s.lastNanos + 1
	}
	s.lastNanos = nanos
	return time.Unix(0, nanos).UTC()
}

func buildKey(item Item) string {
	return fmt.Sprintf("%020d_%020d", item.Timestamp.UnixNano(), item.ID)
}
