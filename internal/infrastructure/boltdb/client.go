package boltdb

import (
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Bucket names shared by the cache repositories and the sync queue.
const (
	BucketTasks  = "tasks"
	BucketGroups = "groups"
	BucketUsers  = "users"
	BucketQueue  = "sync_queue"
)

// Open creates the BoltDB cache file and ensures all buckets exist.
func Open(path string, logger *zap.Logger) (*bolt.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	buckets := []string{BucketTasks, BucketGroups, BucketUsers, BucketQueue}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("local cache opened", zap.String("path", path))
	return db, nil
}
