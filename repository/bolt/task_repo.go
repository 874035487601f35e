package bolt

import (
	"context"
	"encoding/json"

	bboltdb "go.etcd.io/bbolt"

	"github.com/chorehub/client/domain"
	"github.com/chorehub/client/internal/infrastructure/boltdb"
	"github.com/chorehub/client/repository"
)

type taskRepository struct {
	db     *bboltdb.DB
	bucket []byte
}

// NewTaskRepository returns a BoltDB-backed implementation of TaskCache.
func NewTaskRepository(db *bboltdb.DB) repository.TaskCache {
	return &taskRepository{db: db, bucket: []byte(boltdb.BucketTasks)}
}

func (r *taskRepository) Get(ctx context.Context, id int) (*domain.Task, error) {
	var task *domain.Task
	err := r.db.View(func(tx *bboltdb.Tx) error {
		raw := tx.Bucket(r.bucket).Get(idKey(id))
		if raw == nil {
			return domain.ErrTaskNotFound
		}
		var t domain.Task
		if err := json.Unmarshal(raw, &t); err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "corrupt task record", err)
		}
		task = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Put(ctx context.Context, tasks []domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return r.db.Update(func(tx *bboltdb.Tx) error {
		b := tx.Bucket(r.bucket)
		for i := range tasks {
			tasks[i].Normalize()
			raw, err := json.Marshal(&tasks[i])
			if err != nil {
				return err
			}
			if err := b.Put(idKey(tasks[i].ID), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *taskRepository) Delete(ctx context.Context, id int) error {
	return r.db.Update(func(tx *bboltdb.Tx) error {
		b := tx.Bucket(r.bucket)
		if b.Get(idKey(id)) == nil {
			return domain.ErrTaskNotFound
		}
		return b.Delete(idKey(id))
	})
}

func (r *taskRepository) ScanAll(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.View(func(tx *bboltdb.Tx) error {
		c := tx.Bucket(r.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var t domain.Task
			if err := json.Unmarshal(v, &t); err != nil {
				continue
			}
			tasks = append(tasks, t)
		}
		return nil
	})
	return tasks, err
}

func (r *taskRepository) NextPlaceholderID(ctx context.Context) (int, error) {
	var id int
	err := r.db.Update(func(tx *bboltdb.Tx) error {
		var err error
		id, err = nextPlaceholder(tx.Bucket(r.bucket))
		return err
	})
	return id, err
}
