package bolt

import (
	"context"
	"encoding/json"

	bboltdb "go.etcd.io/bbolt"

	"github.com/chorehub/client/domain"
	"github.com/chorehub/client/internal/infrastructure/boltdb"
	"github.com/chorehub/client/repository"
)

type groupRepository struct {
	db     *bboltdb.DB
	bucket []byte
}

// NewGroupRepository returns a BoltDB-backed implementation of GroupCache.
func NewGroupRepository(db *bboltdb.DB) repository.GroupCache {
	return &groupRepository{db: db, bucket: []byte(boltdb.BucketGroups)}
}

func (r *groupRepository) Get(ctx context.Context, id int) (*domain.Group, error) {
	var group *domain.Group
	err := r.db.View(func(tx *bboltdb.Tx) error {
		raw := tx.Bucket(r.bucket).Get(idKey(id))
		if raw == nil {
			return domain.ErrGroupNotFound
		}
		var g domain.Group
		if err := json.Unmarshal(raw, &g); err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "corrupt group record", err)
		}
		group = &g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (r *groupRepository) Put(ctx context.Context, groups []domain.Group) error {
	if len(groups) == 0 {
		return nil
	}
	return r.db.Update(func(tx *bboltdb.Tx) error {
		b := tx.Bucket(r.bucket)
		for i := range groups {
			groups[i].Normalize()
			raw, err := json.Marshal(&groups[i])
			if err != nil {
				return err
			}
			if err := b.Put(idKey(groups[i].ID), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *groupRepository) Delete(ctx context.Context, id int) error {
	return r.db.Update(func(tx *bboltdb.Tx) error {
		b := tx.Bucket(r.bucket)
		if b.Get(idKey(id)) == nil {
			return domain.ErrGroupNotFound
		}
		return b.Delete(idKey(id))
	})
}

func (r *groupRepository) ScanAll(ctx context.Context) ([]domain.Group, error) {
	var groups []domain.Group
	err := r.db.View(func(tx *bboltdb.Tx) error {
		c := tx.Bucket(r.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var g domain.Group
			if err := json.Unmarshal(v, &g); err != nil {
				continue
			}
			groups = append(groups, g)
		}
		return nil
	})
	return groups, err
}

func (r *groupRepository) NextPlaceholderID(ctx context.Context) (int, error) {
	var id int
	err := r.db.Update(func(tx *bboltdb.Tx) error {
		var err error
		id, err = nextPlaceholder(tx.Bucket(r.bucket))
		return err
	})
	return id, err
}
