package bolt

import (
	"context"
	"encoding/json"

	bboltdb "go.etcd.io/bbolt"

	"github.com/chorehub/client/domain"
	"github.com/chorehub/client/internal/infrastructure/boltdb"
	"github.com/chorehub/client/repository"
)

type userRepository struct {
	db     *bboltdb.DB
	bucket []byte
}

// NewUserRepository returns a BoltDB-backed implementation of UserCache.
func NewUserRepository(db *bboltdb.DB) repository.UserCache {
	return &userRepository{db: db, bucket: []byte(boltdb.BucketUsers)}
}

func (r *userRepository) Get(ctx context.Context, id int) (*domain.User, error) {
	var user *domain.User
	err := r.db.View(func(tx *bboltdb.Tx) error {
		raw := tx.Bucket(r.bucket).Get(idKey(id))
		if raw == nil {
			return domain.ErrUserNotFound
		}
		var u domain.User
		if err := json.Unmarshal(raw, &u); err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "corrupt user record", err)
		}
		user = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Put(ctx context.Context, users []domain.User) error {
	if len(users) == 0 {
		return nil
	}
	return r.db.Update(func(tx *bboltdb.Tx) error {
		b := tx.Bucket(r.bucket)
		for i := range users {
			raw, err := json.Marshal(&users[i])
			if err != nil {
				return err
			}
			if err := b.Put(idKey(users[i].ID), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *userRepository) Delete(ctx context.Context, id int) error {
	return r.db.Update(func(tx *bboltdb.Tx) error {
		b := tx.Bucket(r.bucket)
		if b.Get(idKey(id)) == nil {
			return domain.ErrUserNotFound
		}
		return b.Delete(idKey(id))
	})
}

func (r *userRepository) ScanAll(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.View(func(tx *bboltdb.Tx) error {
		c := tx.Bucket(r.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var u domain.User
			if err := json.Unmarshal(v, &u); err != nil {
				continue
			}
			users = append(users, u)
		}
		return nil
	})
	return users, err
}

func (r *userRepository) NextPlaceholderID(ctx context.Context) (int, error) {
	var id int
	err := r.db.Update(func(tx *bboltdb.Tx) error {
		var err error
		id, err = nextPlaceholder(tx.Bucket(r.bucket))
		return err
	})
	return id, err
}
