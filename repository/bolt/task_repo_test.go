package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bboltdb "go.etcd.io/bbolt"

	"github.com/chorehub/client/domain"
	"github.com/chorehub/client/internal/infrastructure/boltdb"
)

func openTestDB(t *testing.T) *bboltdb.DB {
	t.Helper()
	db, err := boltdb.Open(filepath.Join(t.TempDir(), "cache.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleTask(id int, title string) domain.Task {
	return domain.Task{
		ID:           id,
		Title:        title,
		Type:         domain.TaskOneTime,
		ReminderTime: "2026-08-31T09:00:00",
		Enabled:      true,
	}
}

func TestTaskRepositoryRoundTrip(t *testing.T) {
	repo := NewTaskRepository(openTestDB(t))
	ctx := context.Background()

	task := sampleTask(12, "mow lawn")
	task.AssignedUserIDs = []int{5, 1, 3}
	require.NoError(t, repo.Put(ctx, []domain.Task{task}))

	got, err := repo.Get(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, "mow lawn", got.Title)
	assert.Equal(t, []int{1, 3, 5}, got.AssignedUserIDs, "assignees are stored sorted")

	_, err = repo.Get(ctx, 99)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestTaskRepositoryPutOverwrites(t *testing.T) {
	repo := NewTaskRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, []domain.Task{sampleTask(1, "before")}))
	require.NoError(t, repo.Put(ctx, []domain.Task{sampleTask(1, "after")}))

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)

	all, err := repo.ScanAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTaskRepositoryDelete(t *testing.T) {
	repo := NewTaskRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, []domain.Task{sampleTask(4, "x")}))
	require.NoError(t, repo.Delete(ctx, 4))

	err := repo.Delete(ctx, 4)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestPlaceholderIDsAreNegativeAndDistinct(t *testing.T) {
	repo := NewTaskRepository(openTestDB(t))
	ctx := context.Background()

	first, err := repo.NextPlaceholderID(ctx)
	require.NoError(t, err)
	second, err := repo.NextPlaceholderID(ctx)
	require.NoError(t, err)

	assert.Negative(t, first)
	assert.Negative(t, second)
	assert.NotEqual(t, first, second)
}

func TestPlaceholderAndServerRowsCoexist(t *testing.T) {
	repo := NewTaskRepository(openTestDB(t))
	ctx := context.Background()

	placeholder, err := repo.NextPlaceholderID(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Put(ctx, []domain.Task{
		sampleTask(placeholder, "local draft"),
		sampleTask(7, "server task"),
	}))

	all, err := repo.ScanAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	local, err := repo.Get(ctx, placeholder)
	require.NoError(t, err)
	assert.True(t, local.IsLocal())
}
