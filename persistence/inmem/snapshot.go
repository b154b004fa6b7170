package inmem

import (
	"context"

	"github.com/patrickmn/go-cache"

	"github.com/flarexio/userdash/user"
)

// NewSnapshotRepository returns a slot that lives as long as the process.
// It backs tests and session-only runs.
func NewSnapshotRepository() (user.SnapshotRepository, error) {
	repo := &snapshotRepository{
		store: cache.New(cache.NoExpiration, 0),
	}

	return repo, nil
}

type snapshotRepository struct {
	store *cache.Cache
}

func (repo *snapshotRepository) Save(ctx context.Context, key string, data []byte) error {
	value := make([]byte, len(data))
	copy(value, data)

	repo.store.Set(key, value, cache.NoExpiration)
	return nil
}

func (repo *snapshotRepository) Delete(ctx context.Context, key string) error {
	repo.store.Delete(key)
	return nil
}

func (repo *snapshotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	value, ok := repo.store.Get(key)
	if !ok {
		return nil, user.ErrSnapshotNotFound
	}

	data, ok := value.([]byte)
	if !ok {
		return nil, user.ErrSnapshotNotFound
	}

	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

func (repo *snapshotRepository) Close() error {
	repo.store.Flush()
	return nil
}
