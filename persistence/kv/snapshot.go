package kv

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/flarexio/userdash/conf"
	"github.com/flarexio/userdash/user"
)

const keyPrefix = "snapshots/"

func NewSnapshotRepository(cfg conf.Persistence) (user.SnapshotRepository, error) {
	opts := badger.DefaultOptions(cfg.Host + "/" + cfg.Name)
	if cfg.InMem {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	repo := new(snapshotRepository)
	repo.db = db
	return repo, nil
}

type snapshotRepository struct {
	db *badger.DB
}

func (repo *snapshotRepository) Save(ctx context.Context, key string, data []byte) error {
	return repo.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key), data)
	})
}

func (repo *snapshotRepository) Delete(ctx context.Context, key string) error {
	return repo.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + key))
	})
}

func (repo *snapshotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := repo.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, user.ErrSnapshotNotFound
		}

		return nil, err
	}

	return data, nil
}

func (repo *snapshotRepository) Close() error {
	return repo.db.Close()
}

func (repo *snapshotRepository) Truncate() error {
	return repo.db.DropPrefix([]byte(keyPrefix))
}
