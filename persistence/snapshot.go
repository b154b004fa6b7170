package persistence

import (
	"errors"

	"github.com/flarexio/userdash/conf"
	"github.com/flarexio/userdash/persistence/db"
	"github.com/flarexio/userdash/persistence/inmem"
	"github.com/flarexio/userdash/persistence/kv"
	"github.com/flarexio/userdash/persistence/redis"
	"github.com/flarexio/userdash/user"
)

func NewSnapshotRepository(cfg conf.Persistence) (user.SnapshotRepository, error) {
	switch cfg.Driver {
	case conf.SQLite:
		return db.NewSnapshotRepository(cfg)
	case conf.BadgerDB:
		return kv.NewSnapshotRepository(cfg)
	case conf.Redis:
		return redis.NewSnapshotRepository(cfg)
	case conf.InMem:
		return inmem.NewSnapshotRepository()
	default:
		return nil, errors.New("driver not supported")
	}
}
