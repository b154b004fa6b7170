package user

import (
	"context"
	"errors"
)

var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// SnapshotRepository is a durable key-value slot holding serialized
// state snapshots.
type SnapshotRepository interface {
	// Command

	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error

	// Query

	Load(ctx context.Context, key string) ([]byte, error)

	Close() error
}
