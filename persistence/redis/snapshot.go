package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flarexio/userdash/conf"
	"github.com/flarexio/userdash/user"
)

const keyPrefix = "userdash:snapshots:"

func NewSnapshotRepository(cfg conf.Persistence) (user.SnapshotRepository, error) {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 6379
	}

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + strconv.Itoa(port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewSnapshotRepositoryWithClient(client), nil
}

func NewSnapshotRepositoryWithClient(client *redis.Client) user.SnapshotRepository {
	return &snapshotRepository{client}
}

type snapshotRepository struct {
	client *redis.Client
}

func (repo *snapshotRepository) Save(ctx context.Context, key string, data []byte) error {
	if err := repo.client.Set(ctx, keyPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (repo *snapshotRepository) Delete(ctx context.Context, key string) error {
	if err := repo.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}

	return nil
}

func (repo *snapshotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := repo.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, user.ErrSnapshotNotFound
		}

		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	return data, nil
}

func (repo *snapshotRepository) Close() error {
	return repo.client.Close()
}
