package db

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/flarexio/userdash/conf"
	"github.com/flarexio/userdash/user"
)

func NewSnapshotRepository(cfg conf.Persistence) (user.SnapshotRepository, error) {
	filename := cfg.Host + "/" + cfg.Name + ".db"
	if cfg.InMem {
		filename = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(filename), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Snapshot{}); err != nil {
		return nil, err
	}

	repo := new(snapshotRepository)
	repo.db = db
	return repo, nil
}

type snapshotRepository struct {
	db *gorm.DB
}

func (repo *snapshotRepository) Save(ctx context.Context, key string, data []byte) error {
	snapshot := Snapshot{
		Key:   key,
		Value: data,
	}

	// Upsert
	result := repo.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&snapshot)

	if err := result.Error; err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}

	return nil
}

func (repo *snapshotRepository) Delete(ctx context.Context, key string) error {
	result := repo.db.WithContext(ctx).Delete(&Snapshot{}, "key = ?", key)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return nil
}

func (repo *snapshotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var snapshot Snapshot

	// Find instead of Take keeps a missing key out of the error log
	result := repo.db.WithContext(ctx).Where("key = ?", key).Find(&snapshot)
	if err := result.Error; err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}

	if result.RowsAffected == 0 {
		return nil, user.ErrSnapshotNotFound
	}

	return snapshot.Value, nil
}

func (repo *snapshotRepository) Close() error {
	sqlDB, err := repo.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func (repo *snapshotRepository) Truncate() error {
	return repo.db.Exec("DELETE FROM snapshots").Error
}
