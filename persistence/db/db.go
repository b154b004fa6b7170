package db

import (
	"time"
)

type DataModel struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot maps to the snapshots table.
type Snapshot struct {
	Key   string `gorm:"primaryKey"`
	Value []byte
	DataModel
}
