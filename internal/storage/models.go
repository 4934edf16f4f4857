package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned by every backend when no value is stored under a key.
var ErrNotFound = errors.New("storage: key not found")

// Entry is one namespaced value in the key-value table.
type Entry struct {
	Key       string `gorm:"column:entry_key;primaryKey"`
	Value     string
	UpdatedAt time.Time
}

func (Entry) TableName() string {
	return "ledger_entries"
}
