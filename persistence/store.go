// Package persistence indexes checkpoint files for local multi-run
// bookkeeping (which backtest produced which file, and under which
// config). It never encodes the checkpoint payload itself — that stays
// the canonical msgpack format in package checkpoint.
package persistence

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CheckpointRecord indexes one saved checkpoint file.
type CheckpointRecord struct {
	ID         uint `gorm:"primarykey"`
	BacktestID string `gorm:"index"`
	Path       string
	ConfigHash string
	SavedAt    time.Time
}

// Store is a sqlite-backed index of checkpoint files.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if necessary) a sqlite database at path and
// migrates the checkpoint index table.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("persistence: failed to open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&CheckpointRecord{}); err != nil {
		return nil, fmt.Errorf("persistence: migration failed: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts an index entry for a saved checkpoint file.
func (s *Store) Record(backtestID, path, configHash string, savedAt time.Time) error {
	rec := CheckpointRecord{BacktestID: backtestID, Path: path, ConfigHash: configHash, SavedAt: savedAt}
	if err := s.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("persistence: failed to record checkpoint for %s: %w", backtestID, err)
	}
	return nil
}

// Latest returns the most recently saved checkpoint record for a backtest
// ID, if any.
func (s *Store) Latest(backtestID string) (*CheckpointRecord, error) {
	var rec CheckpointRecord
	err := s.db.Where("backtest_id = ?", backtestID).Order("saved_at desc").First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("persistence: lookup failed for %s: %w", backtestID, err)
	}
	return &rec, nil
}

// All returns every indexed checkpoint record for a backtest ID, newest first.
func (s *Store) All(backtestID string) ([]CheckpointRecord, error) {
	var recs []CheckpointRecord
	err := s.db.Where("backtest_id = ?", backtestID).Order("saved_at desc").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("persistence: list failed for %s: %w", backtestID, err)
	}
	return recs, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
