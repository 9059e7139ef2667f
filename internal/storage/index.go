package storage

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RunRecord is the searchable summary of a saved run.
type RunRecord struct {
	ID        string    `gorm:"primaryKey"`
	Script    string    `gorm:"index"`
	Mode      string    `gorm:"index"`
	Layout    string    `gorm:"index"`
	RobotType string
	Timestamp time.Time `gorm:"index"`
	Duration  float64
	Ticks     int
	TimedOut  bool
	Distance  float64
	LineTime  float64
}

func recordOf(meta RunMetadata) RunRecord {
	return RunRecord{
		ID:        meta.ID,
		Script:    meta.Script,
		Mode:      meta.Mode,
		Layout:    meta.Layout,
		RobotType: meta.RobotType,
		Timestamp: meta.Timestamp,
		Duration:  meta.Duration,
		Ticks:     meta.Ticks,
		TimedOut:  meta.TimedOut,
		Distance:  meta.Metrics["distance"],
		LineTime:  meta.Metrics["line_time"],
	}
}

// Query filters indexed runs. Empty fields match everything.
type Query struct {
	Script string
	Mode   string
	Layout string
	Limit  int
}

// Index is a sqlite table of run summaries next to the run directories.
type Index struct {
	db  *gorm.DB
	log zerolog.Logger
}

// OpenIndex opens or creates the index at path. An empty path keeps it in
// memory.
func OpenIndex(path string, log zerolog.Logger) (*Index, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening run index: %w", err)
	}
	if path == "" {
		// every connection would otherwise get its own database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		return nil, fmt.Errorf("migrating run index: %w", err)
	}
	return &Index{db: db, log: log.With().Str("component", "index").Logger()}, nil
}

// Put inserts meta or replaces the record with the same id.
func (ix *Index) Put(meta RunMetadata) error {
	rec := recordOf(meta)
	return ix.db.Save(&rec).Error
}

// Find returns matching runs, oldest first.
func (ix *Index) Find(q Query) ([]RunRecord, error) {
	tx := ix.db.Model(&RunRecord{})
	if q.Script != "" {
		tx = tx.Where("script = ?", q.Script)
	}
	if q.Mode != "" {
		tx = tx.Where("mode = ?", q.Mode)
	}
	if q.Layout != "" {
		tx = tx.Where("layout = ?", q.Layout)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var recs []RunRecord
	if err := tx.Order("timestamp").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (ix *Index) Count() (int64, error) {
	var n int64
	err := ix.db.Model(&RunRecord{}).Count(&n).Error
	return n, err
}

func (ix *Index) Close() error {
	sqlDB, err := ix.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Reindex adds every run directory of s to ix. Directories without
// readable metadata are skipped.
func (s *Store) Reindex(ix *Index) (int, error) {
	runs, err := s.List()
	if err != nil {
		return 0, err
	}
	for _, meta := range runs {
		if err := ix.Put(meta); err != nil {
			return 0, err
		}
	}
	ix.log.Debug().Int("runs", len(runs)).Msg("reindexed")
	return len(runs), nil
}
