// Package storage implements a fiber.Storage on top of gorm, used for the
// sqlite session backend.
package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/entra-rp/entra-rp/internal/db/models"
)

// DefaultTable holds the sessions unless Config.Table is set.
const DefaultTable = "sessions"

var _ fiber.Storage = (*Storage)(nil)

// Config of the gorm storage.
type Config struct {
	Table string
	// GCInterval between removals of expired rows, 0 disables the collector.
	GCInterval time.Duration
}

// Storage keeps session bytes in a gorm table.
type Storage struct {
	db    *gorm.DB
	table string
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

// New migrates the table and starts the garbage collector.
func New(db *gorm.DB, cfg Config) (*Storage, error) {
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}

	if err := db.Table(cfg.Table).AutoMigrate(&models.Session{}); err != nil {
		return nil, err //nolint:wrapcheck
	}

	s := &Storage{
		db:    db,
		table: cfg.Table,
		now:   time.Now,
		done:  make(chan struct{}),
	}

	if cfg.GCInterval > 0 {
		go s.gc(cfg.GCInterval)
	}

	return s, nil
}

// Get returns nil without error for unknown or expired keys.
func (s *Storage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	var row models.Session

	err := s.db.Table(s.table).Where("id = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if row.ExpiresAt != 0 && row.ExpiresAt <= s.now().Unix() {
		return nil, nil
	}

	return row.Value, nil
}

// Set stores val, exp of 0 keeps it forever. Empty keys or values are ignored.
func (s *Storage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	var expiresAt int64
	if exp > 0 {
		expiresAt = s.now().Add(exp).Unix()
	}

	return s.db.Table(s.table).Clauses(clause.OnConflict{ //nolint:wrapcheck
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
	}).Create(&models.Session{ID: key, Value: val, ExpiresAt: expiresAt}).Error
}

// Delete removes key.
func (s *Storage) Delete(key string) error {
	if key == "" {
		return nil
	}

	return s.db.Table(s.table).Where("id = ?", key).Delete(&models.Session{}).Error //nolint:wrapcheck
}

// Reset removes every row.
func (s *Storage) Reset() error {
	return s.db.Table(s.table).Where("1 = 1").Delete(&models.Session{}).Error //nolint:wrapcheck
}

// Close stops the collector and closes the database.
func (s *Storage) Close() error {
	s.once.Do(func() { close(s.done) })

	sqlDB, err := s.db.DB()
	if err != nil {
		return err //nolint:wrapcheck
	}

	return sqlDB.Close() //nolint:wrapcheck
}

// DeleteExpired removes rows whose expiry passed.
func (s *Storage) DeleteExpired() (int64, error) {
	res := s.db.Table(s.table).
		Where("expires_at <> 0 AND expires_at <= ?", s.now().Unix()).
		Delete(&models.Session{})

	return res.RowsAffected, res.Error //nolint:wrapcheck
}

func (s *Storage) gc(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if n, err := s.DeleteExpired(); err != nil {
				log.Error().Err(err).Str("table", s.table).Msg("failed to delete expired sessions")
			} else if n > 0 {
				log.Debug().Int64("count", n).Msg("expired sessions removed")
			}
		}
	}
}
