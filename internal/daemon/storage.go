package daemon

import (
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/gofiber/storage/mysql/v2"
	"github.com/gofiber/storage/postgres/v3"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/entra-rp/entra-rp/internal/config"
	"github.com/entra-rp/entra-rp/internal/db/dsn"
	"github.com/entra-rp/entra-rp/internal/db/storage"
)

// Storage types of session.storage.type.
const (
	StorageMemory   = "memory"
	StorageMySQL    = "mysql"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// ErrUnknownStorage is returned for an unsupported session.storage.type.
var ErrUnknownStorage = errors.New("unknown session storage type")

// NewStorage opens the session storage backend selected by cfg.
// The mysql and postgres storages connect on creation.
func NewStorage(cfg *config.Storage) (fiber.Storage, error) {
	table := cfg.Table
	if table == "" {
		table = storage.DefaultTable
	}

	switch cfg.Type {
	case "", StorageMemory:
		return memory.New(memory.Config{GCInterval: cfg.GCInterval}), nil

	case StorageMySQL:
		return mysql.New(mysql.Config{
			ConnectionURI: dsn.MySQL(&cfg.DB),
			Table:         table,
			GCInterval:    cfg.GCInterval,
		}), nil

	case StoragePostgres:
		return postgres.New(postgres.Config{
			ConnectionURI: dsn.Postgres(&cfg.DB),
			Table:         table,
			GCInterval:    cfg.GCInterval,
		}), nil

	case StorageSQLite:
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to open sqlite session database")
		}

		return storage.New(db, storage.Config{Table: table, GCInterval: cfg.GCInterval})

	default:
		return nil, errors.Wrap(ErrUnknownStorage, cfg.Type)
	}
}
