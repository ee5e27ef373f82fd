package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/locallibrary/internal/entities"
)

// sqliteParams keeps concurrent request handlers from failing on a busy database.
const sqliteParams = "_busy_timeout=5000&_journal_mode=WAL"

type Database struct {
	DB *gorm.DB
}

// Models lists every table owned by the catalog, in migration order.
func Models() []any {
	return []any{
		&entities.User{},
		&entities.Genre{},
		&entities.Author{},
		&entities.Book{},
		&entities.BookInstance{},
		&entities.AuditEvent{},
	}
}

func NewDatabase(dbPath string, logLevel string) (*Database, error) {
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?" + sqliteParams
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(ParseLogLevel(logLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Schema bootstrap only; column changes are not migrated
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

// ParseLogLevel maps a configuration value onto a gorm log level.
// Unknown values fall back to warn.
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Ping checks that the underlying connection is usable.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
