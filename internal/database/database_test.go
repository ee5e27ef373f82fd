package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestNewDatabase(t *testing.T) {
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"), "silent")
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"users", "genres", "authors", "books", "book_genres", "book_instances", "audit_events"} {
		assert.True(t, db.DB.Migrator().HasTable(table), "table %s should exist", table)
	}

	assert.NoError(t, db.Ping())
}

func TestNewDatabase_ReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := NewDatabase(path, "silent")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewDatabase(path, "silent")
	require.NoError(t, err)
	defer db.Close()
	assert.True(t, db.DB.Migrator().HasTable("book_instances"))
}

func TestPingAfterClose(t *testing.T) {
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"), "silent")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	assert.Error(t, db.Ping())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, ParseLogLevel("silent"))
	assert.Equal(t, logger.Error, ParseLogLevel("ERROR"))
	assert.Equal(t, logger.Info, ParseLogLevel("info"))
	assert.Equal(t, logger.Warn, ParseLogLevel("warn"))
	assert.Equal(t, logger.Warn, ParseLogLevel("verbose"))
}
