package users

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/locallibrary/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "users.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db)
}

func TestRepository_CreateUser(t *testing.T) {
	repo := setupTestDB(t)

	user, err := repo.CreateUser("librarian", "lib@example.com")

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "librarian", user.Username)
	assert.Empty(t, user.TokenHash)
	assert.False(t, user.CanMarkReturned)
	assert.False(t, user.CanCreateUpdateDestroy)
}

func TestRepository_CreateUser_DuplicateUsername(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.CreateUser("librarian", "")
	require.NoError(t, err)
	_, err = repo.CreateUser("librarian", "")
	assert.Error(t, err)
}

func TestRepository_Lookups(t *testing.T) {
	repo := setupTestDB(t)
	user, err := repo.CreateUser("patron", "")
	require.NoError(t, err)

	byID, err := repo.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "patron", byID.Username)

	byName, err := repo.GetUserByUsername("patron")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = repo.GetUserByUsername("nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_TokenHash(t *testing.T) {
	repo := setupTestDB(t)
	user, err := repo.CreateUser("patron", "")
	require.NoError(t, err)

	t.Run("empty hash never matches", func(t *testing.T) {
		_, err := repo.GetUserByTokenHash("")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("stored hash matches", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, repo.SetTokenHash(user.ID, "abc123", &now))

		found, err := repo.GetUserByTokenHash("abc123")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.NotNil(t, found.TokenCreatedAt)
	})

	t.Run("cleared hash no longer matches", func(t *testing.T) {
		require.NoError(t, repo.SetTokenHash(user.ID, "", nil))
		_, err := repo.GetUserByTokenHash("abc123")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.ErrorIs(t, repo.SetTokenHash(999, "x", nil), gorm.ErrRecordNotFound)
	})
}

func TestRepository_SetFlag(t *testing.T) {
	repo := setupTestDB(t)
	user, err := repo.CreateUser("librarian", "")
	require.NoError(t, err)

	require.NoError(t, repo.SetFlag(user.ID, "can_mark_returned", true))

	found, err := repo.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.True(t, found.CanMarkReturned)
	assert.False(t, found.CanCreateUpdateDestroy)

	assert.ErrorIs(t, repo.SetFlag(999, "can_mark_returned", true), gorm.ErrRecordNotFound)
}

func TestRepository_CountAndList(t *testing.T) {
	repo := setupTestDB(t)

	count, err := repo.CountUsers()
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = repo.CreateUser("zed", "")
	require.NoError(t, err)
	_, err = repo.CreateUser("amy", "")
	require.NoError(t, err)

	count, err = repo.CountUsers()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	list, err := repo.ListUsers()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "amy", list[0].Username)
}
