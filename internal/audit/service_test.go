package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	auditRepo "github.com/mrlokans/locallibrary/internal/database/audit"
	"github.com/mrlokans/locallibrary/internal/entities"
)

func setupTestService(t *testing.T, archive *Archive) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	repo := auditRepo.NewRepository(db)
	svc := NewService(repo, archive)

	return svc, db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t, nil)

	event := &entities.AuditEvent{
		UserID:      1,
		EventType:   entities.AuditEventCreate,
		Action:      "genre_create",
		Description: "Created genre Poetry",
		Status:      entities.AuditStatusSuccess,
	}

	err := svc.Log(event)
	require.NoError(t, err)

	var saved entities.AuditEvent
	err = db.First(&saved, event.ID).Error
	require.NoError(t, err)
	assert.Equal(t, "genre_create", saved.Action)
}

func TestService_LogChange(t *testing.T) {
	svc, db := setupTestService(t, nil)

	svc.LogChange(3, entities.AuditEventRenew, "bookinstance", "c0ffee", "Renewed until 2024-02-01")

	var event entities.AuditEvent
	err := db.Where("action = ?", "bookinstance_renew").First(&event).Error
	require.NoError(t, err)
	assert.Equal(t, uint(3), event.UserID)
	assert.Equal(t, entities.AuditEventRenew, event.EventType)
	assert.Equal(t, "c0ffee", event.EntityID)
	assert.Equal(t, entities.AuditStatusSuccess, event.Status)
}

func TestService_LogDeletion(t *testing.T) {
	t.Run("with archive", func(t *testing.T) {
		dir := t.TempDir()
		svc, db := setupTestService(t, NewArchive(dir))

		svc.LogDeletion(1, "author", "42", "Deleted author Austen, Jane", map[string]string{"last_name": "Austen"})

		var event entities.AuditEvent
		err := db.Where("action = ?", "author_delete").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditEventDelete, event.EventType)
		assert.Equal(t, "42", event.EntityID)

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("without archive", func(t *testing.T) {
		svc, db := setupTestService(t, nil)

		svc.LogDeletion(1, "genre", "5", "Deleted genre Poetry", map[string]string{"name": "Poetry"})

		var count int64
		require.NoError(t, db.Model(&entities.AuditEvent{}).Where("action = ?", "genre_delete").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestService_LogOverdue(t *testing.T) {
	svc, db := setupTestService(t, nil)

	svc.LogOverdue("abc", 2, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))

	var event entities.AuditEvent
	require.Eventually(t, func() bool {
		return db.Where("action = ?", "loan_overdue").First(&event).Error == nil
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, entities.AuditEventOverdue, event.EventType)
	assert.Contains(t, event.Description, "2024-03-01")
}

func TestService_LogAuth(t *testing.T) {
	svc, db := setupTestService(t, nil)

	t.Run("token issued", func(t *testing.T) {
		svc.LogAuth(1, "token_issued", "Issued token for alice", true)

		var event entities.AuditEvent
		require.Eventually(t, func() bool {
			return db.Where("action = ?", "token_issued").First(&event).Error == nil
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
	})

	t.Run("rejected token", func(t *testing.T) {
		svc.LogAuth(0, "token_rejected", "", false)

		var event entities.AuditEvent
		require.Eventually(t, func() bool {
			return db.Where("action = ?", "token_rejected").First(&event).Error == nil
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
	})
}

func TestService_GetEventsAndHistory(t *testing.T) {
	svc, _ := setupTestService(t, nil)

	for i := 0; i < 5; i++ {
		svc.LogChange(1, entities.AuditEventUpdate, "book", "9", "Updated book")
	}
	svc.LogChange(2, entities.AuditEventCreate, "genre", "1", "Created genre")

	events, total, err := svc.GetEvents(1, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, events, 5)

	_, total, err = svc.GetEvents(0, entities.AuditEventCreate, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	history, err := svc.GetEntityHistory("book", "9")
	require.NoError(t, err)
	assert.Len(t, history, 5)
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, db := setupTestService(t, nil)

	oldEvent := &entities.AuditEvent{
		UserID:    1,
		EventType: entities.AuditEventCreate,
		Action:    "old",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, db.Create(oldEvent).Error)

	newEvent := &entities.AuditEvent{
		UserID:    1,
		EventType: entities.AuditEventDelete,
		Action:    "new",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(newEvent).Error)

	deleted, err := svc.DeleteOldEvents(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []entities.AuditEvent
	db.Find(&remaining)
	assert.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].Action)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is a very long string", 10, "this is..."},
		{"", 5, ""},
	}

	for _, tc := range tests {
		result := truncate(tc.input, tc.maxLen)
		assert.Equal(t, tc.expected, result)
	}
}
