package auth

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/database/users"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type authEvent struct {
	userID  uint
	action  string
	success bool
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []authEvent
}

func (r *recordingAuditor) LogAuth(userID uint, action, _ string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, authEvent{userID: userID, action: action, success: success})
}

func (r *recordingAuditor) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.action)
	}
	return out
}

func testAuthConfig(mode config.AuthMode) config.Auth {
	return config.Auth{
		Mode:            mode,
		ProxyHeader:     config.DefaultProxyHeader,
		SessionLifetime: 24 * time.Hour,
		TokenExpiry:     720 * time.Hour,
		SecureCookies:   false,
	}
}

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "auth.db"), "silent")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupService(t *testing.T, mode config.AuthMode) (*Service, *recordingAuditor) {
	t.Helper()

	db := setupTestDB(t)
	auditor := &recordingAuditor{}
	return NewService(users.NewRepository(db.DB), testAuthConfig(mode), auditor), auditor
}
