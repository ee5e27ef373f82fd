package http

import (
	"github.com/mrlokans/locallibrary/internal/audit"
	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/catalog"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/readonly"
	"github.com/mrlokans/locallibrary/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Catalog      *catalog.Service
	AuditService *audit.Service
	Database     *database.Database

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	AuthConfig     config.Auth
	SessionManager *auth.SessionManager
	CSRFSecret     []byte // CSRF is enabled only when set
	SecureCookies  bool
	WriteLimiter   *auth.WriteLimiter

	// Read-only mode (optional)
	ReadOnly *readonly.Middleware

	// Task queue and maintenance (optional)
	TaskClient  *tasks.Client
	Maintenance MaintenanceRunner

	// Application info
	Version string
}
