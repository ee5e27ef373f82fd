package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrlokans/locallibrary/internal/audit"
	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database"
	auditRepo "github.com/mrlokans/locallibrary/internal/database/audit"
	"github.com/mrlokans/locallibrary/internal/database/users"
)

// environment is what an admin command needs from the catalog database.
type environment struct {
	db    *database.Database
	audit *audit.Service
	auth  *auth.Service
}

func (e *environment) Close() error {
	return e.db.Close()
}

// openEnvironment opens the database at dbPath with the auth settings read
// from the process environment.
func openEnvironment(dbPath string) (*environment, error) {
	absDBPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	cfg := config.NewConfig()
	db, err := database.NewDatabase(absDBPath, "silent")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	auditService := audit.NewService(auditRepo.NewRepository(db.DB), nil)
	return &environment{
		db:    db,
		audit: auditService,
		auth:  auth.NewService(users.NewRepository(db.DB), cfg.Auth, auditService),
	}, nil
}

func output(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
