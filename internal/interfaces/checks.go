package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/locallibrary/internal/audit"
	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/catalog"
	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/database/loans"
	"github.com/mrlokans/locallibrary/internal/http"
	"github.com/mrlokans/locallibrary/internal/scheduler"
	"github.com/mrlokans/locallibrary/internal/tasks"
)

// =============================================================================
// Audit Trail
// =============================================================================

// Catalog writes and renewals
var _ catalog.Auditor = (*audit.Service)(nil)

// Token issuance, rejection and proxy provisioning
var _ auth.AuthAuditor = (*audit.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

// Overdue loan sweep
var _ tasks.OverdueLoanFinder = (*loans.Repository)(nil)
var _ tasks.OverdueRecorder = (*audit.Service)(nil)

// Audit retention
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

// Cron-driven enqueueing
var _ scheduler.Enqueuer = (*tasks.Client)(nil)

// =============================================================================
// HTTP Surface
// =============================================================================

// Manual maintenance trigger
var _ http.MaintenanceRunner = (*scheduler.MaintenanceScheduler)(nil)

// Health checks
var _ http.Pinger = (*database.Database)(nil)
