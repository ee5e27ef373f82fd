// Package interfaces documents the core abstractions used throughout the application.
//
// The catalog, auth and task packages depend on small interfaces rather than
// on concrete stores, so each can be tested with fakes. This package holds
// the compile-time checks that wire the real implementations to them.
//
// # Interface Categories
//
// ## Audit Interfaces
//
//   - catalog.Auditor: Records catalog writes and renewals (internal/catalog/service.go)
//   - auth.AuthAuditor: Records token and provisioning events (internal/auth/service.go)
//
// Both are implemented by audit.Service, which persists events through
// internal/database/audit and archives deleted records when configured.
//
// ## Background Work Interfaces
//
//   - tasks.OverdueLoanFinder: Lists copies past their due date (internal/tasks/overdue_loans.go)
//   - tasks.OverdueRecorder: Records an overdue copy (internal/tasks/overdue_loans.go)
//   - tasks.AuditEventCleaner: Applies audit retention (internal/tasks/cleanup_audit.go)
//   - scheduler.Enqueuer: Adds tasks to the queue (internal/scheduler/maintenance.go)
//
// ## HTTP Interfaces
//
//   - http.MaintenanceRunner: Triggers maintenance on demand (internal/http/tasks.go)
//   - http.Pinger: Health check dependency (internal/http/health.go)
//
// # Adding a New Catalog Entity
//
// To add a new catalog record type (e.g., Publisher):
//
//  1. Add the model to internal/entities/catalog.go and to database.Models()
//
//  2. Declare its EntityType and field spec in internal/catalog/specs.go:
//
//     var publisherSpec = &entitySpec[entities.Publisher]{
//     entity: EntityPublisher,
//     fields: map[string]setter[entities.Publisher]{ ... },
//     }
//
//  3. Add the collection name to pluralRoutes in internal/http/router.go
//
// The CRUD surface, the audit trail and the permission gate pick the new
// entity up without further changes.
//
// # Adding a New Maintenance Task
//
//  1. Define the task and its queue in internal/tasks/
//
//     type ReindexTask struct{}
//
//     func (t ReindexTask) Config() backlite.QueueConfig
//
//  2. Add the queue to Client.RegisterMaintenance (internal/tasks/client.go)
//
//  3. Enqueue it from MaintenanceScheduler.RunNow
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the checks in this codebase.
package interfaces
