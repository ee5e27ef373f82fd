package audit

import (
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/locallibrary/internal/database/audit"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	archive *Archive
}

// NewService creates a new audit service. archive may be nil.
func NewService(repo *audit.Repository, archive *Archive) *Service {
	return &Service{repo: repo, archive: archive}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	go func() {
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// LogChange records a successful catalog write. It runs synchronously so the
// history is complete once the write has been acknowledged.
func (s *Service) LogChange(actorID uint, eventType entities.AuditEventType, entityType, entityID, description string) {
	event := &entities.AuditEvent{
		UserID:      actorID,
		EventType:   eventType,
		Action:      entityType + "_" + string(eventType),
		Description: truncate(description, 500),
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      entities.AuditStatusSuccess,
	}
	if err := s.repo.LogEvent(event); err != nil {
		log.Printf("Failed to log audit event %s: %v", event.Action, err)
	}
}

// LogDeletion records a deletion and archives the record's last state.
func (s *Service) LogDeletion(actorID uint, entityType, entityID, description string, snapshot any) {
	if s.archive != nil && snapshot != nil {
		if _, err := s.archive.SaveJSON(entityType, entityID, description, snapshot); err != nil {
			log.Printf("Failed to archive deleted %s %s: %v", entityType, entityID, err)
		}
	}
	s.LogChange(actorID, entities.AuditEventDelete, entityType, entityID, description)
}

// LogOverdue records that a copy was found past its due date. It runs on a
// task worker or the CLI, so it writes synchronously.
func (s *Service) LogOverdue(instanceID string, borrowerID uint, dueBack time.Time) {
	event := &entities.AuditEvent{
		UserID:      borrowerID,
		EventType:   entities.AuditEventOverdue,
		Action:      "loan_overdue",
		Description: fmt.Sprintf("Copy %s was due back on %s", instanceID, dueBack.Format("2006-01-02")),
		EntityType:  "bookinstance",
		EntityID:    instanceID,
		Status:      entities.AuditStatusSuccess,
	}
	if err := s.repo.LogEvent(event); err != nil {
		log.Printf("Failed to log overdue copy %s: %v", instanceID, err)
	}
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action, description string, success bool) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventAuth,
		Action:      action,
		Description: truncate(description, 500),
		Status:      entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events, optionally filtered by actor and type.
func (s *Service) GetEvents(userID uint, eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(userID, eventType, limit, offset)
}

// GetEntityHistory returns the events recorded against one record.
func (s *Service) GetEntityHistory(entityType, entityID string) ([]entities.AuditEvent, error) {
	return s.repo.GetEntityHistory(entityType, entityID)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
