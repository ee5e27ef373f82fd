// Package catalog implements the library's operations: catalog queries, the
// loan renewal workflow and the create/update/delete surface over authors,
// books, genres and copies.
//
// Every operation takes the calling *permissions.Actor (nil when anonymous)
// and checks the requirement declared for it in the operation table before
// reading or writing anything. Errors belong to a small taxonomy that callers
// inspect with errors.Is and errors.As:
//
//	ErrUnauthenticated, ErrPermissionDenied, ErrNotFound, ErrConflict,
//	*ValidationError (errors.Is(err, ErrValidation))
package catalog

import (
	"fmt"
	"time"

	catalogRepo "github.com/mrlokans/locallibrary/internal/database/catalog"
	loansRepo "github.com/mrlokans/locallibrary/internal/database/loans"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/permissions"
)

type EntityType string

const (
	EntityAuthor       EntityType = "author"
	EntityBook         EntityType = "book"
	EntityBookInstance EntityType = "bookinstance"
	EntityGenre        EntityType = "genre"
)

// EntityTypes lists the entities managed through the CRUD surface.
var EntityTypes = []EntityType{EntityAuthor, EntityBook, EntityBookInstance, EntityGenre}

// ParseEntityType accepts an entity name in singular or plural form.
func ParseEntityType(s string) (EntityType, error) {
	for _, e := range EntityTypes {
		if s == string(e) || s == string(e)+"s" {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown entity %q: %w", s, ErrNotFound)
}

type Operation string

const (
	OpSummary                 Operation = "summary"
	OpCount                   Operation = "count"
	OpListBooks               Operation = "list_books"
	OpListAuthors             Operation = "list_authors"
	OpListGenres              Operation = "list_genres"
	OpGetBook                 Operation = "get_book"
	OpGetAuthor               Operation = "get_author"
	OpListLoansForUser        Operation = "list_loans_for_user"
	OpListAllOutstandingLoans Operation = "list_all_outstanding_loans"
	OpRenewLoan               Operation = "renew_loan"
	OpRenewalProposal         Operation = "renewal_proposal"
	OpCreate                  Operation = "create"
	OpUpdate                  Operation = "update"
	OpDelete                  Operation = "delete"
)

var requirements = map[Operation]permissions.Requirement{
	OpSummary:                 permissions.Public(),
	OpCount:                   permissions.Public(),
	OpListBooks:               permissions.Public(),
	OpListAuthors:             permissions.Public(),
	OpListGenres:              permissions.Public(),
	OpGetBook:                 permissions.Public(),
	OpGetAuthor:               permissions.Public(),
	OpListLoansForUser:        permissions.Authenticated(),
	OpListAllOutstandingLoans: permissions.Need(permissions.CanMarkReturned),
	OpRenewLoan:               permissions.Need(permissions.CanMarkReturned),
	OpRenewalProposal:         permissions.Need(permissions.CanMarkReturned),
	OpCreate:                  permissions.Need(permissions.CanCreateUpdateDestroy),
	OpUpdate:                  permissions.Need(permissions.CanCreateUpdateDestroy),
	OpDelete:                  permissions.Need(permissions.CanCreateUpdateDestroy),
}

// Requirement returns the precondition declared for op.
func Requirement(op Operation) (permissions.Requirement, bool) {
	req, ok := requirements[op]
	return req, ok
}

// Auditor records successful writes.
type Auditor interface {
	LogChange(actorID uint, eventType entities.AuditEventType, entityType, entityID, description string)
	LogDeletion(actorID uint, entityType, entityID, description string, snapshot any)
}

type nopAuditor struct{}

func (nopAuditor) LogChange(uint, entities.AuditEventType, string, string, string) {}
func (nopAuditor) LogDeletion(uint, string, string, string, any)                   {}

type Options struct {
	RenewalProposal time.Duration    // Suggested renewal period
	RenewalMax      time.Duration    // Latest accepted due date, relative to today
	StrictISBN      bool             // Reject ISBNs with a bad checksum
	Now             func() time.Time // Clock; defaults to time.Now
}

// DefaultOptions mirrors the librarian renew form: propose three weeks,
// accept up to four.
func DefaultOptions() Options {
	return Options{
		RenewalProposal: 3 * 7 * 24 * time.Hour,
		RenewalMax:      4 * 7 * 24 * time.Hour,
		Now:             time.Now,
	}
}

type Service struct {
	catalog   *catalogRepo.Repository
	loans     *loansRepo.Repository
	auditor   Auditor
	opts      Options
	executors map[EntityType]executor
}

// NewService creates the catalog service. auditor may be nil.
func NewService(catalog *catalogRepo.Repository, loans *loansRepo.Repository, auditor Auditor, opts Options) *Service {
	defaults := DefaultOptions()
	if opts.RenewalProposal <= 0 {
		opts.RenewalProposal = defaults.RenewalProposal
	}
	if opts.RenewalMax <= 0 {
		opts.RenewalMax = defaults.RenewalMax
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}
	if auditor == nil {
		auditor = nopAuditor{}
	}
	return &Service{
		catalog:   catalog,
		loans:     loans,
		auditor:   auditor,
		opts:      opts,
		executors: newExecutors(),
	}
}

// authorize checks the requirement declared for op. Operations missing from
// the table are refused.
func (s *Service) authorize(actor *permissions.Actor, op Operation) error {
	req, ok := requirements[op]
	if !ok {
		return fmt.Errorf("%w: no requirement declared for %s", ErrPermissionDenied, op)
	}
	return req.Check(actor)
}

func (s *Service) today() time.Time {
	return Day(s.opts.Now())
}

func actorID(actor *permissions.Actor) uint {
	if actor == nil {
		return 0
	}
	return actor.UserID
}
