package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/permissions"
)

// RenewalRequest asks for a new due date on a copy. Version, when set, must
// match the copy's current version.
type RenewalRequest struct {
	InstanceID string `json:"instance_id"`
	DueBack    string `json:"due_back"`
	Version    *int   `json:"version,omitempty"`
}

// RenewalProposal pre-fills the renew form.
type RenewalProposal struct {
	Instance        *entities.BookInstance `json:"instance"`
	ProposedDueBack string                 `json:"proposed_due_back"`
	LatestDueBack   string                 `json:"latest_due_back"`
}

// RenewalProposal returns the copy with the suggested new due date.
func (s *Service) RenewalProposal(ctx context.Context, actor *permissions.Actor, instanceID string) (*RenewalProposal, error) {
	if err := s.authorize(actor, OpRenewalProposal); err != nil {
		return nil, err
	}
	instance, err := s.loadInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	today := s.today()
	return &RenewalProposal{
		Instance:        instance,
		ProposedDueBack: today.Add(s.opts.RenewalProposal).Format(DateLayout),
		LatestDueBack:   today.Add(s.opts.RenewalMax).Format(DateLayout),
	}, nil
}

// RenewLoan moves the due date of a copy on loan. The date must fall between
// today and the configured maximum. The write only lands if the copy was not
// modified since it was read; status is left alone.
func (s *Service) RenewLoan(ctx context.Context, actor *permissions.Actor, req RenewalRequest) (*entities.BookInstance, error) {
	if err := s.authorize(actor, OpRenewLoan); err != nil {
		return nil, err
	}

	instance, err := s.loadInstance(ctx, req.InstanceID)
	if err != nil {
		return nil, err
	}

	dueBack, err := ParseDate(req.DueBack)
	if err != nil {
		return nil, singleFieldError(string(EntityBookInstance), "due_back", err.Error())
	}
	if err := s.checkRenewalRange(dueBack); err != nil {
		return nil, err
	}
	if !instance.OnLoan() {
		return nil, singleFieldError(string(EntityBookInstance), "due_back", "Only copies on loan can be renewed.")
	}
	if req.Version != nil && *req.Version != instance.Version {
		return nil, fmt.Errorf("renew copy %s: %w: version %d is stale, current is %d",
			instance.ID, ErrConflict, *req.Version, instance.Version)
	}

	if err := s.loans.UpdateDueBack(ctx, instance.ID, dueBack, instance.Version); err != nil {
		return nil, translate(err, "renew copy "+instance.ID.String())
	}

	renewed, err := s.loans.GetInstance(ctx, instance.ID)
	if err != nil {
		return nil, translate(err, "reload copy")
	}
	s.auditor.LogChange(actorID(actor), entities.AuditEventRenew, string(EntityBookInstance), renewed.ID.String(),
		fmt.Sprintf("Renewed until %s", dueBack.Format(DateLayout)))
	return renewed, nil
}

func (s *Service) checkRenewalRange(dueBack time.Time) error {
	today := s.today()
	if dueBack.Before(today) {
		return singleFieldError(string(EntityBookInstance), "due_back", "Invalid date - renewal in past")
	}
	if latest := today.Add(s.opts.RenewalMax); dueBack.After(latest) {
		return singleFieldError(string(EntityBookInstance), "due_back",
			fmt.Sprintf("Invalid date - renewal more than %s ahead", describePeriod(s.opts.RenewalMax)))
	}
	return nil
}

func (s *Service) loadInstance(ctx context.Context, rawID string) (*entities.BookInstance, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("copy %q: %w", rawID, ErrNotFound)
	}
	instance, err := s.loans.GetInstance(ctx, id)
	if err != nil {
		return nil, translate(err, "copy "+rawID)
	}
	return instance, nil
}

func describePeriod(d time.Duration) string {
	const day = 24 * time.Hour
	days := int(d / day)
	switch {
	case days%7 == 0 && days/7 == 1:
		return "1 week"
	case days%7 == 0:
		return fmt.Sprintf("%d weeks", days/7)
	case days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}
