package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/locallibrary/internal/catalog"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// OverdueLoanFinder lists copies on loan past their due date.
type OverdueLoanFinder interface {
	ListOverdue(ctx context.Context, asOf time.Time) ([]entities.BookInstance, error)
}

// OverdueRecorder records one overdue copy.
type OverdueRecorder interface {
	LogOverdue(instanceID string, borrowerID uint, dueBack time.Time)
}

// FindOverdueLoansTask records every copy whose due date is before AsOf.
// AsOf is a YYYY-MM-DD date; empty means the day the task runs.
type FindOverdueLoansTask struct {
	AsOf string `json:"as_of,omitempty"`
}

func (t FindOverdueLoansTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "find_overdue_loans",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func (t FindOverdueLoansTask) day(now time.Time) (time.Time, error) {
	if t.AsOf == "" {
		return catalog.Day(now), nil
	}
	day, err := time.Parse("2006-01-02", t.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid as_of %q: %w", t.AsOf, err)
	}
	return day, nil
}

// FindOverdueLoansProcessor creates a processor function for FindOverdueLoansTask.
func FindOverdueLoansProcessor(finder OverdueLoanFinder, recorder OverdueRecorder) backlite.QueueProcessor[FindOverdueLoansTask] {
	return func(ctx context.Context, task FindOverdueLoansTask) error {
		if finder == nil || recorder == nil {
			return errors.New("overdue loan scan not configured")
		}

		asOf, err := task.day(time.Now())
		if err != nil {
			return err
		}

		overdue, err := finder.ListOverdue(ctx, asOf)
		if err != nil {
			return fmt.Errorf("list overdue loans: %w", err)
		}

		for _, bi := range overdue {
			if bi.DueBack == nil || bi.BorrowerID == nil {
				continue
			}
			recorder.LogOverdue(bi.ID.String(), *bi.BorrowerID, *bi.DueBack)
		}

		log.Printf("[TASK] Found %d overdue loans as of %s", len(overdue), asOf.Format("2006-01-02"))
		return nil
	}
}

// NewFindOverdueLoansQueue creates a backlite queue for overdue loan scans.
func NewFindOverdueLoansQueue(finder OverdueLoanFinder, recorder OverdueRecorder) backlite.Queue {
	return backlite.NewQueue(FindOverdueLoansProcessor(finder, recorder))
}
