package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/locallibrary/internal/catalog"
	"github.com/mrlokans/locallibrary/internal/entities"
)

type fakeCleaner struct {
	retention time.Duration
	err       error
}

func (f *fakeCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	f.retention = retention
	return 3, f.err
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	cleaner := &fakeCleaner{}
	process := CleanupAuditEventsProcessor(cleaner)

	require.NoError(t, process(context.Background(), CleanupAuditEventsTask{RetentionDays: 7}))
	assert.Equal(t, 7*24*time.Hour, cleaner.retention)

	require.NoError(t, process(context.Background(), CleanupAuditEventsTask{}))
	assert.Equal(t, DefaultAuditRetentionDays*24*time.Hour, cleaner.retention)

	cleaner.err = errors.New("disk full")
	assert.Error(t, process(context.Background(), CleanupAuditEventsTask{RetentionDays: 1}))

	assert.Error(t, CleanupAuditEventsProcessor(nil)(context.Background(), CleanupAuditEventsTask{}))
}

type fakeFinder struct {
	asOf      time.Time
	instances []entities.BookInstance
}

func (f *fakeFinder) ListOverdue(_ context.Context, asOf time.Time) ([]entities.BookInstance, error) {
	f.asOf = asOf
	return f.instances, nil
}

type overdueRecord struct {
	instanceID string
	borrowerID uint
	dueBack    time.Time
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []overdueRecord
}

func (f *fakeRecorder) LogOverdue(instanceID string, borrowerID uint, dueBack time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, overdueRecord{instanceID, borrowerID, dueBack})
}

func TestFindOverdueLoansProcessor(t *testing.T) {
	due := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	borrower := uint(9)
	late := entities.BookInstance{ID: uuid.New(), Status: entities.LoanStatusOnLoan, DueBack: &due, BorrowerID: &borrower}
	finder := &fakeFinder{instances: []entities.BookInstance{late}}
	recorder := &fakeRecorder{}

	err := FindOverdueLoansProcessor(finder, recorder)(context.Background(), FindOverdueLoansTask{AsOf: "2024-01-10"})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), finder.asOf)
	require.Len(t, recorder.records, 1)
	assert.Equal(t, overdueRecord{late.ID.String(), 9, due}, recorder.records[0])
}

func TestFindOverdueLoansProcessor_DefaultsToToday(t *testing.T) {
	finder := &fakeFinder{}
	require.NoError(t, FindOverdueLoansProcessor(finder, &fakeRecorder{})(context.Background(), FindOverdueLoansTask{}))

	assert.Equal(t, catalog.Day(time.Now()), finder.asOf)
}

func TestFindOverdueLoansTask_DayMatchesRenewalCalendar(t *testing.T) {
	// 23:30 on the 10th in New York is already the 11th in UTC
	evening := time.Date(2024, time.January, 10, 23, 30, 0, 0, time.FixedZone("EST", -5*60*60))

	day, err := FindOverdueLoansTask{}.day(evening)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), day)
	assert.Equal(t, catalog.Day(evening), day)
}

func TestFindOverdueLoansProcessor_Errors(t *testing.T) {
	err := FindOverdueLoansProcessor(&fakeFinder{}, &fakeRecorder{})(context.Background(), FindOverdueLoansTask{AsOf: "10/01/2024"})
	assert.Error(t, err)

	err = FindOverdueLoansProcessor(nil, nil)(context.Background(), FindOverdueLoansTask{})
	assert.Error(t, err)
}

func TestMaintenanceTaskConfigs(t *testing.T) {
	cleanup := CleanupAuditEventsTask{}.Config()
	assert.Equal(t, "cleanup_audit_events", cleanup.Name)
	assert.Equal(t, 3, cleanup.MaxAttempts)
	assert.NotNil(t, cleanup.Retention)

	overdue := FindOverdueLoansTask{}.Config()
	assert.Equal(t, "find_overdue_loans", overdue.Name)
	assert.Equal(t, 2*time.Minute, overdue.Timeout)
}
