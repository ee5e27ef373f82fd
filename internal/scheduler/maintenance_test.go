package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/locallibrary/internal/tasks"
)

type fakeQueue struct {
	enqueued []backlite.Task
	err      error
}

func (f *fakeQueue) Enqueue(ts ...backlite.Task) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.enqueued = append(f.enqueued, ts...)
	ids := make([]string, len(ts))
	for i := range ts {
		ids[i] = string(rune('a' + i))
	}
	return ids, nil
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 3 * * *"))
	assert.NoError(t, ValidateSchedule("*/15 * * * *"))
	assert.Error(t, ValidateSchedule("every day"))
	assert.Error(t, ValidateSchedule("0 0 3 * * *"), "seconds are not accepted")
}

func TestMaintenanceScheduler_RunNow(t *testing.T) {
	queue := &fakeQueue{}
	s := NewMaintenanceScheduler(queue, "0 3 * * *", 14)

	ids, err := s.RunNow()
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Equal(t, []backlite.Task{
		tasks.FindOverdueLoansTask{},
		tasks.CleanupAuditEventsTask{RetentionDays: 14},
	}, queue.enqueued)

	queue.err = errors.New("queue closed")
	_, err = s.RunNow()
	assert.Error(t, err)
}

func TestMaintenanceScheduler_StartStop(t *testing.T) {
	s := NewMaintenanceScheduler(&fakeQueue{}, "0 3 * * *", 30)
	assert.Nil(t, s.NextRunTime())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(ctx), "starting twice is a no-op")

	next := s.NextRunTime()
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 0, next.Minute())

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestMaintenanceScheduler_InvalidSchedule(t *testing.T) {
	s := NewMaintenanceScheduler(&fakeQueue{}, "not a schedule", 30)
	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}
