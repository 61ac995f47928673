package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/remindme/store"
	storetest "github.com/hrygo/remindme/store/test"
)

func TestService_ProcessDue_WithStore(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)

	monday := time.Date(2023, 1, 23, 9, 5, 0, 0, jerusalem)
	ids, err := ts.CreateFiringRecords(ctx, []*store.FiringRecord{
		absolute(1, "once", monday.Add(-time.Minute)),
		recurrent(1, "standup", 1, 9, 0),
		recurrent(1, "standup", 3, 9, 0),
	})
	require.NoError(t, err)

	notifier := NewMockNotifier()
	svc := NewService(ts, notifier)
	svc.SetClock(func() time.Time { return monday })

	result, err := svc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, CycleResult{Due: 2, Delivered: 2}, result)

	once, err := ts.GetFiringRecord(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, once.Consumed)

	standup, err := ts.GetFiringRecord(ctx, ids[1])
	require.NoError(t, err)
	assert.False(t, standup.Consumed)
	require.NotNil(t, standup.LastFiredTs)

	result, err = svc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Due)

	wednesday := monday.AddDate(0, 0, 2)
	svc.SetClock(func() time.Time { return wednesday })
	result, err = svc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
	assert.Equal(t, 3, notifier.GetSentCount())
}
