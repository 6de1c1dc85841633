package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/csvexport/internal/exporters"
)

type countingJob struct {
	mu      sync.Mutex
	origins []string
}

func (j *countingJob) Run(_ context.Context, origin string) exporters.Outcome {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.origins = append(j.origins, origin)
	return exporters.Outcome{Status: exporters.StatusSuccess, Message: exporters.MessageSuccess}
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("*/15 * * * *"))
	assert.NoError(t, ValidateSchedule("0 0 * * 0"))
	assert.Error(t, ValidateSchedule("every minute"))
	assert.Error(t, ValidateSchedule("* * * * * *"))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Every hour at :00", Describe("0 * * * *"))
	assert.Equal(t, "Custom schedule: 5 4 * * *", Describe("5 4 * * *"))
}

func TestNewSnapshotScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewSnapshotScheduler(&countingJob{}, "nope")
	assert.Error(t, err)
}

func TestSnapshotScheduler_StartStop(t *testing.T) {
	s, err := NewSnapshotScheduler(&countingJob{}, "0 0 * * *")
	require.NoError(t, err)

	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRunTime())

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.NotNil(t, s.NextRunTime())

	// Starting twice is a no-op.
	require.NoError(t, s.Start(context.Background()))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRunTime())
}

func TestSnapshotScheduler_StopsOnContextCancel(t *testing.T) {
	s, err := NewSnapshotScheduler(&countingJob{}, "0 0 * * *")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestSnapshotScheduler_RunNow(t *testing.T) {
	job := &countingJob{}
	s, err := NewSnapshotScheduler(job, "0 0 * * *")
	require.NoError(t, err)

	outcome := s.RunNow(context.Background())

	assert.Equal(t, exporters.StatusSuccess, outcome.Status)
	assert.Equal(t, []string{"snapshot"}, job.origins)
}
