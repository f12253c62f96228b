package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

type countingRunner struct {
	calls atomic.Int32
	done  chan struct{}
}

func (r *countingRunner) Run(_ context.Context, t Target) (domain.IngestRun, error) {
	r.calls.Add(1)
	r.done <- struct{}{}
	return domain.IngestRun{ID: "r1", Season: t.Season, Week: t.Week, Status: domain.RunSucceeded}, nil
}

func TestSchedulerRunsManualTrigger(t *testing.T) {
	runner := &countingRunner{done: make(chan struct{}, 1)}
	s := NewScheduler(runner, target(), "", nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.RunLoop(ctx) }()

	require.True(t, s.Trigger("api"))
	select {
	case <-runner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("run not executed")
	}

	require.Eventually(t, func() bool { return s.Status().Last != nil }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "r1", s.Status().Last.ID)
	assert.NoError(t, s.Status().LastErr)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestSchedulerCoalescesTriggers(t *testing.T) {
	s := NewScheduler(&countingRunner{}, target(), "", nil, testLogger())

	assert.True(t, s.Trigger("first"))
	assert.False(t, s.Trigger("second"))
}

func TestSchedulerRejectsBadCron(t *testing.T) {
	s := NewScheduler(&countingRunner{}, target(), "not a cron", nil, testLogger())

	err := s.RunLoop(context.Background())
	assert.Error(t, err)
}
