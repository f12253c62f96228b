package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

type fakeBus struct {
	channel string
	payload []byte
}

func (b *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.channel, b.payload = channel, payload
	return nil
}

func (b *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not supported")
}

type fakeNotifier struct{ runs int }

func (n *fakeNotifier) NotifyRun(context.Context, domain.IngestRun) error {
	n.runs++
	return errors.New("webhook down")
}

func TestRunReporterPublishesAndNotifies(t *testing.T) {
	bus, notifier := &fakeBus{}, &fakeNotifier{}
	r := NewRunReporter(bus, notifier, testLogger())

	r.Report(context.Background(), domain.IngestRun{
		ID:         "run-1",
		Season:     2025,
		Week:       11,
		Created:    3,
		Skipped:    1,
		Unmapped:   []string{"Xavier"},
		Status:     domain.RunSucceeded,
		FinishedAt: time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, ChannelIngest, bus.channel)
	var evt RunEvent
	require.NoError(t, json.Unmarshal(bus.payload, &evt))
	assert.Equal(t, "run-1", evt.RunID)
	assert.Equal(t, 3, evt.Created)
	assert.Equal(t, []string{"Xavier"}, evt.Unmapped)
	assert.Equal(t, "2025-11-15T12:00:00Z", evt.FinishedAt)
	assert.Equal(t, 1, notifier.runs, "notifier errors are swallowed")
}

func TestNewRunEventNeverNullUnmapped(t *testing.T) {
	evt := NewRunEvent(domain.IngestRun{})
	assert.NotNil(t, evt.Unmapped)
}
