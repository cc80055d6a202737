package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []Event
	d.Subscribe(EventTicketTagged, func(_ context.Context, e Event) error {
		seen = append(seen, e)
		return errors.New("first failed")
	})
	d.Subscribe(EventTicketTagged, func(_ context.Context, e Event) error {
		seen = append(seen, e)
		return nil
	})
	d.Subscribe(EventSummaryGenerated, func(context.Context, Event) error {
		t.Fatal("unrelated handler invoked")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketTagged, TicketID: "t1"})

	require.Len(t, seen, 2)
	assert.EqualError(t, err, "first failed")
	assert.NotEmpty(t, seen[0].ID)
	assert.False(t, seen[0].Timestamp.IsZero())
	assert.Equal(t, seen[0].ID, seen[1].ID)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventSpikeDetected}))
}
