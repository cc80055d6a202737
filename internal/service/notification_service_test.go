package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/events"
)

func TestNotificationServiceLogsEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(NotificationDependencies{Dispatcher: dispatcher, Logger: zap.New(core)}).RegisterHandlers()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:     events.EventTicketTagged,
		TicketID: "t1",
		Payload:  events.TicketTaggedPayload{Tag: "login", Source: "classifier"},
	}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:    events.EventSpikeDetected,
		Payload: events.SpikeDetectedPayload{Period: domain.Period{Year: 2024, Month: 5}, Column: "Login Issue", Count: 20, Score: 2},
	}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:    events.EventSummaryGenerated,
		Payload: events.SummaryGeneratedPayload{SummaryID: "s1", Text: "x", IssueCount: 3},
	}))

	assert.Equal(t, 1, logs.FilterMessage("TicketTagged").Len())
	spikes := logs.FilterMessage("SpikeDetected").All()
	require.Len(t, spikes, 1)
	assert.Equal(t, zap.WarnLevel, spikes[0].Level)
	assert.Equal(t, "2024-05", spikes[0].ContextMap()["period"])
	assert.Equal(t, 1, logs.FilterMessage("SummaryGenerated").Len())
}

func TestNotificationServiceRejectsWrongPayload(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(NotificationDependencies{Dispatcher: dispatcher, Journal: &memJournal{}}).RegisterHandlers()
	err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventSummaryGenerated, Payload: "oops"})
	assert.Error(t, err)
}

type sinkFunc func(ctx context.Context, id string, tag domain.Tag) error

func (f sinkFunc) SaveTag(ctx context.Context, id string, tag domain.Tag) error {
	return f(ctx, id, tag)
}

func TestNotificationServiceForwardsTags(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	saved := map[string]domain.Tag{}
	sink := sinkFunc(func(_ context.Context, id string, tag domain.Tag) error {
		if id == "broken" {
			return errors.New("db down")
		}
		saved[id] = tag
		return nil
	})
	NewNotificationService(NotificationDependencies{Dispatcher: dispatcher, Tags: sink}).RegisterHandlers()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:     events.EventTicketTagged,
		TicketID: "t1",
		Payload:  events.TicketTaggedPayload{Tag: "crash", Source: "manual"},
	}))
	assert.Equal(t, map[string]domain.Tag{"t1": "crash"}, saved)

	err := dispatcher.Publish(ctx, events.Event{
		Type:     events.EventTicketTagged,
		TicketID: "broken",
		Payload:  events.TicketTaggedPayload{Tag: "crash"},
	})
	assert.ErrorContains(t, err, "db down")
}
