package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/events"
	"github.com/spec-kit/support-insights/internal/repository"
)

// TagSink persists tag assignments outside the in-memory table.
type TagSink interface {
	SaveTag(ctx context.Context, ticketID string, tag domain.Tag) error
}

// NotificationService reacts to domain events: it logs tag changes and spikes,
// forwards tags to an optional sink and journals generated summaries.
type NotificationService struct {
	dispatcher events.Dispatcher
	journal    repository.SummaryJournal
	tags       TagSink
	logger     *zap.Logger
}

// NotificationDependencies bundles collaborators. Journal and Tags may be nil.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Journal    repository.SummaryJournal
	Tags       TagSink
	Logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		journal:    deps.Journal,
		tags:       deps.Tags,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketTagged, n.handleTicketTagged)
	n.dispatcher.Subscribe(events.EventSpikeDetected, n.handleSpikeDetected)
	n.dispatcher.Subscribe(events.EventSummaryGenerated, n.handleSummaryGenerated)
}

func (n *NotificationService) handleTicketTagged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketTaggedPayload)
	if !ok {
		return fmt.Errorf("ticket_tagged: unexpected payload %T", event.Payload)
	}
	fields := []zap.Field{
		zap.String("ticket_id", event.TicketID),
		zap.String("tag", string(payload.Tag)),
		zap.String("source", payload.Source),
	}
	if payload.Previous != nil {
		fields = append(fields, zap.String("previous", string(*payload.Previous)))
	}
	n.logger.Info("TicketTagged", fields...)
	if n.tags == nil {
		return nil
	}
	if err := n.tags.SaveTag(ctx, event.TicketID, payload.Tag); err != nil {
		return fmt.Errorf("persist tag for %s: %w", event.TicketID, err)
	}
	return nil
}

func (n *NotificationService) handleSpikeDetected(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SpikeDetectedPayload)
	if !ok {
		return fmt.Errorf("spike_detected: unexpected payload %T", event.Payload)
	}
	n.logger.Warn("SpikeDetected",
		zap.Stringer("period", payload.Period),
		zap.String("column", payload.Column),
		zap.Int("count", payload.Count),
		zap.Float64("score", payload.Score))
	return nil
}

func (n *NotificationService) handleSummaryGenerated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SummaryGeneratedPayload)
	if !ok {
		return fmt.Errorf("summary_generated: unexpected payload %T", event.Payload)
	}
	n.logger.Info("SummaryGenerated",
		zap.String("summary_id", payload.SummaryID),
		zap.Int("issue_count", payload.IssueCount))
	if n.journal == nil {
		return nil
	}
	summary := repository.Summary{
		ID:         payload.SummaryID,
		CreatedAt:  payload.CreatedAt,
		Text:       payload.Text,
		IssueCount: payload.IssueCount,
		Categories: payload.Categories,
		Tags:       payload.Tags,
	}
	if err := n.journal.Append(ctx, summary); err != nil {
		return fmt.Errorf("journal summary %s: %w", payload.SummaryID, err)
	}
	return nil
}
