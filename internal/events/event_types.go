package events

import (
	"time"

	"github.com/spec-kit/support-insights/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketTagged     EventType = "ticket_tagged"
	EventSummaryGenerated EventType = "summary_generated"
	EventSpikeDetected    EventType = "spike_detected"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketTaggedPayload payload.
type TicketTaggedPayload struct {
	Tag      domain.Tag  `json:"tag"`
	Previous *domain.Tag `json:"previous,omitempty"`
	Source   string      `json:"source"`
}

// SummaryGeneratedPayload payload.
type SummaryGeneratedPayload struct {
	SummaryID  string            `json:"summary_id"`
	Text       string            `json:"text"`
	IssueCount int               `json:"issue_count"`
	Categories []domain.Category `json:"categories"`
	Tags       []domain.Tag      `json:"tags,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// SpikeDetectedPayload payload.
type SpikeDetectedPayload struct {
	Period domain.Period `json:"period"`
	Column string        `json:"column"`
	Count  int           `json:"count"`
	Score  float64       `json:"score"`
}
