package dto

import (
	"time"

	"github.com/spec-kit/support-insights/internal/domain"
)

// TicketResponse is one ticket as rendered to clients.
type TicketResponse struct {
	ID        string          `json:"id"`
	User      string          `json:"user"`
	Issue     string          `json:"issue"`
	Category  domain.Category `json:"category"`
	Tag       *domain.Tag     `json:"gpt_tag"`
	CreatedAt time.Time       `json:"created_at"`
}

// AssignTagRequest payload.
type AssignTagRequest struct {
	Tag string `json:"tag"`
}

// AutoTagRequest payload. A zero batch size uses the configured default.
type AutoTagRequest struct {
	BatchSize int `json:"batch_size"`
}

// TagOutcomeResponse describes one applied tag.
type TagOutcomeResponse struct {
	TicketID string     `json:"ticket_id"`
	Tag      domain.Tag `json:"tag"`
}

// TagFailureResponse describes one ticket the classifier could not tag.
type TagFailureResponse struct {
	TicketID string `json:"ticket_id"`
	Reason   string `json:"reason"`
}

// AutoTagResponse reports a batch run.
type AutoTagResponse struct {
	Tagged  []TagOutcomeResponse `json:"tagged"`
	Failed  []TagFailureResponse `json:"failed"`
	Skipped []string             `json:"skipped"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:        t.ID,
		User:      t.Submitter,
		Issue:     t.IssueText,
		Category:  t.Category,
		Tag:       t.Tag,
		CreatedAt: t.CreatedAt,
	}
}
