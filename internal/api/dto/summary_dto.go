package dto

import (
	"time"

	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/repository"
)

// SummaryRequest payload. A nil Categories selects every category; an empty
// list selects none.
type SummaryRequest struct {
	Categories *[]string `json:"categories"`
	Tags       *[]string `json:"tags"`
	Count      int       `json:"count"`
}

// SummaryResponse is one generated summary.
type SummaryResponse struct {
	ID         string            `json:"id"`
	CreatedAt  time.Time         `json:"created_at"`
	Text       string            `json:"text"`
	IssueCount int               `json:"issue_count"`
	Categories []domain.Category `json:"categories"`
	Tags       []domain.Tag      `json:"tags,omitempty"`
}

// NewSummaryResponse maps a journal entry.
func NewSummaryResponse(s repository.Summary) SummaryResponse {
	cats := s.Categories
	if cats == nil {
		cats = []domain.Category{}
	}
	return SummaryResponse{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		Text:       s.Text,
		IssueCount: s.IssueCount,
		Categories: cats,
		Tags:       s.Tags,
	}
}
