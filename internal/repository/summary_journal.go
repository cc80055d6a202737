package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/support-insights/internal/domain"
)

// Summary is one generated complaint summary.
type Summary struct {
	ID         string            `json:"id"`
	CreatedAt  time.Time         `json:"created_at"`
	Text       string            `json:"text"`
	IssueCount int               `json:"issue_count"`
	Categories []domain.Category `json:"categories,omitempty"`
	// Tags is the tag filter the summary was restricted to; nil means none.
	Tags []domain.Tag `json:"tags,omitempty"`
}

// SummaryJournal keeps generated summaries.
type SummaryJournal interface {
	Append(ctx context.Context, summary Summary) error
	// List returns up to limit summaries, newest first.
	List(ctx context.Context, limit int) ([]Summary, error)
}

// MultiJournal appends to every journal and lists from the first one.
type MultiJournal []SummaryJournal

func (m MultiJournal) Append(ctx context.Context, summary Summary) error {
	var errs []error
	for _, j := range m {
		if err := j.Append(ctx, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiJournal) List(ctx context.Context, limit int) ([]Summary, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return m[0].List(ctx, limit)
}
