package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/events"
	"github.com/spec-kit/support-insights/internal/repository"
	"github.com/spec-kit/support-insights/internal/store"
)

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 10, 0, 0, 0, time.UTC)
}

// spikeTable has Login Issue counts of 2,2,2,2,20 over Jan..May 2024 and one
// Payment Failed ticket per month.
func spikeTable(t *testing.T) *store.Table {
	t.Helper()
	var tickets []domain.Ticket
	counts := []int{2, 2, 2, 2, 20}
	for m, n := range counts {
		month := time.Month(m + 1)
		for i := 0; i < n; i++ {
			tickets = append(tickets, domain.Ticket{
				ID:        fmt.Sprintf("login-%d-%d", month, i),
				Submitter: "user",
				IssueText: "cannot sign in",
				Category:  domain.CategoryLoginIssue,
				CreatedAt: at(2024, month, i%27+1),
			})
		}
		tickets = append(tickets, domain.Ticket{
			ID:        fmt.Sprintf("pay-%d", month),
			Submitter: "user",
			IssueText: "card declined",
			Category:  domain.CategoryPaymentFailed,
			CreatedAt: at(2024, month, 5),
		})
	}
	table, err := store.NewTable(tickets)
	require.NoError(t, err)
	return table
}

func smallTable(t *testing.T) *store.Table {
	t.Helper()
	login := domain.Tag("login")
	table, err := store.NewTable([]domain.Ticket{
		{ID: "a", Submitter: "Ann", IssueText: "password reset loops", Category: domain.CategoryLoginIssue, CreatedAt: at(2024, time.January, 3)},
		{ID: "b", Submitter: "Bo", IssueText: "card declined", Category: domain.CategoryPaymentFailed, CreatedAt: at(2024, time.January, 9)},
		{ID: "c", Submitter: "Cy", IssueText: "crash on launch", Category: domain.CategoryAppCrash, CreatedAt: at(2024, time.February, 2)},
		{ID: "d", Submitter: "Di", IssueText: "locked after update", Category: domain.CategoryLoginIssue, CreatedAt: at(2024, time.February, 20), Tag: &login},
	})
	require.NoError(t, err)
	return table
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
	inner  events.Dispatcher
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{inner: events.NewInMemoryDispatcher()}
}

func (r *recordingDispatcher) Publish(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return r.inner.Publish(ctx, e)
}

func (r *recordingDispatcher) Subscribe(t events.EventType, h events.EventHandler) {
	r.inner.Subscribe(t, h)
}

func (r *recordingDispatcher) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type memJournal struct {
	mu        sync.Mutex
	summaries []repository.Summary
}

func (m *memJournal) Append(_ context.Context, s repository.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append([]repository.Summary{s}, m.summaries...)
	return nil
}

func (m *memJournal) List(_ context.Context, limit int) ([]repository.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.summaries) {
		limit = len(m.summaries)
	}
	return append([]repository.Summary(nil), m.summaries[:limit]...), nil
}
