package store

import (
	"fmt"
	"sort"

	"github.com/spec-kit/support-insights/internal/domain"
	apperrors "github.com/spec-kit/support-insights/pkg/util/errorutil"
)

// Table is an immutable, ordered set of tickets. Operations that change a
// ticket return a new Table; the receiver is never modified, so a Table may be
// read from any number of goroutines.
type Table struct {
	tickets []domain.Ticket
	index   map[string]int
}

// TagFilter restricts a view to tickets carrying one of Tags. A nil *TagFilter
// disables tag filtering; a non-nil filter with no tags matches nothing.
type TagFilter struct {
	Tags []domain.Tag
}

// NewTable builds a table from tickets in the given order. Ticket ids must be unique.
func NewTable(tickets []domain.Ticket) (*Table, error) {
	t := &Table{
		tickets: make([]domain.Ticket, 0, len(tickets)),
		index:   make(map[string]int, len(tickets)),
	}
	for i, ticket := range tickets {
		if ticket.ID == "" {
			return nil, apperrors.NewParseError(i+1, ColumnID, "empty ticket id", nil)
		}
		if _, dup := t.index[ticket.ID]; dup {
			return nil, apperrors.NewParseError(i+1, ColumnID, fmt.Sprintf("duplicate ticket id %q", ticket.ID), nil)
		}
		if _, ok := domain.ParseCategory(string(ticket.Category)); !ok {
			return nil, apperrors.NewParseError(i+1, ColumnCategory, fmt.Sprintf("unknown category %q", ticket.Category), nil)
		}
		t.index[ticket.ID] = len(t.tickets)
		t.tickets = append(t.tickets, cloneTicket(ticket))
	}
	return t, nil
}

// Empty returns a table with no tickets.
func Empty() *Table {
	return &Table{}
}

// Len returns the number of tickets.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.tickets)
}

// Tickets returns a copy of the tickets in table order.
func (t *Table) Tickets() []domain.Ticket {
	if t == nil {
		return nil
	}
	out := make([]domain.Ticket, len(t.tickets))
	for i := range t.tickets {
		out[i] = cloneTicket(t.tickets[i])
	}
	return out
}

// Get returns the ticket with the given id.
func (t *Table) Get(id string) (domain.Ticket, bool) {
	if t == nil {
		return domain.Ticket{}, false
	}
	pos, ok := t.index[id]
	if !ok {
		return domain.Ticket{}, false
	}
	return cloneTicket(t.tickets[pos]), true
}

// Filter returns the tickets whose category is in categories and, when tags is
// non-nil, whose tag is in tags.Tags. Untagged tickets never pass an active tag
// filter. An empty category list yields an empty table. Relative order is kept.
func (t *Table) Filter(categories []domain.Category, tags *TagFilter) *Table {
	if t.Len() == 0 || len(categories) == 0 {
		return Empty()
	}
	catSet := make(map[domain.Category]struct{}, len(categories))
	for _, c := range categories {
		catSet[c] = struct{}{}
	}
	var tagSet map[domain.Tag]struct{}
	if tags != nil {
		tagSet = make(map[domain.Tag]struct{}, len(tags.Tags))
		for _, tag := range tags.Tags {
			tagSet[tag] = struct{}{}
		}
	}

	out := &Table{index: make(map[string]int)}
	for _, ticket := range t.tickets {
		if _, ok := catSet[ticket.Category]; !ok {
			continue
		}
		if tagSet != nil {
			if ticket.Tag == nil {
				continue
			}
			if _, ok := tagSet[*ticket.Tag]; !ok {
				continue
			}
		}
		out.index[ticket.ID] = len(out.tickets)
		out.tickets = append(out.tickets, ticket)
	}
	return out
}

// AssignTag returns a table identical to t except that the ticket with the
// given id carries tag. t itself is left untouched.
func (t *Table) AssignTag(id string, tag domain.Tag) (*Table, error) {
	parsed, ok := domain.ParseTag(string(tag))
	if !ok {
		return nil, apperrors.NewValidationError("tag must be a single non-empty word", map[string]any{"tag": string(tag)})
	}
	if t == nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	pos, ok := t.index[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}

	tickets := make([]domain.Ticket, len(t.tickets))
	copy(tickets, t.tickets)
	tickets[pos] = tickets[pos].WithTag(parsed)

	// ids are unchanged, so the index can be shared between versions.
	return &Table{tickets: tickets, index: t.index}, nil
}

// Recent returns up to n tickets, newest first. Ties keep table order.
func (t *Table) Recent(n int) []domain.Ticket {
	return t.newest(n, func(domain.Ticket) bool { return true })
}

// RecentUntagged returns up to n untagged tickets, newest first.
func (t *Table) RecentUntagged(n int) []domain.Ticket {
	return t.newest(n, func(ticket domain.Ticket) bool { return !ticket.Tagged() })
}

func (t *Table) newest(n int, keep func(domain.Ticket) bool) []domain.Ticket {
	if n <= 0 || t.Len() == 0 {
		return nil
	}
	candidates := make([]domain.Ticket, 0, len(t.tickets))
	for _, ticket := range t.tickets {
		if keep(ticket) {
			candidates = append(candidates, cloneTicket(ticket))
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// Categories returns the distinct categories present, in first-seen order.
func (t *Table) Categories() []domain.Category {
	if t == nil {
		return nil
	}
	seen := make(map[domain.Category]struct{})
	var out []domain.Category
	for _, ticket := range t.tickets {
		if _, ok := seen[ticket.Category]; ok {
			continue
		}
		seen[ticket.Category] = struct{}{}
		out = append(out, ticket.Category)
	}
	return out
}

// Tags returns the distinct assigned tags, in first-seen order.
func (t *Table) Tags() []domain.Tag {
	if t == nil {
		return nil
	}
	seen := make(map[domain.Tag]struct{})
	var out []domain.Tag
	for _, ticket := range t.tickets {
		if ticket.Tag == nil {
			continue
		}
		if _, ok := seen[*ticket.Tag]; ok {
			continue
		}
		seen[*ticket.Tag] = struct{}{}
		out = append(out, *ticket.Tag)
	}
	return out
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.Tag != nil {
		tag := *t.Tag
		t.Tag = &tag
	}
	return t
}
