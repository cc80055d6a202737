package analytics

import (
	"sort"
	"time"

	"github.com/spec-kit/support-insights/internal/domain"
)

// DefaultTopTags is how many tags TopTags reports when asked for a non-positive limit.
const DefaultTopTags = 10

// Overview holds headline figures for a set of tickets.
type Overview struct {
	TotalTickets int
	TotalTagged  int
	FirstCreated *time.Time
	LastCreated  *time.Time
}

// Summarize computes the overview. First/LastCreated are nil for no tickets.
func Summarize(tickets []domain.Ticket) Overview {
	ov := Overview{TotalTickets: len(tickets)}
	for i := range tickets {
		t := tickets[i]
		if t.Tagged() {
			ov.TotalTagged++
		}
		created := t.CreatedAt
		if ov.FirstCreated == nil || created.Before(*ov.FirstCreated) {
			ov.FirstCreated = &created
		}
		if ov.LastCreated == nil || created.After(*ov.LastCreated) {
			c := created
			ov.LastCreated = &c
		}
	}
	return ov
}

// TagCount is one bar of the tag histogram.
type TagCount struct {
	Tag   domain.Tag
	Count int
}

// TopTags counts assigned tags, most frequent first; ties sort by tag.
func TopTags(tickets []domain.Ticket, limit int) []TagCount {
	if limit <= 0 {
		limit = DefaultTopTags
	}
	counts := make(map[domain.Tag]int)
	for _, t := range tickets {
		if t.Tag != nil {
			counts[*t.Tag]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TagDiversity is the number of distinct assigned tags.
func TagDiversity(tickets []domain.Ticket) int {
	seen := make(map[domain.Tag]struct{})
	for _, t := range tickets {
		if t.Tag != nil {
			seen[*t.Tag] = struct{}{}
		}
	}
	return len(seen)
}

// MeanGap is the average time between consecutive tickets in creation order.
// ok is false with fewer than two tickets.
func MeanGap(tickets []domain.Ticket) (gap time.Duration, ok bool) {
	if len(tickets) < 2 {
		return 0, false
	}
	times := make([]time.Time, len(tickets))
	for i, t := range tickets {
		times[i] = t.CreatedAt
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	span := times[len(times)-1].Sub(times[0])
	return span / time.Duration(len(times)-1), true
}
