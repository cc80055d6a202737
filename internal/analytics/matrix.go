package analytics

import (
	"sort"

	"github.com/spec-kit/support-insights/internal/domain"
)

// GroupKey selects the ticket field that becomes the matrix columns.
type GroupKey int

const (
	GroupByCategory GroupKey = iota
	GroupByTag
)

func (k GroupKey) String() string {
	switch k {
	case GroupByCategory:
		return "category"
	case GroupByTag:
		return "tag"
	default:
		return "unknown"
	}
}

// CountMatrix is a dense period x column table of ticket counts. Periods are
// contiguous and chronological; columns are sorted. Counts[i][j] is the count
// for Periods[i] and Columns[j].
type CountMatrix struct {
	Periods []domain.Period
	Columns []string
	Counts  [][]int
}

// BucketCounts groups tickets by calendar month and key. Tickets without a
// value for key (untagged tickets under GroupByTag) are ignored, both for the
// counts and for the period range. The result depends only on the multiset of
// tickets, not their order.
func BucketCounts(tickets []domain.Ticket, key GroupKey) CountMatrix {
	type cell struct {
		period domain.Period
		column string
	}
	counts := make(map[cell]int)
	columns := make(map[string]struct{})
	var first, last domain.Period
	seen := false

	for _, t := range tickets {
		col, ok := groupValue(t, key)
		if !ok {
			continue
		}
		p := t.Period()
		if !seen {
			first, last, seen = p, p, true
		} else {
			if p.Before(first) {
				first = p
			}
			if last.Before(p) {
				last = p
			}
		}
		counts[cell{period: p, column: col}]++
		columns[col] = struct{}{}
	}
	if !seen {
		return CountMatrix{}
	}

	m := CountMatrix{Columns: make([]string, 0, len(columns))}
	for col := range columns {
		m.Columns = append(m.Columns, col)
	}
	sort.Strings(m.Columns)

	for p := first; !last.Before(p); p = p.Next() {
		m.Periods = append(m.Periods, p)
		row := make([]int, len(m.Columns))
		for j, col := range m.Columns {
			row[j] = counts[cell{period: p, column: col}]
		}
		m.Counts = append(m.Counts, row)
	}
	return m
}

func groupValue(t domain.Ticket, key GroupKey) (string, bool) {
	switch key {
	case GroupByCategory:
		return string(t.Category), true
	case GroupByTag:
		if t.Tag == nil {
			return "", false
		}
		return string(*t.Tag), true
	default:
		return "", false
	}
}

// Empty reports whether the matrix has no rows.
func (m CountMatrix) Empty() bool {
	return len(m.Periods) == 0
}

// Count returns the cell for period and column. ok is false when either is
// outside the matrix.
func (m CountMatrix) Count(p domain.Period, column string) (count int, ok bool) {
	i := m.periodIndex(p)
	j := m.columnIndex(column)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Counts[i][j], true
}

// Column returns the series for column in period order, or nil if absent.
func (m CountMatrix) Column(column string) []int {
	j := m.columnIndex(column)
	if j < 0 {
		return nil
	}
	series := make([]int, len(m.Periods))
	for i := range m.Periods {
		series[i] = m.Counts[i][j]
	}
	return series
}

// Total sums every cell.
func (m CountMatrix) Total() int {
	total := 0
	for _, row := range m.Counts {
		for _, c := range row {
			total += c
		}
	}
	return total
}

func (m CountMatrix) periodIndex(p domain.Period) int {
	i := sort.Search(len(m.Periods), func(i int) bool { return !m.Periods[i].Before(p) })
	if i < len(m.Periods) && m.Periods[i] == p {
		return i
	}
	return -1
}

func (m CountMatrix) columnIndex(column string) int {
	j := sort.SearchStrings(m.Columns, column)
	if j < len(m.Columns) && m.Columns[j] == column {
		return j
	}
	return -1
}
