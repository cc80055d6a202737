package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/support-insights/internal/domain"
	apperrors "github.com/spec-kit/support-insights/pkg/util/errorutil"
)

// Column names of the row-oriented ticket source.
const (
	ColumnID        = "ticket_id"
	ColumnSubmitter = "user"
	ColumnIssue     = "issue"
	ColumnCategory  = "category"
	ColumnTimestamp = "timestamp"
	ColumnTag       = "gpt_tag"
)

var requiredColumns = []string{ColumnID, ColumnSubmitter, ColumnIssue, ColumnCategory, ColumnTimestamp}

// TimestampLayout is the layout used when tickets are written back out.
const TimestampLayout = "2006-01-02 15:04:05"

var timestampLayouts = []string{
	TimestampLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Source yields a header row and data rows. Implementations own their I/O.
type Source interface {
	Records(ctx context.Context) (header []string, rows [][]string, err error)
}

// Load reads every row from src and builds a table. Any malformed row fails
// the whole load; there is no partial result.
func Load(ctx context.Context, src Source) (*Table, error) {
	header, rows, err := src.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ticket source: %w", err)
	}
	return Parse(header, rows)
}

// Parse converts a header and rows into a table.
func Parse(header []string, rows [][]string) (*Table, error) {
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	tickets := make([]domain.Ticket, 0, len(rows))
	for i, row := range rows {
		ticket, err := parseRow(i+1, row, cols)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return NewTable(tickets)
}

// ParseTimestamp accepts the layouts seen in exported ticket files. Values
// without a zone are read as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, raw)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

type columnIndex struct {
	id, submitter, issue, category, timestamp int
	tag                                       int // -1 when the source carries no tag column
}

func mapColumns(header []string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := positions[name]; !ok {
			return columnIndex{}, apperrors.NewSchemaError(name)
		}
	}
	idx := columnIndex{
		id:        positions[ColumnID],
		submitter: positions[ColumnSubmitter],
		issue:     positions[ColumnIssue],
		category:  positions[ColumnCategory],
		timestamp: positions[ColumnTimestamp],
		tag:       -1,
	}
	if pos, ok := positions[ColumnTag]; ok {
		idx.tag = pos
	}
	return idx, nil
}

func parseRow(rowNum int, row []string, cols columnIndex) (domain.Ticket, error) {
	field := func(pos int, name string) (string, error) {
		if pos >= len(row) {
			return "", apperrors.NewParseError(rowNum, name, "field missing", nil)
		}
		return row[pos], nil
	}

	id, err := field(cols.id, ColumnID)
	if err != nil {
		return domain.Ticket{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Ticket{}, apperrors.NewParseError(rowNum, ColumnID, "empty ticket id", nil)
	}

	submitter, err := field(cols.submitter, ColumnSubmitter)
	if err != nil {
		return domain.Ticket{}, err
	}
	issue, err := field(cols.issue, ColumnIssue)
	if err != nil {
		return domain.Ticket{}, err
	}

	rawCategory, err := field(cols.category, ColumnCategory)
	if err != nil {
		return domain.Ticket{}, err
	}
	category, ok := domain.ParseCategory(rawCategory)
	if !ok {
		return domain.Ticket{}, apperrors.NewParseError(rowNum, ColumnCategory, fmt.Sprintf("unknown category %q", rawCategory), nil)
	}

	rawTS, err := field(cols.timestamp, ColumnTimestamp)
	if err != nil {
		return domain.Ticket{}, err
	}
	createdAt, err := ParseTimestamp(rawTS)
	if err != nil {
		return domain.Ticket{}, apperrors.NewParseError(rowNum, ColumnTimestamp, fmt.Sprintf("invalid timestamp %q", rawTS), err)
	}

	ticket := domain.Ticket{
		ID:        id,
		Submitter: submitter,
		IssueText: issue,
		Category:  category,
		CreatedAt: createdAt,
	}

	if cols.tag >= 0 && cols.tag < len(row) {
		if raw := strings.TrimSpace(row[cols.tag]); raw != "" {
			tag, ok := domain.ParseTag(raw)
			if !ok {
				return domain.Ticket{}, apperrors.NewParseError(rowNum, ColumnTag, fmt.Sprintf("invalid tag %q", raw), nil)
			}
			ticket = ticket.WithTag(tag)
		}
	}
	return ticket, nil
}
