package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	apperrors "github.com/spec-kit/support-insights/pkg/util/errorutil"
)

// FileSource reads tickets from a CSV file on disk.
type FileSource struct {
	Path string
}

// Records implements Source.
func (s FileSource) Records(ctx context.Context) ([]string, [][]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()
	return ReaderSource{Reader: f}.Records(ctx)
}

// ReaderSource reads tickets from CSV text.
type ReaderSource struct {
	Reader io.Reader
}

// Records implements Source. An input with no header row yields an empty header,
// which the loader reports as a schema error.
func (s ReaderSource) Records(ctx context.Context) ([]string, [][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	r := csv.NewReader(s.Reader)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, nil, apperrors.NewParseError(perr.Line-1, "csv", perr.Err.Error(), err)
		}
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return []string{}, nil, nil
	}
	return records[0], records[1:], nil
}

// ReadCSV is shorthand for Load over a ReaderSource.
func ReadCSV(r io.Reader) (*Table, error) {
	return Load(context.Background(), ReaderSource{Reader: r})
}

// formatTimestamp keeps the short layout for UTC values and the zone offset
// for everything else, so a written file loads back to the same instants.
func formatTimestamp(ts time.Time) string {
	if ts.Location() == time.UTC {
		return ts.Format(TimestampLayout)
	}
	return ts.Format(time.RFC3339Nano)
}

// WriteCSV writes the table with the same columns the loader reads, plus the
// tag column. Untagged tickets get an empty tag cell.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnID, ColumnSubmitter, ColumnIssue, ColumnCategory, ColumnTimestamp, ColumnTag}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, ticket := range t.Tickets() {
		tag := ""
		if ticket.Tag != nil {
			tag = string(*ticket.Tag)
		}
		record := []string{
			ticket.ID,
			ticket.Submitter,
			ticket.IssueText,
			string(ticket.Category),
			formatTimestamp(ticket.CreatedAt),
			tag,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", ticket.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
