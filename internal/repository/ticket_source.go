package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-insights/internal/store"
)

// Querier is the subset of pgxpool.Pool used by the repositories.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresTicketSource reads the support_tickets table as a ticket source.
// Rows are rendered into the same text form the CSV loader accepts, so both
// sources share one parser and one set of validation rules.
type PostgresTicketSource struct {
	db Querier
}

// NewPostgresTicketSource instantiates the source.
func NewPostgresTicketSource(db Querier) *PostgresTicketSource {
	return &PostgresTicketSource{db: db}
}

// Records implements store.Source.
func (s *PostgresTicketSource) Records(ctx context.Context) ([]string, [][]string, error) {
	if s == nil || s.db == nil {
		return nil, nil, fmt.Errorf("postgres ticket source: no database configured")
	}
	const query = `
        SELECT ticket_id, submitter, issue, category, created_at, gpt_tag
        FROM support_tickets
        ORDER BY created_at, ticket_id`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("query support_tickets: %w", err)
	}
	defer rows.Close()

	header := []string{store.ColumnID, store.ColumnSubmitter, store.ColumnIssue, store.ColumnCategory, store.ColumnTimestamp, store.ColumnTag}
	var records [][]string
	for rows.Next() {
		var (
			id, submitter, issue, category string
			createdAt                      time.Time
			tag                            *string
		)
		if err := rows.Scan(&id, &submitter, &issue, &category, &createdAt, &tag); err != nil {
			return nil, nil, fmt.Errorf("scan support_tickets: %w", err)
		}
		tagCell := ""
		if tag != nil {
			tagCell = *tag
		}
		records = append(records, []string{id, submitter, issue, category, createdAt.UTC().Format(time.RFC3339Nano), tagCell})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate support_tickets: %w", err)
	}
	return header, records, nil
}
