package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/support-insights/internal/domain"
	apperrors "github.com/spec-kit/support-insights/pkg/util/errorutil"
)

// Execer is the subset of pgxpool.Pool used for writes.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresTagWriter stores tag assignments back into support_tickets.
type PostgresTagWriter struct {
	db Execer
}

// NewPostgresTagWriter instantiates the writer.
func NewPostgresTagWriter(db Execer) *PostgresTagWriter {
	return &PostgresTagWriter{db: db}
}

// SaveTag sets gpt_tag for one ticket.
func (w *PostgresTagWriter) SaveTag(ctx context.Context, ticketID string, tag domain.Tag) error {
	const query = `UPDATE support_tickets SET gpt_tag = $2 WHERE ticket_id = $1`
	res, err := w.db.Exec(ctx, query, ticketID, string(tag))
	if err != nil {
		return fmt.Errorf("update gpt_tag for %s: %w", ticketID, err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	return nil
}
