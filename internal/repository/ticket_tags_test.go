package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/support-insights/pkg/util/errorutil"
)

type fakeExecer struct {
	tag  string
	err  error
	args []any
}

func (f *fakeExecer) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	f.args = args
	return pgconn.NewCommandTag(f.tag), f.err
}

func TestPostgresTagWriterSaveTag(t *testing.T) {
	db := &fakeExecer{tag: "UPDATE 1"}
	require.NoError(t, NewPostgresTagWriter(db).SaveTag(context.Background(), "t1", "login"))
	assert.Equal(t, []any{"t1", "login"}, db.args)
}

func TestPostgresTagWriterUnknownTicket(t *testing.T) {
	db := &fakeExecer{tag: "UPDATE 0"}
	err := NewPostgresTagWriter(db).SaveTag(context.Background(), "missing", "login")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgresTagWriterPropagatesErrors(t *testing.T) {
	db := &fakeExecer{err: errors.New("conn reset")}
	err := NewPostgresTagWriter(db).SaveTag(context.Background(), "t1", "login")
	assert.ErrorContains(t, err, "conn reset")
}
