package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	sql  string
	args []any
	tag  string
	err  error
}

func (f *fakeExec) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql, f.args = sql, args
	return pgconn.NewCommandTag(f.tag), f.err
}

func TestPurge_ReportsDeletedRows(t *testing.T) {
	db := &fakeExec{tag: "DELETE 3"}

	n, err := purge(context.Background(), db, retention)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Contains(t, db.sql, "left_at IS NOT NULL")
	require.Len(t, db.args, 1)
	assert.Equal(t, (30 * 24 * time.Hour).Seconds(), db.args[0])
}

func TestPurge_WrapsError(t *testing.T) {
	boom := errors.New("conn refused")
	_, err := purge(context.Background(), &fakeExec{err: boom}, retention)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
