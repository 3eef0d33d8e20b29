package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/askdb/internal/database"
	"github.com/koustreak/askdb/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	cfg := &database.Config{Host: "db.local", User: "app", Password: "p'w", Database: "shop"}

	dsn := buildDSN(cfg)
	assert.Equal(t, `host=db.local port=5432 user='app' password='p\'w' dbname='shop' sslmode=disable`, dsn)

	parsed, err := pgx.ParseConfig(dsn)
	assert.NoError(t, err)
	assert.Equal(t, "p'w", parsed.Password)
	assert.Equal(t, "shop", parsed.Database)
}

func TestBuildDSN_SSLMode(t *testing.T) {
	cfg := &database.Config{Host: "h", Port: 6543, SSLMode: "require"}
	assert.Equal(t, "host=h port=6543 user='' password='' dbname='' sslmode=require", buildDSN(cfg))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"no rows", pgx.ErrNoRows, errs.ErrKindNotFound},
		{"connection class", &pgconn.PgError{Code: "08006", Message: "gone"}, errs.ErrKindConnectionFailed},
		{"bad password", &pgconn.PgError{Code: "28P01"}, errs.ErrKindConnectionFailed},
		{"privilege", &pgconn.PgError{Code: "42501"}, errs.ErrKindPermissionDenied},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, errs.ErrKindNotFound},
		{"syntax", &pgconn.PgError{Code: "42601", Message: "syntax error at or near \"SELEC\""}, errs.ErrKindQueryFailed},
		{"wrapped syntax", fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "42601"}), errs.ErrKindQueryFailed},
		{"network", errors.New("dial tcp: refused"), errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "op")
			assert.Equal(t, tt.kind, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.Nil(t, mapError(nil, "op"))
}

func TestMapError_KeepsServerMessage(t *testing.T) {
	got := mapError(&pgconn.PgError{Code: "42601", Message: "syntax error"}, "query failed")
	assert.Equal(t, "query failed: syntax error", got.Message)
}

type recordingTx struct {
	pgx.Tx
	execs []string
}

func (r *recordingTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	r.execs = append(r.execs, sql)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func TestTxExec_ArgumentlessStatementsBypassSimpleProtocol(t *testing.T) {
	ctx := context.Background()
	rec := &recordingTx{}
	var single []string
	tx := &pgTx{tx: rec, execOne: func(_ context.Context, sql string) (pgconn.CommandTag, error) {
		single = append(single, sql)
		return pgconn.NewCommandTag("DELETE 3"), nil
	}}

	n, err := tx.Exec(ctx, "DELETE FROM signup WHERE id > 1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []string{"DELETE FROM signup WHERE id > 1"}, single)
	assert.Empty(t, rec.execs)

	n, err = tx.Exec(ctx, "UPDATE signup SET name = $1", "Sam")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{"UPDATE signup SET name = $1"}, rec.execs)
}

func TestTxExec_StackedStatementsRefused(t *testing.T) {
	refused := &pgconn.PgError{Code: "42601", Message: "cannot insert multiple commands into a prepared statement"}
	tx := &pgTx{tx: &recordingTx{}, execOne: func(context.Context, string) (pgconn.CommandTag, error) {
		return pgconn.CommandTag{}, refused
	}}

	_, err := tx.Exec(context.Background(), "DELETE FROM t; DROP TABLE t")
	assert.True(t, errs.IsQueryFailed(err))
	assert.ErrorIs(t, err, refused)
}
