package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/askdb/internal/database"
)

// Source implements database.Source for PostgreSQL over a single pgx.Conn.
type Source struct {
	conn *pgx.Conn
	name string
}

var _ database.Source = (*Source)(nil)

// Name returns the connected database.
func (s *Source) Name() string {
	return s.name
}

// Dialect reports PostgreSQL placeholder and quoting style.
func (s *Source) Dialect() database.Dialect {
	return database.DialectPostgres
}

// Close terminates the connection
func (s *Source) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Close(context.Background()); err != nil {
		return mapError(err, "close failed")
	}
	return nil
}

// Query executes a statement returning a result set
func (s *Source) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &pgxRows{rows: rows}, nil
}

// Begin starts a transaction
func (s *Source) Begin(ctx context.Context) (database.Tx, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, mapError(err, "begin failed")
	}
	return &pgTx{tx: tx, execOne: execParams(tx)}, nil
}

// --- pgx type wrappers ---

// pgxRows wraps pgx.Rows to satisfy database.Rows.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool { return r.rows.Next() }
func (r *pgxRows) Close()     { r.rows.Close() }

func (r *pgxRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return mapError(err, "scan failed")
	}
	for _, d := range dest {
		if p, ok := d.(*any); ok {
			*p = plain(*p)
		}
	}
	return nil
}

func (r *pgxRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, "row iteration failed")
	}
	return nil
}

// Columns reads names from the field descriptions. Statements without a
// result descriptor yield an empty slice.
func (r *pgxRows) Columns() ([]string, error) {
	descs := r.rows.FieldDescriptions()
	cols := make([]string, len(descs))
	for i, d := range descs {
		cols[i] = d.Name
	}
	return cols, nil
}

// --- pgTx wraps pgx.Tx ---

type pgTx struct {
	tx pgx.Tx

	// execOne runs an argument-less statement.
	execOne func(ctx context.Context, sql string) (pgconn.CommandTag, error)
}

// execParams sends sql over the extended protocol, where the server refuses
// more than one statement. pgx.Tx.Exec without arguments uses the simple
// protocol, which runs every statement in the string.
func execParams(tx pgx.Tx) func(context.Context, string) (pgconn.CommandTag, error) {
	return func(ctx context.Context, sql string) (pgconn.CommandTag, error) {
		return tx.Conn().PgConn().ExecParams(ctx, sql, nil, nil, nil, nil).Close()
	}
}

func (t *pgTx) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	if len(args) == 0 {
		tag, err = t.execOne(ctx, sql)
	} else {
		tag, err = t.tx.Exec(ctx, sql, args...)
	}
	if err != nil {
		return 0, mapError(err, "exec failed")
	}
	return tag.RowsAffected(), nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return mapError(err, "commit failed")
	}
	return nil
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil {
		return mapError(err, "rollback failed")
	}
	return nil
}
