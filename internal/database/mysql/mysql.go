package mysql

import (
	"context"
	"database/sql"

	"github.com/koustreak/askdb/internal/database"
)

// Source implements database.Source for MySQL on top of database/sql.
// It holds a single connection for the lifetime of one request.
type Source struct {
	sqlDB *sql.DB
	name  string
}

var _ database.Source = (*Source)(nil)

func newSource(db *sql.DB, name string) *Source {
	return &Source{sqlDB: db, name: name}
}

// Name returns the selected database.
func (s *Source) Name() string {
	return s.name
}

// Dialect reports MySQL placeholder and quoting style.
func (s *Source) Dialect() database.Dialect {
	return database.DialectMySQL
}

// Close releases the connection
func (s *Source) Close() error {
	if s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Query executes a statement returning a result set
func (s *Source) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &mysqlRows{rows: rows}, nil
}

// Begin starts a transaction
func (s *Source) Begin(ctx context.Context) (database.Tx, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapError(err, "begin failed")
	}
	return &mysqlTx{tx: tx}, nil
}

// --- mysqlRows wraps *sql.Rows ---

type mysqlRows struct{ rows *sql.Rows }

func (r *mysqlRows) Next() bool { return r.rows.Next() }
func (r *mysqlRows) Close()     { _ = r.rows.Close() }

func (r *mysqlRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return mapError(err, "scan failed")
	}
	return nil
}

func (r *mysqlRows) Columns() ([]string, error) {
	cols, err := r.rows.Columns()
	if err != nil {
		return nil, mapError(err, "columns failed")
	}
	return cols, nil
}

func (r *mysqlRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, "row iteration failed")
	}
	return nil
}

// --- mysqlTx wraps *sql.Tx ---

type mysqlTx struct{ tx *sql.Tx }

func (t *mysqlTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, "exec failed")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapError(err, "rows affected unavailable")
	}
	return n, nil
}

func (t *mysqlTx) Commit(_ context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return mapError(err, "commit failed")
	}
	return nil
}

func (t *mysqlTx) Rollback(_ context.Context) error {
	if err := t.tx.Rollback(); err != nil {
		return mapError(err, "rollback failed")
	}
	return nil
}
