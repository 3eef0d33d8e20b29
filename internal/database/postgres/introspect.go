package postgres

import (
	"context"
	"fmt"
)

// ListDatabases returns every non-template database on the server.
func (s *Source) ListDatabases(ctx context.Context) ([]string, error) {
	const q = `
		SELECT datname
		FROM pg_database
		WHERE NOT datistemplate
		ORDER BY datname`

	return s.stringList(ctx, q, "failed to list databases")
}

// ListTables returns the tables and views of the current schema.
func (s *Source) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY table_name`

	return s.stringList(ctx, q, "failed to list tables")
}

// ListColumns returns the column names of table in ordinal order.
func (s *Source) ListColumns(ctx context.Context, table string) ([]string, error) {
	const q = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema()
		  AND table_name   = $1
		ORDER BY ordinal_position`

	return s.stringList(ctx, q, fmt.Sprintf("failed to list columns of %s", table), table)
}

// stringList is a helper for queries that return a single text column.
func (s *Source) stringList(ctx context.Context, q, errMsg string, args ...any) ([]string, error) {
	rows, err := s.conn.Query(ctx, q, args...)
	if err != nil {
		return nil, mapError(err, errMsg)
	}
	defer rows.Close()

	var list []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, mapError(err, errMsg)
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, errMsg)
	}
	return list, nil
}
