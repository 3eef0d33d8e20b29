package database

import "context"

// Source is a single open connection to a data source. It is scoped to one
// request: callers open it through a Connector and must Close it on every
// exit path. Implementations are not safe for concurrent use.
//
// All layers above this package talk only to this interface;
// they never import the postgres or mysql packages directly.
type Source interface {
	// Name returns the database the source is connected to ("" if none).
	Name() string

	// ListDatabases returns the databases visible to the configured user.
	ListDatabases(ctx context.Context) ([]string, error)

	// ListTables returns user-defined table names in the current database.
	ListTables(ctx context.Context) ([]string, error)

	// ListColumns returns the column names of table in ordinal order.
	ListColumns(ctx context.Context, table string) ([]string, error)

	// Query runs a statement that produces a result set.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// Begin starts a transaction for statements that change data.
	Begin(ctx context.Context) (Tx, error)

	// Dialect reports the placeholder and quoting style of the source.
	Dialect() Dialect

	// Close releases the connection.
	Close() error
}

// Tx is an open transaction on a Source.
type Tx interface {
	// Exec runs a statement and returns the number of rows affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set. An empty slice
	// means the driver provided no result descriptor.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Connector opens a Source for a named database. An empty name connects
// without selecting a database, which is enough for ListDatabases.
type Connector interface {
	Open(ctx context.Context, database string) (Source, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, database string) (Source, error)

func (f ConnectorFunc) Open(ctx context.Context, database string) (Source, error) {
	return f(ctx, database)
}
