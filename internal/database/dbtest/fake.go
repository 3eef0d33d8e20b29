// Package dbtest provides in-memory fakes of database.Source and
// database.Connector for tests of the layers above the drivers.
package dbtest

import (
	"context"
	"errors"
	"sync"

	"github.com/koustreak/askdb/internal/database"
)

// Result is a canned result set returned by a fake query.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Source is a scriptable database.Source. Zero values behave as an empty
// database; the hook fields override individual operations.
type Source struct {
	DB         string
	Databases  []string
	Tables     []string
	Columns    map[string][]string
	SQLDialect database.Dialect

	ListDatabasesErr error
	ListTablesErr    error
	ColumnErrs       map[string]error

	// QueryFunc answers Query. Nil returns an empty result with no columns.
	QueryFunc func(sql string, args []any) (*Result, error)
	// ExecFunc answers Tx.Exec. Nil reports one affected row.
	ExecFunc  func(sql string) (int64, error)
	BeginErr  error
	CommitErr error

	mu        sync.Mutex
	Queries   []string
	Execs     []string
	Commits   int
	Rollbacks int
	Closed    bool
}

var _ database.Source = (*Source)(nil)

func (s *Source) Name() string { return s.DB }

func (s *Source) Dialect() database.Dialect { return s.SQLDialect }

func (s *Source) ListDatabases(context.Context) ([]string, error) {
	if s.ListDatabasesErr != nil {
		return nil, s.ListDatabasesErr
	}
	return s.Databases, nil
}

func (s *Source) ListTables(context.Context) ([]string, error) {
	if s.ListTablesErr != nil {
		return nil, s.ListTablesErr
	}
	return s.Tables, nil
}

func (s *Source) ListColumns(_ context.Context, table string) ([]string, error) {
	if err := s.ColumnErrs[table]; err != nil {
		return nil, err
	}
	return s.Columns[table], nil
}

func (s *Source) Query(_ context.Context, sql string, args ...any) (database.Rows, error) {
	s.mu.Lock()
	s.Queries = append(s.Queries, sql)
	s.mu.Unlock()

	if s.QueryFunc == nil {
		return &Rows{}, nil
	}
	res, err := s.QueryFunc(sql, args)
	if err != nil {
		return nil, err
	}
	return &Rows{res: *res}, nil
}

func (s *Source) Begin(context.Context) (database.Tx, error) {
	if s.BeginErr != nil {
		return nil, s.BeginErr
	}
	return &tx{src: s}, nil
}

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// Executions returns how many statements reached Query or Exec.
func (s *Source) Executions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Queries) + len(s.Execs)
}

type tx struct {
	src *Source
}

func (t *tx) Exec(_ context.Context, sql string, _ ...any) (int64, error) {
	t.src.mu.Lock()
	t.src.Execs = append(t.src.Execs, sql)
	t.src.mu.Unlock()

	if t.src.ExecFunc == nil {
		return 1, nil
	}
	return t.src.ExecFunc(sql)
}

func (t *tx) Commit(context.Context) error {
	if t.src.CommitErr != nil {
		return t.src.CommitErr
	}
	t.src.mu.Lock()
	t.src.Commits++
	t.src.mu.Unlock()
	return nil
}

func (t *tx) Rollback(context.Context) error {
	t.src.mu.Lock()
	t.src.Rollbacks++
	t.src.mu.Unlock()
	return nil
}

// Rows iterates a canned Result.
type Rows struct {
	res    Result
	pos    int
	closed bool
}

func (r *Rows) Next() bool {
	if r.closed || r.pos >= len(r.res.Rows) {
		return false
	}
	r.pos++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	if r.pos == 0 || r.pos > len(r.res.Rows) {
		return errors.New("dbtest: Scan called without Next")
	}
	row := r.res.Rows[r.pos-1]
	if len(dest) != len(row) {
		return errors.New("dbtest: destination count mismatch")
	}
	for i, v := range row {
		p, ok := dest[i].(*any)
		if !ok {
			return errors.New("dbtest: destinations must be *any")
		}
		*p = v
	}
	return nil
}

func (r *Rows) Columns() ([]string, error) { return r.res.Columns, nil }
func (r *Rows) Close()                     { r.closed = true }
func (r *Rows) Err() error                 { return nil }

// Connector hands out the same Source for every Open call.
type Connector struct {
	Source  *Source
	OpenErr error

	mu     sync.Mutex
	Opened []string
}

var _ database.Connector = (*Connector)(nil)

func (c *Connector) Open(_ context.Context, name string) (database.Source, error) {
	c.mu.Lock()
	c.Opened = append(c.Opened, name)
	c.mu.Unlock()

	if c.OpenErr != nil {
		return nil, c.OpenErr
	}
	if c.Source.DB == "" {
		c.Source.DB = name
	}
	return c.Source, nil
}
