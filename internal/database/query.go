package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/askdb/internal/errs"
)

// Dialect controls which SQL placeholder and identifier quoting style the
// query builder emits.
type Dialect int

const (
	// DialectPostgres uses $1, $2, … placeholders and "double quoted" identifiers.
	DialectPostgres Dialect = iota

	// DialectMySQL uses ? placeholders and `backtick` identifiers.
	DialectMySQL
)

func (d Dialect) String() string {
	if d == DialectMySQL {
		return "mysql"
	}
	return "postgres"
}

// maxPreviewLimit caps LIMIT for builder-generated previews.
const maxPreviewLimit = 1000

// SelectBuilder constructs a parameterized SELECT over one table.
// Values are never interpolated into the SQL string; they are passed as args.
//
// Usage (MySQL):
//
//	sql, args, err := Select("signup", DialectMySQL).
//	    Columns("id", "name", "age").
//	    Limit(20).
//	    Build()
type SelectBuilder struct {
	table   string
	dialect Dialect
	columns []string
	limit   *int
}

// Select starts a new SelectBuilder for the given table and dialect.
func Select(table string, d Dialect) *SelectBuilder {
	return &SelectBuilder{table: table, dialect: d}
}

// Columns restricts the SELECT to the specified columns.
// If not called, SELECT * is used.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// Limit sets the maximum number of rows to return.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = &n
	return b
}

// Build produces the final SQL string and argument slice.
func (b *SelectBuilder) Build() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, errs.New(errs.ErrKindInvalidInput, "table name is required")
	}

	cols := "*"
	if len(b.columns) > 0 {
		quoted := make([]string, len(b.columns))
		for i, c := range b.columns {
			quoted[i] = b.quoteIdent(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(b.quoteIdent(b.table))

	var args []any
	if b.limit != nil {
		n := *b.limit
		if n <= 0 || n > maxPreviewLimit {
			return "", nil, errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("limit must be between 1 and %d, got %d", maxPreviewLimit, n))
		}
		sb.WriteString(" LIMIT ")
		sb.WriteString(b.placeholder(1))
		args = append(args, n)
	}

	return sb.String(), args, nil
}

// placeholder returns the correct parameter placeholder for the dialect.
// Postgres: $1, $2, …   MySQL: ? (index is ignored)
func (b *SelectBuilder) placeholder(idx int) string {
	if b.dialect == DialectMySQL {
		return "?"
	}
	return fmt.Sprintf("$%d", idx)
}

// quoteIdent quotes a SQL identifier for the dialect, doubling any embedded
// quote character.
func (b *SelectBuilder) quoteIdent(name string) string {
	if b.dialect == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
