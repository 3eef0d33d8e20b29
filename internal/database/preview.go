package database

import (
	"context"
	"fmt"

	"github.com/koustreak/askdb/internal/errs"
)

// DefaultPreviewLimit is the row count used when a preview asks for none.
const DefaultPreviewLimit = 20

// Preview returns the first limit rows of table. The column list comes from
// the live schema, so an unknown table fails with ErrKindNotFound before any
// query is built.
func Preview(ctx context.Context, src Source, table string, limit int) (*Rowset, error) {
	if limit == 0 {
		limit = DefaultPreviewLimit
	}

	cols, err := src.ListColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, errs.New(errs.ErrKindNotFound, fmt.Sprintf("table %q not found", table))
	}

	sql, args, err := Select(table, src.Dialect()).Columns(cols...).Limit(limit).Build()
	if err != nil {
		return nil, err
	}

	rows, err := src.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return ScanRowset(rows)
}
