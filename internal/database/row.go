package database

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/koustreak/askdb/internal/errs"
)

// Rowset is a fully drained result set: ordered column names and ordered rows.
type Rowset struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Len returns the number of rows.
func (r *Rowset) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// ScanRowset reads every row from the result set into a Rowset.
//
// The returned Rows slice is always non-nil (empty on zero rows).
// ScanRowset always closes rows.
func ScanRowset(rows Rows) (*Rowset, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}

	set := &Rowset{Columns: columns, Rows: make([][]any, 0)}

	for rows.Next() {
		// Allocate scan targets as *any so the driver can write any type.
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan row", err)
		}
		for i, v := range dest {
			dest[i] = normalize(v)
		}
		set.Rows = append(set.Rows, dest)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "error during row iteration", err)
	}

	return set, nil
}

// normalize turns driver values into plain ones so results render and
// encode as text. Driver-specific types are unwrapped through
// driver.Valuer.
func normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case driver.Valuer:
		dv, err := t.Value()
		if err != nil {
			return fmt.Sprint(v)
		}
		return normalize(dv)
	default:
		return v
	}
}
