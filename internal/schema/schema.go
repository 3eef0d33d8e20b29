package schema

import (
	"context"

	"github.com/koustreak/askdb/internal/database"
)

// Reader produces a Snapshot of an open data source.
type Reader interface {
	Fetch(ctx context.Context, src database.Source) (*Snapshot, error)
}
