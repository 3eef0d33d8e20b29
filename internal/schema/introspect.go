package schema

import (
	"context"
	"fmt"

	"github.com/koustreak/askdb/internal/database"
	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/logger"
)

// Provider implements Reader on top of database.Source listings.
type Provider struct {
	log *logger.Logger
}

var _ Reader = (*Provider)(nil)

// NewProvider creates a Provider. A nil logger disables logging.
func NewProvider(log *logger.Logger) *Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &Provider{log: log}
}

// Fetch lists every table of src and then each table's columns.
// The fetch is all-or-nothing: a failed listing, or a table whose column
// listing comes back empty, fails the whole snapshot.
func (p *Provider) Fetch(ctx context.Context, src database.Source) (*Snapshot, error) {
	tables, err := src.ListTables(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindSourceUnavailable, "list tables", err)
	}

	snap := &Snapshot{
		Source: src.Name(),
		Tables: make([]TableDescriptor, 0, len(tables)),
	}

	for _, table := range tables {
		cols, err := src.ListColumns(ctx, table)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindSourceUnavailable, fmt.Sprintf("list columns of %q", table), err)
		}
		if len(cols) == 0 {
			return nil, errs.New(errs.ErrKindSourceUnavailable, fmt.Sprintf("table %q has no visible columns", table))
		}
		snap.Tables = append(snap.Tables, TableDescriptor{Name: table, Columns: cols})
	}

	p.log.With().
		Str("source", snap.Source).
		Int("tables", len(snap.Tables)).
		Logger().
		Debug("schema snapshot fetched")

	return snap, nil
}
