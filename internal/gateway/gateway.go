// Package gateway runs classified statements against an open data source.
package gateway

import (
	"context"
	"time"

	"github.com/koustreak/askdb/internal/database"
	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/logger"
	"github.com/koustreak/askdb/internal/statement"
)

// Options configures a Gateway.
type Options struct {
	// Strict enables the statement boundary check before execution.
	Strict bool
	// Timeout bounds one statement run. Zero means no limit beyond ctx.
	Timeout time.Duration
	Logger  *logger.Logger
}

// Gateway executes statements by class: read-only statements are queried
// and drained, mutating statements run in a transaction, and rejected
// statements never reach the source.
type Gateway struct {
	strict  bool
	timeout time.Duration
	log     *logger.Logger
}

// New creates a Gateway.
func New(opts Options) *Gateway {
	g := &Gateway{strict: opts.Strict, timeout: opts.Timeout, log: opts.Logger}
	if g.log == nil {
		g.log = logger.Nop()
	}
	return g
}

// Execute runs stmt according to class.
//
// Rejected statements, and statements failing the boundary check, come back
// as a KindRejected result with a nil error. Driver failures are returned
// as ErrKindExecution carrying the driver text, with no result.
func (g *Gateway) Execute(ctx context.Context, src database.Source, stmt string, class statement.Class) (*Result, error) {
	if class == statement.Rejected {
		return &Result{Kind: KindRejected, Message: RejectedMessage}, nil
	}

	if g.strict {
		if err := statement.NewGuard(src.Dialect()).Check(stmt, class); err != nil {
			g.log.With().Str("class", class.String()).Err(err).Logger().Warn("statement failed boundary check")
			return &Result{Kind: KindRejected, Message: errs.Display(err)}, nil
		}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if class == statement.ReadOnly {
		return g.query(ctx, src, stmt)
	}
	return g.mutate(ctx, src, stmt)
}

func (g *Gateway) query(ctx context.Context, src database.Source, stmt string) (*Result, error) {
	start := time.Now()

	rows, err := src.Query(ctx, stmt)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindExecution, "query failed", err)
	}
	set, err := database.ScanRowset(rows)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindExecution, "query failed", err)
	}

	elapsed := time.Since(start)

	synthetic := len(set.Columns) == 0
	if synthetic {
		set.Columns = []string{SyntheticColumn}
	}

	res := &Result{Kind: KindRowset, Rowset: set}
	res.setElapsed(elapsed)

	g.log.With().
		Int("rows", set.Len()).
		Bool("synthetic_column", synthetic).
		Dur("elapsed", elapsed).
		Logger().
		Debug("read-only statement executed")

	return res, nil
}

func (g *Gateway) mutate(ctx context.Context, src database.Source, stmt string) (*Result, error) {
	start := time.Now()

	tx, err := src.Begin(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindExecution, "begin failed", err)
	}

	n, err := tx.Exec(ctx, stmt)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			g.log.With().Err(rbErr).Logger().Warn("rollback failed")
		}
		return nil, errs.Wrap(errs.ErrKindExecution, "statement failed", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errs.Wrap(errs.ErrKindExecution, "commit failed", err)
	}

	elapsed := time.Since(start)

	res := &Result{Kind: KindAcknowledgement, Message: AcknowledgedMessage, RowsAffected: n}
	res.setElapsed(elapsed)

	g.log.With().
		Int("rows_affected", int(n)).
		Dur("elapsed", elapsed).
		Logger().
		Info("mutating statement committed")

	return res, nil
}
