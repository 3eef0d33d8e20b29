package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/koustreak/askdb/internal/database"
	"github.com/koustreak/askdb/internal/errs"
)

// maintenanceDB is used when the caller has not picked a database yet.
const maintenanceDB = "postgres"

// Connector opens one PostgreSQL connection per request.
type Connector struct {
	cfg *database.Config
}

var _ database.Connector = (*Connector)(nil)

// NewConnector returns a Connector for the server described by cfg.
func NewConnector(cfg *database.Config) *Connector {
	return &Connector{cfg: cfg}
}

// Open connects to the named database. An empty name connects to the
// maintenance database, which is enough to list databases.
func (c *Connector) Open(ctx context.Context, name string) (database.Source, error) {
	target := name
	if target == "" {
		target = maintenanceDB
	}
	cfg := c.cfg.WithDatabase(target)

	connCfg, err := pgx.ParseConfig(buildDSN(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid postgres configuration", err)
	}
	if cfg.ConnectTimeout > 0 {
		connCfg.ConnectTimeout = cfg.ConnectTimeout
	}

	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("connect to %s failed", cfg.Host))
	}

	return &Source{conn: conn, name: name}, nil
}

// buildDSN constructs the postgres connection string
func buildDSN(cfg *database.Config) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := cfg.Port
	if port == 0 {
		port = database.DefaultPort(database.DriverPostgres)
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, port, quote(cfg.User), quote(cfg.Password), quote(cfg.Database), sslMode,
	)
}

// quote escapes a keyword/value connection string value.
func quote(v string) string {
	if v == "" {
		return "''"
	}
	out := make([]byte, 0, len(v)+2)
	out = append(out, '\'')
	for i := 0; i < len(v); i++ {
		if v[i] == '\'' || v[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, v[i])
	}
	return string(append(out, '\''))
}
