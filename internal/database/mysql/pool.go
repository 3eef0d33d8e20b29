package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/askdb/internal/database"
	"github.com/koustreak/askdb/internal/errs"
)

// Connector opens one MySQL connection per request.
type Connector struct {
	cfg *database.Config
}

var _ database.Connector = (*Connector)(nil)

// NewConnector returns a Connector for the server described by cfg.
func NewConnector(cfg *database.Config) *Connector {
	return &Connector{cfg: cfg}
}

// Open connects to the named database (or to the server only when name is
// empty) and verifies the connection with a ping.
func (c *Connector) Open(ctx context.Context, name string) (database.Source, error) {
	cfg := c.cfg.WithDatabase(name)

	db, err := sql.Open("mysql", buildDSN(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid mysql configuration", err)
	}

	// One connection per request; pooling belongs to the platform layer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, mapError(err, fmt.Sprintf("connect to %s failed", cfg.Host))
	}

	return newSource(db, name), nil
}

// buildDSN constructs the go-sql-driver DSN. Multi-statement payloads stay
// disabled at the driver level.
func buildDSN(cfg *database.Config) string {
	port := cfg.Port
	if port == 0 {
		port = database.DefaultPort(database.DriverMySQL)
	}

	mc := gomysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.MultiStatements = false
	mc.Timeout = cfg.ConnectTimeout
	return mc.FormatDSN()
}
