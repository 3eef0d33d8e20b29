package database

import (
	"fmt"
	"strings"
	"time"
)

// Driver identifies the database engine.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// ParseDriver maps a config string onto a Driver.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql", "mariadb":
		return DriverMySQL, nil
	case "postgres", "postgresql", "pg":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unknown database driver %q (want mysql or postgres)", s)
	}
}

// Config holds the connection parameters for a data source. Database is
// optional; the connector fills it in per request from the data source id.
type Config struct {
	Driver   Driver
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // postgres only

	ConnectTimeout time.Duration // time limit for establishing a connection
}

// DefaultPort returns the well-known port for driver.
func DefaultPort(driver Driver) int {
	if driver == DriverPostgres {
		return 5432
	}
	return 3306
}

// WithDatabase returns a copy of c targeting database.
func (c Config) WithDatabase(database string) *Config {
	c.Database = database
	return &c
}
