// Package database holds the connection layer: a Driver built from a
// PDO-style DSN plus credentials, and a lazily opened Connection on top
// of it.
package database

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
)

var (
	// ErrInvalidDSN is returned when a DSN cannot be split into scheme and pairs.
	ErrInvalidDSN = errors.New("database: invalid dsn")
	// ErrUnsupportedDriver is returned for a DSN scheme with no dialector.
	ErrUnsupportedDriver = errors.New("database: unsupported driver")
)

// Driver describes how to reach a database. Building one never fails;
// the DSN is only interpreted when a connection is opened.
type Driver struct {
	dsn      string
	username string
	password string
}

// NewDriver creates a Driver from a DSN such as
// "mysql:host=localhost;dbname=app;charset=utf8mb4".
func NewDriver(dsn, username, password string) *Driver {
	return &Driver{dsn: dsn, username: username, password: password}
}

// DSN returns the DSN the driver was built with.
func (d *Driver) DSN() string { return d.dsn }

// Username returns the login name.
func (d *Driver) Username() string { return d.username }

// Name returns the DSN scheme, e.g. "mysql".
func (d *Driver) Name() string {
	scheme, _, _ := strings.Cut(d.dsn, ":")
	return strings.ToLower(scheme)
}

// ConnString translates the DSN and credentials into the connection string
// understood by the underlying Go driver for the scheme.
func (d *Driver) ConnString() (string, error) {
	scheme, rest, ok := strings.Cut(d.dsn, ":")
	if !ok || scheme == "" {
		return "", fmt.Errorf("%w: %q has no scheme", ErrInvalidDSN, d.dsn)
	}

	switch strings.ToLower(scheme) {
	case "sqlite":
		if rest == "" {
			return "", fmt.Errorf("%w: sqlite dsn needs a path", ErrInvalidDSN)
		}
		return rest, nil
	case "mysql":
		pairs, err := parsePairs(rest)
		if err != nil {
			return "", err
		}
		return d.mysqlConnString(pairs), nil
	case "pgsql":
		pairs, err := parsePairs(rest)
		if err != nil {
			return "", err
		}
		return d.pgsqlConnString(pairs), nil
	case "sqlsrv":
		pairs, err := parsePairs(rest)
		if err != nil {
			return "", err
		}
		return d.sqlsrvConnString(pairs), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, scheme)
	}
}

// Dialector returns the gorm dialector for the DSN scheme.
func (d *Driver) Dialector() (gorm.Dialector, error) {
	conn, err := d.ConnString()
	if err != nil {
		return nil, err
	}

	switch d.Name() {
	case "mysql":
		return mysql.Open(conn), nil
	case "pgsql":
		return postgres.Open(conn), nil
	case "sqlite":
		return sqlite.Open(conn), nil
	case "sqlsrv":
		return sqlserver.Open(conn), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, d.Name())
}

func (d *Driver) mysqlConnString(pairs map[string]string) string {
	cfg := mysqldriver.NewConfig()
	cfg.User = d.username
	cfg.Passwd = d.password
	cfg.DBName = pairs["dbname"]
	cfg.ParseTime = true
	cfg.MultiStatements = true

	if socket := pairs["unix_socket"]; socket != "" {
		cfg.Net = "unix"
		cfg.Addr = socket
	} else {
		cfg.Net = "tcp"
		cfg.Addr = hostPort(pairs["host"], pairs["port"], "3306")
	}

	if charset := pairs["charset"]; charset != "" {
		cfg.Params = map[string]string{"charset": charset}
	}

	return cfg.FormatDSN()
}

func (d *Driver) pgsqlConnString(pairs map[string]string) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   hostPort(pairs["host"], pairs["port"], "5432"),
		Path:   "/" + pairs["dbname"],
	}
	if d.username != "" {
		u.User = url.UserPassword(d.username, d.password)
	}

	q := url.Values{}
	if mode := pairs["sslmode"]; mode != "" {
		q.Set("sslmode", mode)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func (d *Driver) sqlsrvConnString(pairs map[string]string) string {
	// PDO writes "Server=host,port".
	host, port, _ := strings.Cut(pairs["server"], ",")

	u := url.URL{
		Scheme: "sqlserver",
		Host:   hostPort(host, port, "1433"),
	}
	if d.username != "" {
		u.User = url.UserPassword(d.username, d.password)
	}

	q := url.Values{}
	if db := pairs["database"]; db != "" {
		q.Set("database", db)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// parsePairs splits "k=v;k=v". Keys are case-insensitive; empty segments
// are skipped.
func parsePairs(s string) (map[string]string, error) {
	pairs := map[string]string{}
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: segment %q is not key=value", ErrInvalidDSN, part)
		}
		pairs[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return pairs, nil
}

func hostPort(host, port, defaultPort string) string {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = defaultPort
	}
	return net.JoinHostPort(host, port)
}

// Container keys the database services are bound under.
const (
	DriverKey     = "db.driver"
	ConnectionKey = "db.connection"
)
