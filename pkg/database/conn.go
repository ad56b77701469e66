package database

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashiranjanraj/demoapp/pkg/logger"
)

// Pool settings applied to every opened connection.
const (
	maxOpenConns    = 25
	maxIdleConns    = 10
	connMaxLifetime = 5 * time.Minute
	connMaxIdleTime = 2 * time.Minute
)

// Connection is what application code depends on.
type Connection interface {
	// DB returns the gorm handle, opening it on first use.
	DB() (*gorm.DB, error)
	Ping(ctx context.Context) error
	Close() error
	DriverName() string
	// RegisterMetrics exposes the pool statistics on reg.
	RegisterMetrics(reg prometheus.Registerer) error
}

// Conn is the Connection implementation backed by a Driver.
type Conn struct {
	driver *Driver
	log    *slog.Logger

	mu sync.Mutex
	db *gorm.DB
}

var _ Connection = (*Conn)(nil)

// NewConn wraps driver. Nothing is opened until DB is called.
func NewConn(driver *Driver, log *slog.Logger) *Conn {
	return &Conn{driver: driver, log: logger.Or(log)}
}

// Driver returns the driver the connection was built from.
func (c *Conn) Driver() *Driver { return c.driver }

// DriverName returns the DSN scheme.
func (c *Conn) DriverName() string { return c.driver.Name() }

// DB opens the database on first call and configures the pool. A failed
// open is not remembered; the next call tries again.
func (c *Conn) DB() (*gorm.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db, nil
	}

	dialector, err := c.driver.Dialector()
	if err != nil {
		return nil, fmt.Errorf("database: build dialector: %w", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	c.log.Debug("database: opened", "driver", c.driver.Name(), "user", c.driver.Username())
	c.db = db
	return db, nil
}

// Ping opens the connection if needed and checks it is live.
func (c *Conn) Ping(ctx context.Context) error {
	db, err := c.DB()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database: get sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: ping: %w", err)
	}
	return nil
}

// Close releases the pool. Closing an unopened connection is a no-op.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("database: get sql.DB: %w", err)
	}
	c.db = nil
	return sqlDB.Close()
}

// RegisterMetrics exposes the database/sql pool statistics on reg. The
// connection is opened if it is not already.
func (c *Conn) RegisterMetrics(reg prometheus.Registerer) error {
	db, err := c.DB()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database: get sql.DB: %w", err)
	}
	if err := reg.Register(collectors.NewDBStatsCollector(sqlDB, c.driver.Name())); err != nil {
		return fmt.Errorf("database: register metrics: %w", err)
	}
	return nil
}
