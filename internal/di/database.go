// Package di declares the application's container recipes. Nothing here
// builds anything; the container does that on first Make.
package di

import (
	"log/slog"

	"github.com/shashiranjanraj/demoapp/config"
	"github.com/shashiranjanraj/demoapp/pkg/container"
	"github.com/shashiranjanraj/demoapp/pkg/database"
)

// Database declares the driver and the connection built on top of it.
func Database(c *container.Container, params config.Params, log *slog.Logger) {
	db := params.DB

	c.Singleton(database.DriverKey, func(container.Resolver) (any, error) {
		return database.NewDriver(db.DSN, db.Username, db.Password), nil
	})

	c.Singleton(database.ConnectionKey, func(r container.Resolver) (any, error) {
		driver, err := container.Resolve[*database.Driver](r, database.DriverKey)
		if err != nil {
			return nil, err
		}
		return database.NewConn(driver, log), nil
	})
}
