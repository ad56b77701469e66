package di

import (
	"log/slog"

	"github.com/shashiranjanraj/demoapp/pkg/container"
	"github.com/shashiranjanraj/demoapp/pkg/database"
	"github.com/shashiranjanraj/demoapp/pkg/migration"
)

// Migration declares the migration service. Its settings are contributed
// by service providers.
func Migration(c *container.Container, log *slog.Logger) {
	c.Singleton(migration.ServiceKey, func(r container.Resolver) (any, error) {
		conn, err := container.Resolve[database.Connection](r, database.ConnectionKey)
		if err != nil {
			return nil, err
		}
		return migration.NewService(conn, nil, log), nil
	})
}
