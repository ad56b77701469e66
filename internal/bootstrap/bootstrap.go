// Package bootstrap assembles the application container.
package bootstrap

import (
	"log/slog"

	"github.com/shashiranjanraj/demoapp/config"
	"github.com/shashiranjanraj/demoapp/internal/di"
	"github.com/shashiranjanraj/demoapp/internal/infrastructure"
	"github.com/shashiranjanraj/demoapp/pkg/container"
	"github.com/shashiranjanraj/demoapp/pkg/logger"
)

// New declares every recipe and applies the service providers. Nothing is
// built until the returned container is asked for it.
func New(params config.Params, log *slog.Logger) *container.Container {
	log = logger.Or(log)

	c := container.New()
	di.Database(c, params, log)
	di.Migration(c, log)
	c.Register(infrastructure.NewServiceProvider(params.Root()))

	log.Debug("bootstrap: container ready", "root", params.Root(), "dsn", params.DB.DSN)
	return c
}
