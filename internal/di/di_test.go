package di_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/demoapp/config"
	"github.com/shashiranjanraj/demoapp/internal/di"
	"github.com/shashiranjanraj/demoapp/pkg/container"
	"github.com/shashiranjanraj/demoapp/pkg/database"
	"github.com/shashiranjanraj/demoapp/pkg/migration"
)

func params() config.Params {
	return config.Params{
		DB: config.DBParams{
			DSN:      "mysql:host=db;dbname=app_test;charset=utf8mb4",
			Username: "app",
			Password: "pw",
		},
	}
}

func TestDatabase_DriverFromParams(t *testing.T) {
	c := container.New()
	di.Database(c, params(), nil)

	drv, err := container.Resolve[*database.Driver](c, database.DriverKey)
	require.NoError(t, err)

	assert.Equal(t, "mysql:host=db;dbname=app_test;charset=utf8mb4", drv.DSN())
	assert.Equal(t, "app", drv.Username())
}

func TestDatabase_ConnectionIsSingletonOverSameDriver(t *testing.T) {
	c := container.New()
	di.Database(c, params(), nil)

	first, err := container.Resolve[database.Connection](c, database.ConnectionKey)
	require.NoError(t, err)
	second, err := container.Resolve[database.Connection](c, database.ConnectionKey)
	require.NoError(t, err)

	assert.Same(t, first, second)

	conn := first.(*database.Conn)
	assert.Same(t, container.MustResolve[*database.Driver](c, database.DriverKey), conn.Driver())
	assert.Equal(t, "mysql", conn.DriverName())
}

func TestMigration_NeedsConnection(t *testing.T) {
	c := container.New()
	di.Migration(c, nil)

	_, err := c.Make(migration.ServiceKey)

	assert.ErrorIs(t, err, container.ErrMissingBinding)
}

func TestMigration_Resolves(t *testing.T) {
	c := container.New()
	di.Database(c, params(), nil)
	di.Migration(c, nil)

	svc, err := container.Resolve[*migration.Service](c, migration.ServiceKey)
	require.NoError(t, err)
	assert.Empty(t, svc.Settings().SourcePaths)
}
