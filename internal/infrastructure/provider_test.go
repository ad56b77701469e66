package infrastructure_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/demoapp/internal/infrastructure"
	"github.com/shashiranjanraj/demoapp/pkg/container"
	"github.com/shashiranjanraj/demoapp/pkg/migration"
)

func TestMigrationSettings(t *testing.T) {
	p := infrastructure.NewServiceProvider("/srv/app")

	got := p.MigrationSettings()

	assert.Equal(t, `App\Migration`, got.NewMigrationNamespace)
	assert.Equal(t, []string{`App\Migration`}, got.SourceNamespaces)
	assert.Equal(t, []string{"/srv/app/vendor/yiisoft/rbac-db/migrations/assignments"}, got.SourcePaths)
}

func TestDefinitions_Idempotent(t *testing.T) {
	p := infrastructure.NewServiceProvider("/srv/app")
	svc := migration.NewService(nil, migration.NewRegistry(), nil)

	for i := 0; i < 3; i++ {
		defs := p.Definitions()
		require.Len(t, defs, 1)
		require.Len(t, defs[migration.ServiceKey], 1)
		for _, fn := range defs[migration.ServiceKey] {
			require.NoError(t, fn(svc))
		}
	}

	got := svc.Settings()
	assert.Len(t, got.SourceNamespaces, 1)
	assert.Len(t, got.SourcePaths, 1)
}

func TestDefinitions_WrongInstance(t *testing.T) {
	p := infrastructure.NewServiceProvider("/srv/app")

	err := p.Definitions()[migration.ServiceKey][0]("not a service")

	assert.Error(t, err)
}

func TestExtensions_Empty(t *testing.T) {
	assert.Empty(t, infrastructure.NewServiceProvider("/").Extensions())
}

func TestRegister_ConfiguresBuiltService(t *testing.T) {
	c := container.New()
	c.Singleton(migration.ServiceKey, func(container.Resolver) (any, error) {
		return migration.NewService(nil, migration.NewRegistry(), nil), nil
	})
	c.Register(infrastructure.NewServiceProvider("/srv/app"))

	svc := container.MustResolve[*migration.Service](c, migration.ServiceKey)

	assert.Equal(t, `App\Migration`, svc.Settings().NewMigrationNamespace)
}
