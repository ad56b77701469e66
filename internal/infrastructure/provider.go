// Package infrastructure contributes application settings to services
// the framework defines.
package infrastructure

import (
	"fmt"
	"path/filepath"

	"github.com/shashiranjanraj/demoapp/database/migrations"
	"github.com/shashiranjanraj/demoapp/pkg/container"
	"github.com/shashiranjanraj/demoapp/pkg/migration"
)

// ServiceProvider points the migration service at the application's
// migrations and the RBAC assignment tables shipped in vendor/.
type ServiceProvider struct {
	root string
}

var _ container.ServiceProvider = ServiceProvider{}

// NewServiceProvider creates a provider for the application installed at root.
func NewServiceProvider(root string) ServiceProvider {
	return ServiceProvider{root: root}
}

// MigrationSettings returns the settings the provider contributes.
func (p ServiceProvider) MigrationSettings() migration.Settings {
	return migration.Settings{
		NewMigrationNamespace: migrations.Namespace,
		SourceNamespaces:      []string{migrations.Namespace},
		SourcePaths: []string{
			filepath.Join(p.root, "vendor", "yiisoft", "rbac-db", "migrations", "assignments"),
		},
	}
}

// Definitions applies MigrationSettings to the migration service once it
// is built.
func (p ServiceProvider) Definitions() map[string][]container.Configurer {
	settings := p.MigrationSettings()

	return map[string][]container.Configurer{
		migration.ServiceKey: {
			func(instance any) error {
				svc, ok := instance.(*migration.Service)
				if !ok {
					return fmt.Errorf("infrastructure: %s is %T, want *migration.Service", migration.ServiceKey, instance)
				}
				svc.Configure(settings)
				return nil
			},
		},
	}
}

// Extensions returns nothing; the provider only configures.
func (ServiceProvider) Extensions() map[string]container.Extension {
	return map[string]container.Extension{}
}
