package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/demoapp/pkg/container"
	"github.com/shashiranjanraj/demoapp/pkg/database"
	"github.com/shashiranjanraj/demoapp/pkg/migration"
)

func (a *app) migrations() (*migration.Service, error) {
	return container.Resolve[*migration.Service](a.c, migration.ServiceKey)
}

func (a *app) closeDB() {
	conn, err := container.Resolve[database.Connection](a.c, database.ConnectionKey)
	if err != nil {
		return
	}
	if err := conn.Close(); err != nil {
		a.log.Warn("database: close failed", "driver", conn.DriverName(), "error", err)
	}
}

// migrationDir resolves dir against the application root. Empty means
// <root>/database/migrations.
func (a *app) migrationDir(dir string) string {
	if dir == "" {
		dir = filepath.Join("database", "migrations")
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(a.params.Root(), dir)
}

// demo db:ping
func newDBPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "db:ping",
		Short: "Open the database connection and check it is live",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := container.Resolve[database.Connection](a.c, database.ConnectionKey)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := conn.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", conn.DriverName())
			return nil
		},
	}
}

// demo db:stats
func newDBStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "db:stats",
		Short: "Open the database connection and print its pool statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := container.Resolve[database.Connection](a.c, database.ConnectionKey)
			if err != nil {
				return err
			}
			defer a.closeDB()

			reg := prometheus.NewRegistry()
			if err := conn.RegisterMetrics(reg); err != nil {
				return err
			}
			families, err := reg.Gather()
			if err != nil {
				return fmt.Errorf("database: gather metrics: %w", err)
			}

			sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })

			out := cmd.OutOrStdout()
			for _, f := range families {
				for _, m := range f.GetMetric() {
					var value float64
					switch {
					case m.GetGauge() != nil:
						value = m.GetGauge().GetValue()
					case m.GetCounter() != nil:
						value = m.GetCounter().GetValue()
					default:
						continue
					}
					fmt.Fprintf(out, "%-45s %g\n", f.GetName(), value)
				}
			}
			return nil
		},
	}
}

// demo migrate
func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run all pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.migrations()
			if err != nil {
				return err
			}
			defer a.closeDB()

			applied, err := svc.Run(cmd.Context())
			out := cmd.OutOrStdout()
			for _, name := range applied {
				fmt.Fprintf(out, "  migrated: %s\n", name)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(out, "Nothing to migrate.")
			}
			return nil
		},
	}
}

// demo migrate:rollback
func newMigrateRollbackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:rollback",
		Short: "Roll back the last batch of migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.migrations()
			if err != nil {
				return err
			}
			defer a.closeDB()

			reverted, err := svc.Rollback(cmd.Context())
			out := cmd.OutOrStdout()
			for _, name := range reverted {
				fmt.Fprintf(out, "  rolled back: %s\n", name)
			}
			if err != nil {
				return err
			}
			if len(reverted) == 0 {
				fmt.Fprintln(out, "Nothing to roll back.")
			}
			return nil
		},
	}
}

// demo migrate:status
func newMigrateStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:status",
		Short: "Show the status of each migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.migrations()
			if err != nil {
				return err
			}
			defer a.closeDB()

			entries, err := svc.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-60s  %-8s  %s\n", "Migration", "Status", "Batch")
			fmt.Fprintln(out, strings.Repeat("-", 80))
			for _, st := range entries {
				if st.Ran {
					fmt.Fprintf(out, "%-60s  %-8s  %d\n", st.Name, "Ran", st.Batch)
				} else {
					fmt.Fprintf(out, "%-60s  %-8s  -\n", st.Name, "Pending")
				}
			}

			selected := map[string]bool{}
			for _, ns := range svc.Settings().SourceNamespaces {
				selected[ns] = true
			}
			counts := svc.Registry().Namespaces()
			names := make([]string, 0, len(counts))
			for ns := range counts {
				names = append(names, ns)
			}
			sort.Strings(names)

			fmt.Fprintln(out)
			for _, ns := range names {
				state := "not selected"
				if selected[ns] {
					state = "selected"
				}
				fmt.Fprintf(out, "namespace %-30s %d registered, %s\n", ns, counts[ns], state)
			}
			return nil
		},
	}
}

// demo migrate:create <name>
func newMigrateCreateCmd(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate:create <name>",
		Short: "Write a new migration stub",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.migrations()
			if err != nil {
				return err
			}

			path, err := svc.Create(a.migrationDir(dir), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory the stub is written to, relative to --root (default: database/migrations)")
	return cmd
}
