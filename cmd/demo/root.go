package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/demoapp/config"
	"github.com/shashiranjanraj/demoapp/internal/bootstrap"
	"github.com/shashiranjanraj/demoapp/pkg/container"
	"github.com/shashiranjanraj/demoapp/pkg/logger"
)

// app is what every sub-command works with once the root has booted.
type app struct {
	envFile string
	root    string
	dsn     string

	log    *slog.Logger
	params config.Params
	c      *container.Container
}

func newRootCmd() *cobra.Command {
	a := &app{log: logger.L}

	root := &cobra.Command{
		Use:           "demo",
		Short:         "Demo application console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.boot()
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file merged below the process environment")
	root.PersistentFlags().StringVar(&a.root, "root", "", "application root (default: APP_ROOT or the working directory)")
	root.PersistentFlags().StringVar(&a.dsn, "dsn", "", "override the resolved database DSN")

	// Config
	root.AddCommand(newConfigShowCmd(a))

	// Database
	root.AddCommand(newDBPingCmd(a))
	root.AddCommand(newDBStatsCmd(a))
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newMigrateRollbackCmd(a))
	root.AddCommand(newMigrateStatusCmd(a))
	root.AddCommand(newMigrateCreateCmd(a))

	return root
}

// boot loads the parameters and declares the container. Nothing touches
// the database yet.
func (a *app) boot() error {
	params, err := config.Load(config.Options{EnvFile: a.envFile, Root: a.root})
	if err != nil {
		return err
	}
	if a.dsn != "" {
		params.DB.DSN = a.dsn
	}

	a.params = params
	a.c = bootstrap.New(params, a.log)
	return nil
}
