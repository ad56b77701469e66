package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// demo config:show
func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config:show",
		Short: "Print the resolved parameters (password masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.params.Redacted()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "db.dsn       %s\n", p.DB.DSN)
			fmt.Fprintf(out, "db.username  %s\n", p.DB.Username)
			fmt.Fprintf(out, "db.password  %s\n", p.DB.Password)

			names := make([]string, 0, len(p.Aliases))
			for name := range p.Aliases {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "alias %-7s%s\n", name, p.Aliases[name])
			}
			return nil
		},
	}
}
