package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if a.cfg.File != "" {
				fmt.Fprintln(a.errOut, styles.Muted.Render("# from "+a.cfg.File))
			}
			return a.cfg.Write(a.out)
		},
	})
	return cmd
}
