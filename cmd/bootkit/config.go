// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bootkit/bootkit/internal/config"
)

func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect bootkit configuration",
		Long: `Inspect bootkit configuration.

Configuration is read from config.cue in the user config directory or the
working directory. Every key can be overridden by a BOOTKIT_* environment
variable, for example BOOTKIT_LOCK_BACKEND=redis.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if path == "" {
				path = "defaults"
			}
			fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("// source: "+path))
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	return cfgCmd
}
