// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// exitInvalid is the exit status of a manifest that fails validation.
const exitInvalid = 2

func newValidateCommand(app *App) *cobra.Command {
	var prune bool
	cmd := &cobra.Command{
		Use:   "validate [manifest]",
		Short: "Check that a manifest describes a bootable application",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, o, err := app.resolve(cmd.Context(), args, prune)
			if err != nil {
				return &ExitError{Code: exitInvalid, Err: err}
			}
			enabled := 0
			for _, d := range o.Modules() {
				if d.Enabled {
					enabled++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d modules declared, %d enabled\n",
				SuccessStyle.Render("✓ manifest is valid:"), len(m.Modules), enabled)
			if app.verbose {
				fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render(o.String()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&prune, "prune", false, "drop disabled modules before resolving")
	return cmd
}
