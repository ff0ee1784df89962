// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bootkit/bootkit/internal/issue"
)

func newExplainCommand() *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "explain [issue]",
		Short: "Explain a bootstrap issue",
		Long: `Explain a bootstrap issue.

Without arguments, lists every known issue. With an issue number, renders
its guidance.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, TitleStyle.Render("Known issues"))
				for _, i := range issue.Values() {
					fmt.Fprintf(out, "%4d  %s\n", i.Id(), i.Title())
				}
				return nil
			}

			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("issue must be a number, got %q", args[0])
			}
			i := issue.Get(issue.Id(n))
			if i == nil {
				return fmt.Errorf("no issue %d; run 'bootkit explain' to list them", n)
			}
			rendered, err := i.Render(style)
			if err != nil {
				return fmt.Errorf("render issue %d: %w", n, err)
			}
			fmt.Fprint(out, rendered)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style: dark, light, notty or a JSON style path")
	return cmd
}
