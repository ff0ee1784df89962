// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bootkit/bootkit/pkg/bootorder"
	"github.com/bootkit/bootkit/pkg/module"
)

func newOrderCommand(app *App) *cobra.Command {
	var prune bool
	cmd := &cobra.Command{
		Use:   "order [manifest]",
		Short: "Show the bootstrap order of a manifest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, o, err := app.resolve(cmd.Context(), args, prune)
			if err != nil {
				return err
			}
			renderOrder(cmd.OutOrStdout(), o)
			return nil
		},
	}
	cmd.Flags().BoolVar(&prune, "prune", false, "drop disabled modules from the order")
	return cmd
}

func newGraphCommand(app *App) *cobra.Command {
	var (
		prune  bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "graph [manifest]",
		Short: "Export the effective dependency graph",
		Long: `Export the effective dependency graph as Graphviz DOT or Mermaid.

Required edges are solid, optional edges dashed, and the implicit edges
toward infrastructure modules and from post-processors dotted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, o, err := app.resolve(cmd.Context(), args, prune)
			if err != nil {
				return err
			}
			switch format {
			case "dot":
				fmt.Fprint(cmd.OutOrStdout(), o.Graph().DOT())
			case "mermaid":
				fmt.Fprint(cmd.OutOrStdout(), o.Graph().Mermaid())
			default:
				return fmt.Errorf("unknown graph format %q (want dot or mermaid)", format)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&prune, "prune", false, "drop disabled modules from the graph")
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot or mermaid")
	return cmd
}

func renderOrder(w io.Writer, o *bootorder.Order) {
	fmt.Fprintln(w, TitleStyle.Render("Bootstrap order"))
	pos := 0
	for _, d := range o.Modules() {
		marker := "-"
		if d.Enabled {
			pos++
			marker = fmt.Sprintf("%d.", pos)
		}
		var line strings.Builder
		fmt.Fprintf(&line, "%4s %s", marker, ModuleStyle.Render(d.Name))
		if role := d.EffectiveRole(); role != module.RoleCustom {
			line.WriteString(" " + roleStyle.Render(string(role)))
		}
		if reqs := o.Requires(d.Name); len(reqs) > 0 {
			line.WriteString(SubtitleStyle.Render(" requires " + strings.Join(reqs, ", ")))
		}
		if len(d.Optional) > 0 {
			line.WriteString(SubtitleStyle.Render(" uses " + strings.Join(d.Optional, ", ")))
		}
		if !d.Enabled {
			line.WriteString(" " + WarningStyle.Render("disabled"))
		}
		fmt.Fprintln(w, line.String())
	}
}
