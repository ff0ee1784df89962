// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newLockCommand(app *App) *cobra.Command {
	lockCmd := &cobra.Command{
		Use:   "lock",
		Short: "Work with the bootstrap lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var hold time.Duration
	probe := &cobra.Command{
		Use:   "probe",
		Short: "Acquire and release the configured bootstrap lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, _, err := app.loadConfig(ctx)
			if err != nil {
				return err
			}
			provider, closeFn, err := cfg.LockProvider()
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			start := time.Now()
			l, err := provider.Acquire(ctx)
			if err != nil {
				return err
			}
			waited := time.Since(start)
			if hold > 0 {
				select {
				case <-time.After(hold):
				case <-ctx.Done():
				}
			}
			if err := l.Release(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s lock %q acquired in %s\n",
				SuccessStyle.Render("✓"), cfg.Lock.Backend, cfg.Lock.Key, waited.Round(time.Microsecond))
			return nil
		},
	}
	probe.Flags().DurationVar(&hold, "hold", 0, "keep the lock for this long before releasing it")
	lockCmd.AddCommand(probe)
	return lockCmd
}
