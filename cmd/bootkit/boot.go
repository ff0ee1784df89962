// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/bootkit/bootkit/internal/metrics"
	"github.com/bootkit/bootkit/pkg/bootorder"
	"github.com/bootkit/bootkit/pkg/bootstrap"
	"github.com/bootkit/bootkit/pkg/module"
)

func newBootCommand(app *App) *cobra.Command {
	var (
		prune       bool
		showMetrics bool
	)
	cmd := &cobra.Command{
		Use:   "boot [manifest]",
		Short: "Dry-run the bootstrap of a manifest",
		Long: `Dry-run the bootstrap of a manifest.

Every enabled module is bootstrapped with an empty container under the
configured bootstrap lock, then the application is stopped again. Use it to
check lock connectivity and phase ordering without application code.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, _, err := app.loadConfig(ctx)
			if err != nil {
				return err
			}
			m, _, err := app.loadManifest(cfg, args)
			if err != nil {
				return err
			}
			logger, err := cfg.Logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			provider, closeLock, err := cfg.LockProvider()
			if err != nil {
				return err
			}
			defer func() { _ = closeLock() }()

			collector := cfg.Collector()
			if showMetrics && collector == nil {
				collector = metrics.NewCollector(cfg.Metrics.Namespace)
			}

			opts := []bootstrap.Option{
				bootstrap.WithLogger(logger),
				bootstrap.WithLockProvider(provider),
				bootstrap.WithMetrics(collector),
				bootstrap.WithPruneDisabled(prune || cfg.PruneDisabled),
				bootstrap.WithInstaller(bootstrap.InstallerFuncs{
					BeforeContext: func(_ context.Context, o *bootorder.Order) error {
						logger.Info("bootstrap starting", "order", o.String())
						return nil
					},
					BeforeModule: func(_ context.Context, d module.Descriptor) error {
						logger.Debug("installing module", "module", d.Name, "role", d.EffectiveRole())
						return nil
					},
				}),
			}
			if m.ScopeID == "" && cfg.ScopeID != "" {
				opts = append(opts, bootstrap.WithScopeID(cfg.ScopeID))
			}
			application, err := bootstrap.FromManifest(m, nil, opts...)
			if err != nil {
				return err
			}
			if err := application.Start(ctx); err != nil {
				return err
			}
			started := application.Started()
			exposed := len(application.Registry().Descriptors())
			if err := application.Stop(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s bootstrapped %d modules, %d components exposed\n",
				SuccessStyle.Render("✓"), len(started), exposed)
			if !showMetrics {
				return nil
			}
			families, err := collector.Registry().Gather()
			if err != nil {
				return fmt.Errorf("gather metrics: %w", err)
			}
			enc := expfmt.NewEncoder(out, expfmt.NewFormat(expfmt.TypeTextPlain))
			for _, mf := range families {
				if err := enc.Encode(mf); err != nil {
					return fmt.Errorf("encode metrics: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&prune, "prune", false, "drop disabled modules before bootstrapping")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print collected Prometheus metrics")
	return cmd
}
