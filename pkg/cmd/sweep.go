package cmd

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/filedeck/pkg/app"
)

var (
	sweepDryRun bool
	sweepGrace  time.Duration

	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "remove blobs that no file record references",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Bootstrap(configPath)
			if err != nil {
				return err
			}

			ctx := contextOrBackground(cmd)

			manager, svc, err := app.NewServices(ctx, cfg)
			if err != nil {
				return err
			}
			defer manager.Close()

			grace := cfg.Sweep.Grace()
			if cmd.Flags().Changed("grace") {
				grace = sweepGrace
			}

			dryRun := cfg.Sweep.DryRun || sweepDryRun

			res, err := svc.SweepOrphans(ctx, grace, dryRun)
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}

			b, err := sonic.ConfigStd.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}
)

func registerSweepCommands() {
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "only report orphans, do not delete")
	sweepCmd.Flags().DurationVar(&sweepGrace, "grace", 0, "only consider blobs older than this (default from sweep.grace_hours)")

	rootCmd.AddCommand(sweepCmd)
}
