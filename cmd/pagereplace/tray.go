package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/TanaroSch/page-regex-replace/internal/app"
	"github.com/TanaroSch/page-regex-replace/internal/config"
	"github.com/TanaroSch/page-regex-replace/internal/logging"
)

func newTrayCmd(e *env, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "tray",
		Short: "Run the system tray popup (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTray(cmd.Context(), e.cfg, version)
		},
	}
}

func runTray(ctx context.Context, cfg *config.Config, version string) error {
	logging.FromContext(ctx).Info().Str("version", version).Msg("Page Regex Replace starting")
	a, err := app.New(ctx, cfg, version)
	if err != nil {
		return err
	}
	a.Run()
	return nil
}
