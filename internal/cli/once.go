package cli

import (
	"context"
	"time"

	"codeberg.org/mutker/diskgauge/internal/influx"
	"codeberg.org/mutker/diskgauge/internal/report"
	"github.com/spf13/cobra"
)

func newOnceCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Poll once and print the readings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(report.FormatTable), formatUsage())

	return cmd
}

func runOnce(cmd *cobra.Command, formatName string) error {
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logs, err := setupLogging(cfg, false)
	if err != nil {
		return err
	}
	defer logs.Close()

	gw, err := influx.New(cfg.Influx)
	if err != nil {
		return err
	}
	defer gw.Close()

	ctx := cmd.Context()
	if cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.QueryTimeout)
		defer cancel()
	}

	at := time.Now()
	snap, err := gw.Fetch(ctx)
	if err != nil {
		return err
	}

	return report.Write(cmd.OutOrStdout(), format, snap, at)
}
