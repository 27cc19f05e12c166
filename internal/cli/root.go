// Package cli wires the packages together behind a cobra command tree.
package cli

import (
	"fmt"
	"os"
	"strings"

	"codeberg.org/mutker/diskgauge/internal/config"
	"codeberg.org/mutker/diskgauge/internal/report"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile   string
	debug        bool
	verbose      bool
	logLevel     string
	logFile      string
	interval     string
	queryTimeout string
}

// NewRootCommand builds the command tree. Without a subcommand it runs the
// dashboard.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "diskgauge",
		Short: "Live storage utilization gauges from InfluxDB",
		Long: `diskgauge polls InfluxDB for per-device storage utilization and shows
one gauge per device, refreshed on a fixed interval. Press q to quit.

The connection is read from DB_HOST, DB_NAME, DB_USER and DB_PASSWORD,
which may also be placed in a .env file in the working directory.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runDashboard,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/diskgauge/diskgauge.toml)")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&opts.verbose, "verbose", false, "enable verbose logging")
	flags.StringVar(&opts.logLevel, "log-level", string(config.DefaultLogLevel), "log level (debug, info, warning, error)")
	flags.StringVar(&opts.logFile, "log-file", "", "log file used while the dashboard is running")
	flags.StringVar(&opts.interval, "interval", config.DefaultInterval.String(), "time between polls")
	flags.StringVar(&opts.queryTimeout, "query-timeout", config.DefaultQueryTimeout.String(), "deadline for a single poll, 0 disables it")

	cmd.AddCommand(newOnceCommand(), newVersionCommand())

	return cmd
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "diskgauge: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(config.WithFlags(cmd.Flags()))
}

func formatUsage() string {
	return "output format (" + strings.Join(report.Formats(), ", ") + ")"
}
