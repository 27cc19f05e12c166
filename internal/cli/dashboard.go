package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/diskgauge/internal/dashboard"
	"codeberg.org/mutker/diskgauge/internal/errors"
	"codeberg.org/mutker/diskgauge/internal/events"
	"codeberg.org/mutker/diskgauge/internal/influx"
	"codeberg.org/mutker/diskgauge/internal/logger"
	"codeberg.org/mutker/diskgauge/internal/metrics"
	"codeberg.org/mutker/diskgauge/internal/publish"
	"codeberg.org/mutker/diskgauge/internal/terminal"
	"github.com/spf13/cobra"
)

const pingTimeout = 5 * time.Second

func runDashboard(cmd *cobra.Command, _ []string) error {
	// Raw mode turns Ctrl+C into a key press; signals only arrive from
	// outside the terminal.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logFile, err := setupLogging(cfg, true)
	if err != nil {
		return err
	}
	defer closeWith("log file", logFile)

	logger.Info().
		Str("config", cfg.ConfigFile).
		Dur("interval", cfg.Interval).
		Dur("query_timeout", cfg.QueryTimeout).
		Msg("Starting dashboard")

	gw, err := influx.New(cfg.Influx)
	if err != nil {
		return err
	}
	defer closeWith("influx gateway", gw)

	if cfg.Verbose || cfg.Debug {
		ping(ctx, gw)
	}

	collector, err := metrics.NewService(cfg.Metrics, logger.Default())
	if err != nil {
		return err
	}
	defer closeWith("metrics", collector)

	var sinks []dashboard.Sink
	if cfg.MQTT.Enabled {
		pub, err := publish.Connect(cfg.MQTT)
		if err != nil {
			logger.Warn().Err(err).Msg("Snapshot forwarding disabled")
		} else {
			defer closeWith("mqtt publisher", pub)
			sinks = append(sinks, pub)
		}
	}

	term, err := terminal.Open()
	if err != nil {
		return err
	}
	// Runs before any error reaches stderr.
	defer closeWith("terminal", term)

	mux, err := events.Start(ctx, term, cfg.Interval)
	if err != nil {
		return err
	}

	loop, err := dashboard.New(gw, mux, term,
		dashboard.WithPollTimeout(cfg.QueryTimeout),
		dashboard.WithCollector(collector),
		dashboard.WithSinks(sinks...),
	)
	if err != nil {
		_ = mux.Close()
		return err
	}

	err = loop.Run(ctx)

	stats := collector.Stats()
	logger.Info().
		Uint64("polls", stats.Polls).
		Uint64("failures", stats.Failures).
		Msg("Dashboard stopped")

	return err
}

func ping(ctx context.Context, gw *influx.Gateway) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := gw.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("InfluxDB health check failed")
		return
	}
	logger.Info().Msg("InfluxDB is healthy")
}

// closeWith releases a component on the way out. Failures are logged and
// returned for callers that care; the dashboard's exit status does not.
func closeWith(name string, c io.Closer) error {
	if err := c.Close(); err != nil {
		err = errors.New().Wrap(errors.ErrShutdownFailed, err)
		logger.Warn().Err(err).Str("component", name).Msg("Close failed")
		return err
	}
	return nil
}
