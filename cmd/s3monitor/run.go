package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"

	"github.com/thannaske/s3monitor/pkg/models"
	"github.com/thannaske/s3monitor/pkg/monitor"
	"github.com/thannaske/s3monitor/pkg/notify"
	"github.com/thannaske/s3monitor/pkg/storage"
)

var (
	forceStatus  bool
	forceCleanup bool
	runDate      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bucket monitoring job once",
	Long: `Measure every bucket and send the notifications due for the evaluation date.

The status report is emailed on the report day (Thursday by default), stale
multipart uploads are cleaned up on the cleanup day (Sunday by default) and
every bucket above the threshold triggers a warning email and Slack alert.
Failed notifications are logged and do not change the exit code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			logger.Error().Err(configErr).Msg("invalid configuration")
			return configErr
		}

		cfg := config
		cfg.ForceStatusUpdate = cfg.ForceStatusUpdate || forceStatus
		cfg.ForceMultipartCleanup = cfg.ForceMultipartCleanup || forceCleanup

		date, err := evaluationDate(runDate, time.Now())
		if err != nil {
			return err
		}

		// Fail on missing notification settings before touching storage
		if err := cfg.Validate(); err != nil {
			logger.Error().Err(err).Msg("invalid configuration")
			return err
		}

		st, err := storage.New(cfg, logger)
		if err != nil {
			logger.Error().Err(err).Msg("failed to initialize storage client")
			return err
		}

		_, err = runMonitor(cmd.Context(), cfg, st, date)
		return err
	},
}

// runMonitor wires the notification collaborators and executes one run
func runMonitor(ctx context.Context, cfg models.Config, st storage.Storage, date time.Time) (*models.RunSummary, error) {
	registry := prometheus.NewRegistry()
	metrics := monitor.NewMetrics()
	if err := metrics.Register(registry); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	mon := monitor.New(
		st,
		notify.NewMailer(cfg.SMTPServer, cfg.SMTPPort, logger),
		notify.NewRenderer(cfg.TemplateDir),
		notify.NewSlack(cfg.SlackWebhook, logger),
		logger,
		monitor.WithMetrics(metrics),
	)

	summary, err := mon.Run(ctx, cfg.RunContext(date))
	if err != nil {
		return nil, err
	}

	if cfg.PushgatewayURL != "" {
		err := push.New(cfg.PushgatewayURL, "s3monitor").Gatherer(registry).PushContext(ctx)
		if err != nil {
			logger.Warn().Err(err).Str("url", cfg.PushgatewayURL).Msg("failed to push run metrics")
		}
	}
	return summary, nil
}

// evaluationDate parses --date in the local time zone, defaulting to now
func evaluationDate(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return now, nil
	}
	date, err := time.ParseInLocation("2006-01-02", value, now.Location())
	if err != nil {
		return time.Time{}, &models.ConfigurationError{Field: "--date", Reason: err.Error()}
	}
	return date, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	// plain invocation from a scheduler runs the job
	rootCmd.RunE = runCmd.RunE

	runCmd.Flags().BoolVar(&forceStatus, "force-status", false, "send the status report regardless of the weekday")
	runCmd.Flags().BoolVar(&forceCleanup, "force-cleanup", false, "clean up multipart uploads regardless of the weekday")
	runCmd.Flags().StringVar(&runDate, "date", "", "evaluation date as YYYY-MM-DD (default: today)")
}
