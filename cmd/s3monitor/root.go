package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/thannaske/s3monitor/pkg/models"
)

// Exit codes
const (
	exitOK                 = 0
	exitError              = 1
	exitConfigError        = 2
	exitStorageUnavailable = 3
)

var (
	envFile   string
	config    = models.DefaultConfig()
	configErr error
	logger    = zerolog.Nop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "s3monitor",
	Short: "S3 bucket size monitor",
	Long: `A job that measures the size of every S3 bucket, emails a weekly status
report, warns by email and Slack when a bucket grows past the size threshold
and periodically aborts stale multipart uploads.

Run it once per day from an external scheduler such as cron. Invoked without a
subcommand it behaves like "s3monitor run".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var cfgErr *models.ConfigurationError
	var unavailable *models.StorageUnavailableError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &cfgErr):
		return exitConfigError
	case errors.As(err, &unavailable):
		return exitStorageUnavailable
	default:
		return exitError
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env.secret", "dotenv file loaded when DEBUG is set")
	rootCmd.PersistentFlags().StringVar(&config.S3Endpoint, "endpoint", "", "S3 endpoint URL")
	rootCmd.PersistentFlags().StringVar(&config.S3AccessKey, "access-key", "", "S3 access key")
	rootCmd.PersistentFlags().StringVar(&config.S3SecretKey, "secret-key", "", "S3 secret key")
	rootCmd.PersistentFlags().StringVar(&config.S3Region, "region", config.S3Region, "S3 region")
	rootCmd.PersistentFlags().StringVar(&config.S3Backend, "backend", config.S3Backend, "storage backend (s3, minio)")
	rootCmd.PersistentFlags().StringVar(&config.S3SizeSource, "size-source", config.S3SizeSource, "bucket size source for the s3 backend (objects, rgw-admin)")
	rootCmd.PersistentFlags().StringSliceVar(&config.ExcludedBuckets, "exclude", nil, "buckets that are never monitored")
	rootCmd.PersistentFlags().StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level (trace, debug, info, warn, error)")
}

// initConfig loads the dotenv file in debug mode and applies environment overrides.
func initConfig() {
	if os.Getenv("DEBUG") != "" && envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", envFile, err)
		}
	}

	var warnings []string
	warnings, configErr = applyEnv(&config, os.LookupEnv)

	l, err := newLogger(os.Stderr, config.LogLevel)
	if err != nil && configErr == nil {
		configErr = &models.ConfigurationError{Field: "LOG_LEVEL", Reason: err.Error()}
	}
	logger = l
	for _, w := range warnings {
		logger.Warn().Msg(w)
	}
}

// applyEnv overrides cfg with the environment. Environment variables win over flags.
// Unparseable force flags keep their default and are returned as warnings.
func applyEnv(cfg *models.Config, lookup func(string) (string, bool)) ([]string, error) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("S3_ENDPOINT", &cfg.S3Endpoint)
	str("S3_ACCESS_KEY", &cfg.S3AccessKey)
	str("S3_SECRET_KEY", &cfg.S3SecretKey)
	str("S3_REGION", &cfg.S3Region)
	str("S3_BACKEND", &cfg.S3Backend)
	str("S3_SIZE_SOURCE", &cfg.S3SizeSource)
	str("SMTP_EMAIL", &cfg.SMTPEmail)
	str("SMTP_SERVER", &cfg.SMTPServer)
	str("SLACK_WEBHOOK", &cfg.SlackWebhook)
	str("REPORT_DAY", &cfg.ReportDay)
	str("CLEANUP_DAY", &cfg.CleanupDay)
	str("TEMPLATE_DIR", &cfg.TemplateDir)
	str("PUSHGATEWAY_URL", &cfg.PushgatewayURL)
	str("LOG_LEVEL", &cfg.LogLevel)

	if v, ok := lookup("EXCLUDE_BUCKETS"); ok {
		cfg.ExcludedBuckets = append(cfg.ExcludedBuckets, models.SplitList(v)...)
	}

	var err error
	parse := func(key string, fn func(string) error) {
		v, ok := lookup(key)
		if !ok || v == "" || err != nil {
			return
		}
		if perr := fn(v); perr != nil {
			err = &models.ConfigurationError{Field: key, Reason: perr.Error()}
		}
	}

	parse("SMTP_PORT", func(v string) (e error) { cfg.SMTPPort, e = strconv.Atoi(v); return })
	parse("PAGE_SIZE", func(v string) (e error) { cfg.PageSize, e = strconv.Atoi(v); return })
	parse("WORKERS", func(v string) (e error) { cfg.Workers, e = strconv.Atoi(v); return })
	parse("THRESHOLD_GB", func(v string) (e error) { cfg.ThresholdGB, e = strconv.ParseFloat(v, 64); return })

	var warnings []string
	flag := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		b, perr := parseFlag(v)
		if perr != nil {
			warnings = append(warnings, fmt.Sprintf("ignoring %s=%q, keeping %t: %v", key, v, *dst, perr))
			return
		}
		*dst = b
	}

	flag("FORCE_STATUS_UPDATE", &cfg.ForceStatusUpdate)
	flag("FORCE_MULTIPART_CLEANUP", &cfg.ForceMultipartCleanup)

	return warnings, err
}

// parseFlag accepts the usual boolean spellings plus yes/no
func parseFlag(v string) (bool, error) {
	switch v {
	case "yes", "Yes", "YES", "y", "Y", "on":
		return true, nil
	case "no", "No", "NO", "n", "N", "off":
		return false, nil
	}
	return strconv.ParseBool(v)
}
