// Package monitor runs the bucket monitoring workflow: it measures every
// bucket, then sends the weekly status report, cleans up stale multipart
// uploads and warns about buckets above the size threshold.
//
// Only missing configuration and a failed bucket listing abort a run. Every
// other failure is logged, recorded as an outcome and the run continues.
package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/thannaske/s3monitor/pkg/models"
	"github.com/thannaske/s3monitor/pkg/notify"
	"github.com/thannaske/s3monitor/pkg/storage"
)

// Mailer delivers HTML emails
type Mailer interface {
	Send(ctx context.Context, m notify.Message) error
}

// Renderer renders a named template into an HTML document
type Renderer interface {
	Render(name string, data map[string]any) (string, error)
}

// ChatNotifier posts chat alerts. A notifier that is not enabled is skipped.
type ChatNotifier interface {
	Enabled() bool
	Send(ctx context.Context, text string) error
}

// Monitor wires the collaborators of a monitoring run
type Monitor struct {
	storage  storage.Storage
	mailer   Mailer
	renderer Renderer
	chat     ChatNotifier
	metrics  *Metrics
	logger   zerolog.Logger
}

// Option configures a Monitor
type Option func(*Monitor)

// WithMetrics records every finished run in m
func WithMetrics(m *Metrics) Option {
	return func(mon *Monitor) {
		mon.metrics = m
	}
}

// New creates a Monitor. chat may be nil when no chat alerts are wanted.
func New(st storage.Storage, mailer Mailer, renderer Renderer, chat ChatNotifier, logger zerolog.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		storage:  st,
		mailer:   mailer,
		renderer: renderer,
		chat:     chat,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run executes one monitoring run. It returns a ConfigurationError when the
// notification address or relay is missing and a StorageUnavailableError
// when buckets cannot be listed; in both cases nothing has been sent.
func (m *Monitor) Run(ctx context.Context, rc models.RunContext) (*models.RunSummary, error) {
	if rc.SMTPEmail == "" {
		m.logger.Error().Msg("SMTP_EMAIL not set")
		return nil, &models.ConfigurationError{Field: "SMTP_EMAIL"}
	}
	if rc.SMTPServer == "" {
		m.logger.Error().Msg("SMTP_SERVER not set")
		return nil, &models.ConfigurationError{Field: "SMTP_SERVER"}
	}

	m.logger.Info().Time("date", rc.Date).Msg("starting bucket monitoring run")
	summary := &models.RunSummary{Date: rc.Date}

	candidates, excluded, err := m.ResolveBuckets(ctx, rc)
	if err != nil {
		m.logger.Error().Err(err).Msg("cannot list buckets, aborting run")
		return nil, err
	}
	summary.Excluded = excluded

	report, failed := m.MeasureSizes(ctx, rc, candidates)
	summary.Report = report
	summary.Measured = report.Names()
	summary.MeasurementFailed = failed

	status := m.sendStatusReport(ctx, rc, report)
	summary.StatusReportRan = status.Status != models.OutcomeSkipped
	summary.Outcomes = append(summary.Outcomes, status)

	cleanup := m.cleanMultiparts(ctx, rc, candidates, summary)
	summary.Outcomes = append(summary.Outcomes, cleanup...)

	warnings := m.sendWarnings(ctx, rc, report, summary)
	summary.Outcomes = append(summary.Outcomes, warnings...)

	m.logSummary(summary)
	if m.metrics != nil {
		m.metrics.Observe(summary)
	}
	return summary, nil
}

// Cleanup aborts the incomplete multipart uploads of every candidate bucket
// regardless of the cleanup day.
func (m *Monitor) Cleanup(ctx context.Context, rc models.RunContext) (*models.RunSummary, error) {
	candidates, excluded, err := m.ResolveBuckets(ctx, rc)
	if err != nil {
		m.logger.Error().Err(err).Msg("cannot list buckets, aborting cleanup")
		return nil, err
	}

	rc.ForceCleanup = true
	summary := &models.RunSummary{Date: rc.Date, Excluded: excluded}
	summary.Outcomes = m.cleanMultiparts(ctx, rc, candidates, summary)
	m.logger.Info().
		Int("buckets", len(candidates)).
		Int("cleaned_uploads", summary.CleanedUploads).
		Strs("failed", summary.CleanupFailed).
		Msg("finished multipart cleanup")
	return summary, nil
}

// ResolveBuckets lists all buckets and removes the excluded ones. It returns
// the candidates in listing order and the excluded buckets that were present.
func (m *Monitor) ResolveBuckets(ctx context.Context, rc models.RunContext) ([]string, []string, error) {
	all, err := m.storage.ListBuckets(ctx)
	if err != nil {
		return nil, nil, &models.StorageUnavailableError{Err: err}
	}

	candidates := make([]string, 0, len(all))
	var excluded []string
	for _, bucket := range all {
		if rc.IsExcluded(bucket) {
			m.logger.Debug().Str("bucket", bucket).Msg("bucket excluded from monitoring")
			excluded = append(excluded, bucket)
			continue
		}
		candidates = append(candidates, bucket)
	}
	m.logger.Info().Int("buckets", len(candidates)).Strs("excluded", excluded).Msg("resolved buckets")
	return candidates, excluded, nil
}

// MeasureSizes measures every candidate bucket. Buckets that cannot be
// measured are logged, left out of the report and returned as failed.
func (m *Monitor) MeasureSizes(ctx context.Context, rc models.RunContext, buckets []string) (*models.BucketSizeReport, []string) {
	sizes := make([]*models.BucketSize, len(buckets))
	forEach(rc.Workers, len(buckets), func(i int) {
		bucket := buckets[i]
		m.logger.Debug().Str("bucket", bucket).Msg("getting bucket size")

		bytes, err := m.storage.BucketSize(ctx, bucket, rc.PageSize)
		if err != nil {
			err = &models.BucketAccessError{Bucket: bucket, Op: "size", Err: err}
			m.logger.Error().Err(err).Str("bucket", bucket).Msg("failed to measure bucket, leaving it out of the report")
			return
		}
		size := models.NewBucketSize(bucket, bytes)
		sizes[i] = &size
	})

	measured := make([]models.BucketSize, 0, len(buckets))
	var failed []string
	for i, s := range sizes {
		if s == nil {
			failed = append(failed, buckets[i])
			continue
		}
		measured = append(measured, *s)
	}
	return models.NewBucketSizeReport(measured), failed
}

func (m *Monitor) sendStatusReport(ctx context.Context, rc models.RunContext, report *models.BucketSizeReport) models.NotificationOutcome {
	if !StatusDue(rc) {
		m.logger.Debug().Stringer("report_day", rc.ReportDay).Msg("status report not due")
		return models.Skipped(models.KindStatusEmail, "", fmt.Sprintf("not %s", rc.ReportDay))
	}
	m.logger.Info().Str("reason", dueReason(rc.ForceStatus, rc.ReportDay)).Msg("sending bucket status email")

	var total float64
	for _, e := range report.Entries() {
		total += e.SizeGB
	}
	body, err := m.renderer.Render(notify.StatusTemplate, map[string]any{
		"date":             rc.Date.Format("2006-01-02"),
		"buckets":          report.Entries(),
		"bucket_size_dict": report.SizesGB(),
		"total_gb":         models.RoundGB(total),
	})
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to render status email")
		return models.Failed(models.KindStatusEmail, "", err)
	}

	err = m.mailer.Send(ctx, notify.Message{
		From:     rc.SMTPEmail,
		To:       rc.SMTPEmail,
		Subject:  "S3 Status Update",
		HTMLBody: body,
	})
	if err != nil {
		err = &models.TransportError{Channel: "email", Err: err}
		m.logger.Error().Err(err).Msg("failed to send status email")
		return models.Failed(models.KindStatusEmail, "", err)
	}
	return models.Sent(models.KindStatusEmail, "")
}

// cleanMultiparts cleans every candidate bucket, including those whose size
// could not be measured.
func (m *Monitor) cleanMultiparts(ctx context.Context, rc models.RunContext, buckets []string, summary *models.RunSummary) []models.NotificationOutcome {
	if !CleanupDue(rc) {
		m.logger.Debug().Stringer("cleanup_day", rc.CleanupDay).Msg("multipart cleanup not due")
		return []models.NotificationOutcome{
			models.Skipped(models.KindCleanup, "", fmt.Sprintf("not %s", rc.CleanupDay)),
		}
	}
	m.logger.Info().Str("reason", dueReason(rc.ForceCleanup, rc.CleanupDay)).Msg("cleaning up bucket multiparts")
	summary.CleanupRan = true

	outcomes := make([]models.NotificationOutcome, len(buckets))
	counts := make([]int, len(buckets))
	forEach(rc.Workers, len(buckets), func(i int) {
		bucket := buckets[i]
		n, err := m.storage.CleanMultiparts(ctx, bucket)
		counts[i] = n
		if err != nil {
			err = &models.BucketAccessError{Bucket: bucket, Op: "clean multiparts", Err: err}
			m.logger.Error().Err(err).Str("bucket", bucket).Msg("failed to clean up multipart uploads")
			outcomes[i] = models.Failed(models.KindCleanup, bucket, err)
			return
		}
		m.logger.Debug().Str("bucket", bucket).Int("aborted", n).Msg("cleaned up multipart uploads")
		outcomes[i] = models.Sent(models.KindCleanup, bucket)
	})

	for i, o := range outcomes {
		summary.CleanedUploads += counts[i]
		if o.Status == models.OutcomeFailed {
			summary.CleanupFailed = append(summary.CleanupFailed, o.Bucket)
		}
	}
	return outcomes
}

// sendWarnings sends a warning email and a chat alert for every bucket above
// the threshold. Each bucket and each channel is attempted independently.
func (m *Monitor) sendWarnings(ctx context.Context, rc models.RunContext, report *models.BucketSizeReport, summary *models.RunSummary) []models.NotificationOutcome {
	var over []models.BucketSize
	for _, e := range report.Entries() {
		if ExceedsThreshold(rc, e) {
			over = append(over, e)
		}
	}
	if len(over) == 0 {
		return nil
	}

	summary.ThresholdExceeded = true
	for _, e := range over {
		summary.WarnedBuckets = append(summary.WarnedBuckets, e.BucketName)
	}

	results := make([][2]models.NotificationOutcome, len(over))
	forEach(rc.Workers, len(over), func(i int) {
		size := over[i]
		m.logger.Warn().Str("bucket", size.BucketName).Float64("size_gb", size.SizeGB).
			Float64("threshold_gb", rc.ThresholdGB).Msg("bucket exceeds size threshold")
		results[i][0] = m.sendWarningEmail(ctx, rc, size)
		results[i][1] = m.sendWarningChat(ctx, rc, size)
	})

	outcomes := make([]models.NotificationOutcome, 0, 2*len(over))
	for _, r := range results {
		outcomes = append(outcomes, r[0], r[1])
	}
	return outcomes
}

func (m *Monitor) sendWarningEmail(ctx context.Context, rc models.RunContext, size models.BucketSize) models.NotificationOutcome {
	body, err := m.renderer.Render(notify.WarningTemplate, map[string]any{
		"bucket_name":  size.BucketName,
		"size_gb":      size.SizeGB,
		"threshold_gb": rc.ThresholdGB,
	})
	if err != nil {
		m.logger.Error().Err(err).Str("bucket", size.BucketName).Msg("failed to render warning email")
		return models.Failed(models.KindWarningEmail, size.BucketName, err)
	}

	err = m.mailer.Send(ctx, notify.Message{
		From:     rc.SMTPEmail,
		To:       rc.SMTPEmail,
		Subject:  fmt.Sprintf("WARNING: Bucket %s > %s", size.BucketName, thresholdLabel(rc.ThresholdGB)),
		HTMLBody: body,
	})
	if err != nil {
		err = &models.TransportError{Channel: "email", Err: err}
		m.logger.Error().Err(err).Str("bucket", size.BucketName).Msg("failed to send warning email")
		return models.Failed(models.KindWarningEmail, size.BucketName, err)
	}
	return models.Sent(models.KindWarningEmail, size.BucketName)
}

func (m *Monitor) sendWarningChat(ctx context.Context, rc models.RunContext, size models.BucketSize) models.NotificationOutcome {
	if m.chat == nil || !m.chat.Enabled() {
		m.logger.Warn().Str("bucket", size.BucketName).Msg("SLACK_WEBHOOK not configured, skipping chat alert")
		return models.Skipped(models.KindWarningChat, size.BucketName, "no webhook configured")
	}

	text := fmt.Sprintf("WARNING: Bucket %s is currently %.2fGB, exceeding %s quota.",
		size.BucketName, size.SizeGB, thresholdLabel(rc.ThresholdGB))
	if err := m.chat.Send(ctx, text); err != nil {
		if errors.Is(err, notify.ErrWebhookNotConfigured) {
			return models.Skipped(models.KindWarningChat, size.BucketName, "no webhook configured")
		}
		err = &models.TransportError{Channel: "slack", Err: err}
		m.logger.Error().Err(err).Str("bucket", size.BucketName).Msg("failed to send chat alert")
		return models.Failed(models.KindWarningChat, size.BucketName, err)
	}
	return models.Sent(models.KindWarningChat, size.BucketName)
}

func (m *Monitor) logSummary(s *models.RunSummary) {
	failed := 0
	for _, o := range s.Outcomes {
		if o.Status == models.OutcomeFailed {
			failed++
		}
	}
	m.logger.Info().
		Int("measured", len(s.Measured)).
		Strs("measurement_failed", s.MeasurementFailed).
		Strs("excluded", s.Excluded).
		Bool("status_report", s.StatusReportRan).
		Bool("multipart_cleanup", s.CleanupRan).
		Int("cleaned_uploads", s.CleanedUploads).
		Bool("size_warning", s.ThresholdExceeded).
		Strs("warned_buckets", s.WarnedBuckets).
		Int("failed_notifications", failed).
		Msg("finished bucket monitoring run")
}
