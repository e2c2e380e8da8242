package models

import (
	"fmt"
	"strings"
	"time"
)

// Storage backends
const (
	BackendS3    = "s3"
	BackendMinio = "minio"
)

// Bucket size sources for the S3 backend
const (
	SizeSourceObjects  = "objects"
	SizeSourceRGWAdmin = "rgw-admin"
)

// Config represents the application configuration
type Config struct {
	S3Endpoint   string `json:"s3_endpoint"`
	S3AccessKey  string `json:"s3_access_key"`
	S3SecretKey  string `json:"s3_secret_key"`
	S3Region     string `json:"s3_region"`
	S3Backend    string `json:"s3_backend"`
	S3SizeSource string `json:"s3_size_source"`

	SMTPEmail    string `json:"smtp_email"`
	SMTPServer   string `json:"smtp_server"`
	SMTPPort     int    `json:"smtp_port"`
	SlackWebhook string `json:"slack_webhook"`

	ForceStatusUpdate     bool `json:"force_status_update"`
	ForceMultipartCleanup bool `json:"force_multipart_cleanup"`

	ReportDay       string   `json:"report_day"`
	CleanupDay      string   `json:"cleanup_day"`
	ThresholdGB     float64  `json:"threshold_gb"`
	ExcludedBuckets []string `json:"excluded_buckets"`
	PageSize        int      `json:"page_size"`
	Workers         int      `json:"workers"`

	TemplateDir    string `json:"template_dir"`
	PushgatewayURL string `json:"pushgateway_url"`
	LogLevel       string `json:"log_level"`
}

// DefaultConfig returns the reference policy: status report on Thursday,
// multipart cleanup on Sunday and a 20TB warning threshold.
func DefaultConfig() Config {
	return Config{
		S3Region:     "default",
		S3Backend:    BackendS3,
		S3SizeSource: SizeSourceObjects,
		SMTPPort:     25,
		ReportDay:    "thursday",
		CleanupDay:   "sunday",
		ThresholdGB:  20000,
		PageSize:     100000,
		Workers:      4,
		LogLevel:     "info",
	}
}

// Validate checks the settings every notification path depends on
func (c Config) Validate() error {
	if c.SMTPEmail == "" {
		return &ConfigurationError{Field: "SMTP_EMAIL"}
	}
	if c.SMTPServer == "" {
		return &ConfigurationError{Field: "SMTP_SERVER"}
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return &ConfigurationError{Field: "SMTP_PORT", Reason: fmt.Sprintf("invalid port %d", c.SMTPPort)}
	}
	if _, err := ParseWeekday(c.ReportDay); err != nil {
		return &ConfigurationError{Field: "REPORT_DAY", Reason: err.Error()}
	}
	if _, err := ParseWeekday(c.CleanupDay); err != nil {
		return &ConfigurationError{Field: "CLEANUP_DAY", Reason: err.Error()}
	}
	if c.ThresholdGB < 0 {
		return &ConfigurationError{Field: "THRESHOLD_GB", Reason: "must not be negative"}
	}
	if c.PageSize <= 0 {
		return &ConfigurationError{Field: "PAGE_SIZE", Reason: "must be positive"}
	}
	return nil
}

// ValidateStorage checks the settings needed to reach the storage backend
func (c Config) ValidateStorage() error {
	if c.S3Endpoint == "" {
		return &ConfigurationError{Field: "S3_ENDPOINT"}
	}
	if c.S3AccessKey == "" {
		return &ConfigurationError{Field: "S3_ACCESS_KEY"}
	}
	if c.S3SecretKey == "" {
		return &ConfigurationError{Field: "S3_SECRET_KEY"}
	}
	switch c.S3Backend {
	case BackendS3, BackendMinio:
	default:
		return &ConfigurationError{Field: "S3_BACKEND", Reason: fmt.Sprintf("unknown backend %q", c.S3Backend)}
	}
	switch c.S3SizeSource {
	case SizeSourceObjects, SizeSourceRGWAdmin:
	default:
		return &ConfigurationError{Field: "S3_SIZE_SOURCE", Reason: fmt.Sprintf("unknown size source %q", c.S3SizeSource)}
	}
	return nil
}

// RunContext resolves the configuration for a run evaluated at date.
// Validate must have succeeded first.
func (c Config) RunContext(date time.Time) RunContext {
	reportDay, _ := ParseWeekday(c.ReportDay)
	cleanupDay, _ := ParseWeekday(c.CleanupDay)

	workers := c.Workers
	if workers < 1 {
		workers = 1
	}

	pageSize := c.PageSize
	if pageSize > 1<<31-1 {
		pageSize = 1<<31 - 1
	}

	excluded := make([]string, len(c.ExcludedBuckets))
	copy(excluded, c.ExcludedBuckets)

	return RunContext{
		SMTPEmail:       c.SMTPEmail,
		SMTPServer:      c.SMTPServer,
		SMTPPort:        c.SMTPPort,
		SlackWebhook:    c.SlackWebhook,
		Date:            date,
		ForceStatus:     c.ForceStatusUpdate,
		ForceCleanup:    c.ForceMultipartCleanup,
		ReportDay:       reportDay,
		CleanupDay:      cleanupDay,
		ThresholdGB:     c.ThresholdGB,
		ExcludedBuckets: excluded,
		PageSize:        int32(pageSize),
		Workers:         workers,
	}
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday parses a weekday by its English name or three letter
// abbreviation. Numbers are rejected: index conventions differ between
// platforms and a wrong one silently disables a scheduled action.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if day, ok := weekdayNames[name]; ok {
		return day, nil
	}
	if len(name) == 3 {
		for full, day := range weekdayNames {
			if strings.HasPrefix(full, name) {
				return day, nil
			}
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

// SplitList splits a comma separated list, dropping empty items
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
