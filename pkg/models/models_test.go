package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBucketSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  float64
	}{
		{"empty", 0, 0},
		{"one gigabyte", 1 << 30, 1},
		{"rounds to two decimals", 1<<30 + 1<<30/3, 1.33},
		{"negative clamps to zero", -5, 0},
		{"twenty terabytes", 20000 << 30, 20000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NewBucketSize("b", tc.bytes)
			assert.Equal(t, tc.want, got.SizeGB)
			assert.GreaterOrEqual(t, got.SizeBytes, int64(0))
		})
	}
}

func TestExactGBIsUnrounded(t *testing.T) {
	b := NewBucketSize("b", 20000<<30+4<<20)
	assert.Equal(t, 20000.0, b.SizeGB)
	assert.Greater(t, b.ExactGB(), 20000.0)
	assert.Equal(t, 1.5, NewBucketSize("b", 3<<29).ExactGB())
}

func TestBucketSizeReportPreservesOrder(t *testing.T) {
	report := NewBucketSizeReport([]BucketSize{
		{BucketName: "zeta", SizeGB: 1},
		{BucketName: "alpha", SizeGB: 2},
		{BucketName: "zeta", SizeGB: 3},
		{BucketName: "mid", SizeGB: 4},
	})

	assert.Equal(t, 3, report.Len())
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, report.Names())

	zeta, ok := report.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, 1.0, zeta.SizeGB)

	_, ok = report.Get("missing")
	assert.False(t, ok)

	entries := report.Entries()
	entries[0].SizeGB = 99
	again, _ := report.Get("zeta")
	assert.Equal(t, 1.0, again.SizeGB, "entries must be a copy")

	assert.Equal(t, map[string]float64{"zeta": 1, "alpha": 2, "mid": 4}, report.SizesGB())
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Weekday
		wantErr bool
	}{
		{"Thursday", time.Thursday, false},
		{"sunday", time.Sunday, false},
		{" SAT ", time.Saturday, false},
		{"thu", time.Thursday, false},
		{"4", 0, true},
		{"7", 0, true},
		{"", 0, true},
		{"someday", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseWeekday(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.SMTPEmail = "admin@example.org"
	cfg.SMTPServer = "smtp.example.org"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing email", func(c *Config) { c.SMTPEmail = "" }, "SMTP_EMAIL"},
		{"missing server", func(c *Config) { c.SMTPServer = "" }, "SMTP_SERVER"},
		{"bad port", func(c *Config) { c.SMTPPort = 0 }, "SMTP_PORT"},
		{"numeric report day", func(c *Config) { c.ReportDay = "4" }, "REPORT_DAY"},
		{"bad cleanup day", func(c *Config) { c.CleanupDay = "funday" }, "CLEANUP_DAY"},
		{"negative threshold", func(c *Config) { c.ThresholdGB = -1 }, "THRESHOLD_GB"},
		{"zero page size", func(c *Config) { c.PageSize = 0 }, "PAGE_SIZE"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestConfigValidateStorage(t *testing.T) {
	cfg := validConfig()
	cfg.S3Endpoint = "http://localhost:9000"
	cfg.S3AccessKey = "key"
	cfg.S3SecretKey = "secret"
	require.NoError(t, cfg.ValidateStorage())

	cfg.S3Backend = "gcs"
	var cfgErr *ConfigurationError
	require.ErrorAs(t, cfg.ValidateStorage(), &cfgErr)
	assert.Equal(t, "S3_BACKEND", cfgErr.Field)
}

func TestConfigRunContext(t *testing.T) {
	cfg := validConfig()
	cfg.ExcludedBuckets = []string{"cdn-mirror"}
	cfg.ForceStatusUpdate = true
	cfg.Workers = 0
	date := time.Date(2026, time.October, 15, 8, 0, 0, 0, time.UTC)

	rc := cfg.RunContext(date)

	assert.Equal(t, time.Thursday, rc.ReportDay)
	assert.Equal(t, time.Sunday, rc.CleanupDay)
	assert.Equal(t, 20000.0, rc.ThresholdGB)
	assert.Equal(t, int32(100000), rc.PageSize)
	assert.Equal(t, 1, rc.Workers)
	assert.True(t, rc.ForceStatus)
	assert.False(t, rc.ForceCleanup)
	assert.Equal(t, date, rc.Date)
	assert.True(t, rc.IsExcluded("cdn-mirror"))
	assert.False(t, rc.IsExcluded("data"))

	cfg.ExcludedBuckets[0] = "changed"
	assert.True(t, rc.IsExcluded("cdn-mirror"), "run context must not alias config")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b,"))
	assert.Nil(t, SplitList(""))
}

func TestRunSummaryCount(t *testing.T) {
	s := &RunSummary{Outcomes: []NotificationOutcome{
		Sent(KindWarningEmail, "a"),
		Failed(KindWarningEmail, "b", errors.New("boom")),
		Skipped(KindWarningChat, "a", "no webhook"),
	}}
	assert.Equal(t, 1, s.Count(KindWarningEmail, OutcomeSent))
	assert.Equal(t, 1, s.Count(KindWarningEmail, OutcomeFailed))
	assert.Equal(t, 1, s.Count(KindWarningChat, OutcomeSkipped))
	assert.Nil(t, s.Decisions()[1].Err)
	assert.Equal(t, "boom", s.Outcomes[1].Reason)
}
