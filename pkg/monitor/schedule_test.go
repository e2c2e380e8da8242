package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thannaske/s3monitor/pkg/models"
)

func TestReferenceDaysOnCalendarDates(t *testing.T) {
	tests := []struct {
		date    string
		status  bool
		cleanup bool
	}{
		{"2026-10-12", false, false}, // Monday
		{"2026-10-14", false, false}, // Wednesday
		{"2026-10-15", true, false},  // Thursday
		{"2026-10-17", false, false}, // Saturday
		{"2026-10-18", false, true},  // Sunday
		{"2026-10-22", true, false},  // Thursday
		{"2026-10-25", false, true},  // Sunday
		{"2024-02-29", true, false},  // Thursday, leap day
	}
	for _, tc := range tests {
		t.Run(tc.date, func(t *testing.T) {
			date, err := time.Parse("2006-01-02", tc.date)
			assert.NoError(t, err)
			rc := newRunContext(date)

			assert.Equal(t, tc.status, StatusDue(rc), "status report")
			assert.Equal(t, tc.cleanup, CleanupDue(rc), "multipart cleanup")
		})
	}
}

func TestForceOverridesBypassWeekday(t *testing.T) {
	for day := 0; day < 7; day++ {
		date := wednesday.AddDate(0, 0, day)

		rc := newRunContext(date)
		rc.ForceStatus = true
		assert.True(t, StatusDue(rc), date.Weekday().String())
		assert.Equal(t, date.Weekday() == time.Sunday, CleanupDue(rc), date.Weekday().String())

		rc = newRunContext(date)
		rc.ForceCleanup = true
		assert.True(t, CleanupDue(rc), date.Weekday().String())
		assert.Equal(t, date.Weekday() == time.Thursday, StatusDue(rc), date.Weekday().String())
	}
}

func TestConfiguredDays(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.ReportDay = "monday"
	cfg.CleanupDay = "sat"
	monday := time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC)

	assert.True(t, StatusDue(cfg.RunContext(monday)))
	assert.False(t, CleanupDue(cfg.RunContext(monday)))
	assert.True(t, CleanupDue(cfg.RunContext(monday.AddDate(0, 0, 5))))
}

func TestExceedsThreshold(t *testing.T) {
	rc := newRunContext(wednesday)
	assert.False(t, ExceedsThreshold(rc, models.NewBucketSize("a", 20000*gb)))
	assert.True(t, ExceedsThreshold(rc, models.NewBucketSize("a", 20000*gb+gb/100)))
	assert.False(t, ExceedsThreshold(rc, models.NewBucketSize("a", 0)))

	// rounds to 20000.00 but is still above
	justOver := models.NewBucketSize("a", 20000*gb+4<<20)
	assert.Equal(t, 20000.0, justOver.SizeGB)
	assert.True(t, ExceedsThreshold(rc, justOver))
}

func TestThresholdLabel(t *testing.T) {
	assert.Equal(t, "20TB", thresholdLabel(20000))
	assert.Equal(t, "1500GB", thresholdLabel(1500))
	assert.Equal(t, "500GB", thresholdLabel(500))
	assert.Equal(t, "0.5GB", thresholdLabel(0.5))
}
