package monitor

import (
	"fmt"
	"time"

	"github.com/thannaske/s3monitor/pkg/models"
)

// StatusDue reports whether the status report is sent for this run:
// forced, or the evaluation date falls on the report day.
func StatusDue(rc models.RunContext) bool {
	return rc.ForceStatus || rc.Date.Weekday() == rc.ReportDay
}

// CleanupDue reports whether multipart cleanup runs for this run:
// forced, or the evaluation date falls on the cleanup day.
func CleanupDue(rc models.RunContext) bool {
	return rc.ForceCleanup || rc.Date.Weekday() == rc.CleanupDay
}

// ExceedsThreshold reports whether a bucket triggers a size warning.
// A bucket exactly at the threshold does not. The unrounded size is
// compared so a bucket a few megabytes over still warns.
func ExceedsThreshold(rc models.RunContext, size models.BucketSize) bool {
	return size.ExactGB() > rc.ThresholdGB
}

func dueReason(forced bool, day time.Weekday) string {
	if forced {
		return "forced"
	}
	return fmt.Sprintf("%s schedule", day)
}

// thresholdLabel renders a threshold such as 20000 GB as "20TB"
func thresholdLabel(gb float64) string {
	if gb >= 1000 && int64(gb)%1000 == 0 && gb == float64(int64(gb)) {
		return fmt.Sprintf("%dTB", int64(gb)/1000)
	}
	return fmt.Sprintf("%gGB", gb)
}
