package models

import "time"

// OutcomeStatus is the result of one notification or action attempt
type OutcomeStatus string

const (
	OutcomeSent    OutcomeStatus = "sent"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Kinds of notifications and actions recorded in a run summary
const (
	KindStatusEmail  = "status_email"
	KindCleanup      = "multipart_cleanup"
	KindWarningEmail = "warning_email"
	KindWarningChat  = "warning_chat"
)

// NotificationOutcome records what happened to one notification or action
type NotificationOutcome struct {
	Kind   string        `json:"kind"`
	Bucket string        `json:"bucket,omitempty"`
	Status OutcomeStatus `json:"status"`
	Reason string        `json:"reason,omitempty"`
	Err    error         `json:"-"`
}

// Sent builds a sent outcome
func Sent(kind, bucket string) NotificationOutcome {
	return NotificationOutcome{Kind: kind, Bucket: bucket, Status: OutcomeSent}
}

// Skipped builds a skipped outcome with the policy reason
func Skipped(kind, bucket, reason string) NotificationOutcome {
	return NotificationOutcome{Kind: kind, Bucket: bucket, Status: OutcomeSkipped, Reason: reason}
}

// Failed builds a failed outcome
func Failed(kind, bucket string, err error) NotificationOutcome {
	o := NotificationOutcome{Kind: kind, Bucket: bucket, Status: OutcomeFailed, Err: err}
	if err != nil {
		o.Reason = err.Error()
	}
	return o
}

// RunSummary is the outcome of a complete monitoring run
type RunSummary struct {
	Date              time.Time
	Excluded          []string
	Measured          []string
	MeasurementFailed []string
	StatusReportRan   bool
	CleanupRan        bool
	CleanedUploads    int
	CleanupFailed     []string
	ThresholdExceeded bool
	WarnedBuckets     []string
	Outcomes          []NotificationOutcome
	Report            *BucketSizeReport
}

// Count returns how many outcomes of the given kind have the given status
func (s *RunSummary) Count(kind string, status OutcomeStatus) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Kind == kind && o.Status == status {
			n++
		}
	}
	return n
}

// Decisions returns the kind, bucket and status of every outcome, without errors
func (s *RunSummary) Decisions() []NotificationOutcome {
	out := make([]NotificationOutcome, len(s.Outcomes))
	for i, o := range s.Outcomes {
		out[i] = NotificationOutcome{Kind: o.Kind, Bucket: o.Bucket, Status: o.Status}
	}
	return out
}
