package models

import (
	"math"
	"time"
)

const bytesPerGB = 1024 * 1024 * 1024

// BucketSize is the measured size of a single bucket
type BucketSize struct {
	BucketName string  `json:"bucket_name"`
	SizeBytes  int64   `json:"size_bytes"`
	SizeGB     float64 `json:"size_gb"`
}

// NewBucketSize converts a byte count into a BucketSize rounded to two decimals of a gigabyte
func NewBucketSize(bucketName string, sizeBytes int64) BucketSize {
	if sizeBytes < 0 {
		sizeBytes = 0
	}
	return BucketSize{
		BucketName: bucketName,
		SizeBytes:  sizeBytes,
		SizeGB:     RoundGB(float64(sizeBytes) / bytesPerGB),
	}
}

// ExactGB is the unrounded size in gigabytes
func (b BucketSize) ExactGB() float64 {
	return float64(b.SizeBytes) / bytesPerGB
}

// RoundGB rounds a gigabyte value to two decimal places
func RoundGB(gb float64) float64 {
	return math.Round(gb*100) / 100
}

// BucketSizeReport is the ordered set of bucket sizes measured during one run.
// It cannot be modified once built.
type BucketSizeReport struct {
	entries []BucketSize
	index   map[string]int
}

// NewBucketSizeReport builds a report preserving the order of sizes.
// Later duplicates of a bucket name are ignored.
func NewBucketSizeReport(sizes []BucketSize) *BucketSizeReport {
	r := &BucketSizeReport{
		entries: make([]BucketSize, 0, len(sizes)),
		index:   make(map[string]int, len(sizes)),
	}
	for _, s := range sizes {
		if _, ok := r.index[s.BucketName]; ok {
			continue
		}
		r.index[s.BucketName] = len(r.entries)
		r.entries = append(r.entries, s)
	}
	return r
}

// Len returns the number of buckets in the report
func (r *BucketSizeReport) Len() int {
	return len(r.entries)
}

// Get returns the size of a bucket and whether it is part of the report
func (r *BucketSizeReport) Get(bucketName string) (BucketSize, bool) {
	i, ok := r.index[bucketName]
	if !ok {
		return BucketSize{}, false
	}
	return r.entries[i], true
}

// Entries returns a copy of the report entries in measurement order
func (r *BucketSizeReport) Entries() []BucketSize {
	out := make([]BucketSize, len(r.entries))
	copy(out, r.entries)
	return out
}

// Names returns the bucket names in measurement order
func (r *BucketSizeReport) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.BucketName
	}
	return names
}

// SizesGB returns a bucket name to gigabyte mapping, used as template context
func (r *BucketSizeReport) SizesGB() map[string]float64 {
	out := make(map[string]float64, len(r.entries))
	for _, e := range r.entries {
		out[e.BucketName] = e.SizeGB
	}
	return out
}

// RunContext is the resolved configuration of a single monitoring run
type RunContext struct {
	SMTPEmail    string
	SMTPServer   string
	SMTPPort     int
	SlackWebhook string

	Date         time.Time
	ForceStatus  bool
	ForceCleanup bool

	ReportDay   time.Weekday
	CleanupDay  time.Weekday
	ThresholdGB float64

	ExcludedBuckets []string
	PageSize        int32
	Workers         int
}

// IsExcluded reports whether a bucket is part of the exclusion set
func (rc RunContext) IsExcluded(bucketName string) bool {
	for _, b := range rc.ExcludedBuckets {
		if b == bucketName {
			return true
		}
	}
	return false
}
