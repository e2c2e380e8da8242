package monitor

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/thannaske/s3monitor/pkg/models"
)

const namespace = "s3monitor"

// Metrics contains the Prometheus metrics describing a run
type Metrics struct {
	BucketSizeGB        *prometheus.GaugeVec
	Notifications       *prometheus.CounterVec
	MeasurementFailures prometheus.Counter
	ThresholdExceeded   prometheus.Gauge
	LastRun             prometheus.Gauge
}

// NewMetrics creates the run metrics
func NewMetrics() *Metrics {
	return &Metrics{
		BucketSizeGB: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "bucket_size_gigabytes",
				Help:      "Measured size of the bucket in gigabytes",
			},
			[]string{"bucket"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notifications and actions by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		MeasurementFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "measurement_failures_total",
				Help:      "Buckets whose size could not be measured",
			},
		),
		ThresholdExceeded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "threshold_exceeded",
				Help:      "1 if any bucket exceeded the size threshold",
			},
		),
		LastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time of the evaluation date of the last run",
			},
		),
	}
}

// Register registers all metrics with the provided registry
func (m *Metrics) Register(registry prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.BucketSizeGB,
		m.Notifications,
		m.MeasurementFailures,
		m.ThresholdExceeded,
		m.LastRun,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Observe records a finished run
func (m *Metrics) Observe(s *models.RunSummary) {
	if s.Report != nil {
		for _, e := range s.Report.Entries() {
			m.BucketSizeGB.WithLabelValues(e.BucketName).Set(e.SizeGB)
		}
	}
	for _, o := range s.Outcomes {
		m.Notifications.WithLabelValues(o.Kind, string(o.Status)).Inc()
	}
	m.MeasurementFailures.Add(float64(len(s.MeasurementFailed)))
	if s.ThresholdExceeded {
		m.ThresholdExceeded.Set(1)
	} else {
		m.ThresholdExceeded.Set(0)
	}
	m.LastRun.Set(float64(s.Date.Unix()))
}
