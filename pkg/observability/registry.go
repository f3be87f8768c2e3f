package observability

import "time"

// Registry is the process-wide store of named metrics. All methods are safe
// for concurrent use.
type Registry interface {
	// Declare registers a metric. Declaring the same name again with the same
	// kind and label keys returns the existing handle; any other shape fails
	// with ErrDuplicateMetric.
	Declare(name string, kind MetricKind, opts ...MetricOpt) (MetricHandle, error)

	// Increment adds one to a counter.
	Increment(h MetricHandle, labelValues ...string) error

	// Observe records a sample into a summary or histogram.
	Observe(h MetricHandle, v float64, labelValues ...string) error

	// Add applies a delta to a gauge.
	Add(h MetricHandle, delta float64, labelValues ...string) error

	// Record applies obs according to the declared kind of obs.Metric.
	Record(obs Observation) error

	Snapshot() (Snapshot, error)
}

type MetricHandle interface {
	Name() string
	Kind() MetricKind
	LabelKeys() []string
}

// Observation is a single update addressed to a declared metric. For
// counters Value is the increment, for gauges the delta, for summaries and
// histograms the sample.
type Observation struct {
	Metric      string
	LabelValues []string
	Value       float64
	Timestamp   time.Time
}
