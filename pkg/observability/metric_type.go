package observability

type MetricKind int

const (
	KindCounter MetricKind = iota
	KindGauge
	KindSummary
	KindHistogram
	KindUntyped
)

func (k MetricKind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindSummary:
		return "summary"
	case KindHistogram:
		return "histogram"
	default:
		return "untyped"
	}
}

type Label struct {
	Key   string
	Value string
}

// MetricOpt describes a metric at declaration time. LabelKeys fixes the label
// names, and their order, for the lifetime of the metric.
type MetricOpt struct {
	Help        string
	Buckets     []float64
	Objectives  map[float64]float64
	ConstLabels []Label
	LabelKeys   []string
}
