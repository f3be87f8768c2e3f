package implementation

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/jt828/go-http-template/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
)

type prometheusRegistry struct {
	registry  *prometheus.Registry
	namespace string

	mu      sync.RWMutex
	metrics map[string]*promMetric
}

func NewPrometheusRegistry(namespace string) observability.Registry {
	return &prometheusRegistry{
		registry:  prometheus.NewRegistry(),
		namespace: namespace,
		metrics:   make(map[string]*promMetric),
	}
}

func (r *prometheusRegistry) Registry() *prometheus.Registry {
	return r.registry
}

func PromRegistry(r observability.Registry) *prometheus.Registry {
	if pr, ok := r.(*prometheusRegistry); ok {
		return pr.Registry()
	}
	return nil
}

// RegisterRuntimeCollectors adds the Go runtime and process collectors.
func RegisterRuntimeCollectors(r observability.Registry, log observability.Logger) error {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := RegisterCollector(r, c, log); err != nil {
			return fmt.Errorf("register runtime collector: %w", err)
		}
	}
	return nil
}

// RegisterCollector adds a collector that is not declared through the
// Registry. Its names still conflict with later declarations, but a metric
// it fails to collect is logged and left out of the snapshot instead of
// failing the scrape.
func RegisterCollector(r observability.Registry, c prometheus.Collector, log observability.Logger) error {
	reg := PromRegistry(r)
	if reg == nil {
		return fmt.Errorf("collectors need a prometheus registry: %w", observability.ErrUnknownMetric)
	}
	return reg.Register(&lenientCollector{Collector: c, log: log})
}

type lenientCollector struct {
	prometheus.Collector
	log observability.Logger
}

func (c *lenientCollector) Collect(ch chan<- prometheus.Metric) {
	inner := make(chan prometheus.Metric)
	go func() {
		defer close(inner)
		c.Collector.Collect(inner)
	}()

	for m := range inner {
		if err := m.Write(&dto.Metric{}); err != nil {
			if c.log != nil {
				c.log.Warn("metric collection failed", observability.Err(err), observability.String("desc", m.Desc().String()))
			}
			continue
		}
		ch <- m
	}
}

// -------------------- Handle --------------------

type promMetric struct {
	owner     *prometheusRegistry
	name      string
	kind      observability.MetricKind
	labelKeys []string

	counter  *prometheus.CounterVec
	gauge    *prometheus.GaugeVec
	observer prometheus.ObserverVec
}

func (m *promMetric) Name() string                   { return m.name }
func (m *promMetric) Kind() observability.MetricKind { return m.kind }
func (m *promMetric) LabelKeys() []string            { return slices.Clone(m.labelKeys) }

// -------------------- Declare --------------------

func (r *prometheusRegistry) Declare(
	name string,
	kind observability.MetricKind,
	opts ...observability.MetricOpt,
) (observability.MetricHandle, error) {
	opt := firstOpt(opts)
	fqName := prometheus.BuildFQName(r.namespace, "", name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.metrics[fqName]; ok {
		if existing.kind == kind && slices.Equal(existing.labelKeys, opt.LabelKeys) {
			return existing, nil
		}
		return nil, fmt.Errorf("%s declared as %s%v, redeclared as %s%v: %w",
			fqName, existing.kind, existing.labelKeys, kind, opt.LabelKeys, observability.ErrDuplicateMetric)
	}

	if err := checkReservedLabels(kind, opt.LabelKeys, opt.ConstLabels); err != nil {
		return nil, fmt.Errorf("%s: %w", fqName, err)
	}

	m := &promMetric{
		owner:     r,
		name:      fqName,
		kind:      kind,
		labelKeys: slices.Clone(opt.LabelKeys),
	}

	help := opt.Help
	if help == "" {
		help = fqName
	}
	constLabels := toPromLabelsMap(opt.ConstLabels)

	var collector prometheus.Collector
	switch kind {
	case observability.KindCounter:
		m.counter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   r.namespace,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		}, m.labelKeys)
		collector = m.counter
	case observability.KindGauge:
		m.gauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   r.namespace,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		}, m.labelKeys)
		collector = m.gauge
	case observability.KindSummary:
		vec := prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace:   r.namespace,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
			Objectives:  opt.Objectives,
		}, m.labelKeys)
		m.observer, collector = vec, vec
	case observability.KindHistogram:
		vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   r.namespace,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
			Buckets:     opt.Buckets,
		}, m.labelKeys)
		m.observer, collector = vec, vec
	default:
		return nil, fmt.Errorf("%s: cannot declare %s metric: %w", fqName, kind, observability.ErrKindMismatch)
	}

	if err := r.registry.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) || isDescriptorConflict(err) {
			return nil, fmt.Errorf("%s: %w: %w", fqName, observability.ErrDuplicateMetric, err)
		}
		return nil, fmt.Errorf("register %s: %w", fqName, err)
	}

	r.metrics[fqName] = m
	return m, nil
}

// -------------------- Updates --------------------

func (r *prometheusRegistry) Increment(h observability.MetricHandle, labelValues ...string) error {
	m, err := r.resolve(h, labelValues, observability.KindCounter)
	if err != nil {
		return err
	}
	c, err := m.counter.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return fmt.Errorf("%s: %w", m.name, err)
	}
	c.Inc()
	return nil
}

func (r *prometheusRegistry) Observe(h observability.MetricHandle, v float64, labelValues ...string) error {
	m, err := r.resolve(h, labelValues, observability.KindSummary, observability.KindHistogram)
	if err != nil {
		return err
	}
	if math.IsNaN(v) {
		return fmt.Errorf("%s: NaN sample: %w", m.name, observability.ErrInvalidValue)
	}
	o, err := m.observer.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return fmt.Errorf("%s: %w", m.name, err)
	}
	o.Observe(v)
	return nil
}

func (r *prometheusRegistry) Add(h observability.MetricHandle, delta float64, labelValues ...string) error {
	m, err := r.resolve(h, labelValues, observability.KindGauge)
	if err != nil {
		return err
	}
	g, err := m.gauge.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return fmt.Errorf("%s: %w", m.name, err)
	}
	g.Add(delta)
	return nil
}

func (r *prometheusRegistry) Record(obs observability.Observation) error {
	r.mu.RLock()
	m, ok := r.metrics[obs.Metric]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%s: %w", obs.Metric, observability.ErrUnknownMetric)
	}

	switch m.kind {
	case observability.KindCounter:
		if obs.Value < 0 || math.IsNaN(obs.Value) {
			return fmt.Errorf("%s: counter increment %v: %w", m.name, obs.Value, observability.ErrInvalidValue)
		}
		if _, err := r.resolve(m, obs.LabelValues, observability.KindCounter); err != nil {
			return err
		}
		c, err := m.counter.GetMetricWithLabelValues(obs.LabelValues...)
		if err != nil {
			return fmt.Errorf("%s: %w", m.name, err)
		}
		c.Add(obs.Value)
		return nil
	case observability.KindGauge:
		return r.Add(m, obs.Value, obs.LabelValues...)
	default:
		return r.Observe(m, obs.Value, obs.LabelValues...)
	}
}

func (r *prometheusRegistry) resolve(
	h observability.MetricHandle,
	labelValues []string,
	kinds ...observability.MetricKind,
) (*promMetric, error) {
	m, ok := h.(*promMetric)
	if !ok || m.owner != r {
		return nil, fmt.Errorf("foreign metric handle: %w", observability.ErrUnknownMetric)
	}
	if !slices.Contains(kinds, m.kind) {
		return nil, fmt.Errorf("%s is a %s: %w", m.name, m.kind, observability.ErrKindMismatch)
	}
	if len(labelValues) != len(m.labelKeys) {
		return nil, fmt.Errorf("%s: got %d label values for %v: %w",
			m.name, len(labelValues), m.labelKeys, observability.ErrLabelMismatch)
	}
	return m, nil
}

// -------------------- Snapshot --------------------

func (r *prometheusRegistry) Snapshot() (observability.Snapshot, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(observability.Snapshot, 0, len(families))
	for _, mf := range families {
		var declared []string
		if m, ok := r.metrics[mf.GetName()]; ok {
			declared = m.labelKeys
		}
		snapshot = append(snapshot, familyFromProto(mf, declared))
	}
	return snapshot, nil
}

// familyFromProto lays label values out in declaration order, followed by
// any const labels in the order the registry reports them.
func familyFromProto(mf *dto.MetricFamily, declared []string) observability.Family {
	f := observability.Family{
		Name:      mf.GetName(),
		Help:      mf.GetHelp(),
		Kind:      kindFromProto(mf.GetType()),
		LabelKeys: slices.Clone(declared),
		Series:    make([]observability.Series, 0, len(mf.GetMetric())),
	}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if !slices.Contains(f.LabelKeys, lp.GetName()) {
				f.LabelKeys = append(f.LabelKeys, lp.GetName())
			}
		}
	}

	for _, m := range mf.GetMetric() {
		s := observability.Series{LabelValues: make([]string, len(f.LabelKeys))}
		for _, lp := range m.GetLabel() {
			s.LabelValues[slices.Index(f.LabelKeys, lp.GetName())] = lp.GetValue()
		}

		switch f.Kind {
		case observability.KindCounter:
			s.Value = m.GetCounter().GetValue()
		case observability.KindGauge:
			s.Value = m.GetGauge().GetValue()
		case observability.KindSummary:
			sum := m.GetSummary()
			s.Count = sum.GetSampleCount()
			s.Sum = sum.GetSampleSum()
			for _, q := range sum.GetQuantile() {
				s.Quantiles = append(s.Quantiles, observability.Quantile{Quantile: q.GetQuantile(), Value: q.GetValue()})
			}
		case observability.KindHistogram:
			h := m.GetHistogram()
			s.Count = h.GetSampleCount()
			s.Sum = h.GetSampleSum()
			for _, b := range h.GetBucket() {
				s.Buckets = append(s.Buckets, observability.Bucket{UpperBound: b.GetUpperBound(), CumulativeCount: b.GetCumulativeCount()})
			}
		default:
			s.Value = m.GetUntyped().GetValue()
		}
		f.Series = append(f.Series, s)
	}
	return f
}

// -------------------- Helpers --------------------

func firstOpt(opts []observability.MetricOpt) observability.MetricOpt {
	if len(opts) == 0 {
		return observability.MetricOpt{}
	}
	return opts[0]
}

// checkReservedLabels rejects label names client_golang adds itself. Const
// labels count too: the vector accepts them and panics on the first child.
func checkReservedLabels(kind observability.MetricKind, keys []string, constLabels []observability.Label) error {
	reserved := ""
	switch kind {
	case observability.KindSummary:
		reserved = "quantile"
	case observability.KindHistogram:
		reserved = "le"
	}
	if reserved == "" {
		return nil
	}
	if slices.Contains(keys, reserved) || slices.ContainsFunc(constLabels, func(l observability.Label) bool {
		return l.Key == reserved
	}) {
		return fmt.Errorf("label %q is reserved for %s metrics: %w", reserved, kind, observability.ErrLabelMismatch)
	}
	return nil
}

// isDescriptorConflict reports a name clash with a collector registered
// outside Declare. client_golang has no typed error for it.
func isDescriptorConflict(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "previously registered descriptor") ||
		strings.Contains(msg, "already exists with the same fully-qualified name")
}

func toPromLabelsMap(labels []observability.Label) prometheus.Labels {
	if len(labels) == 0 {
		return nil
	}
	m := make(prometheus.Labels, len(labels))
	for _, l := range labels {
		m[l.Key] = l.Value
	}
	return m
}

func kindFromProto(t dto.MetricType) observability.MetricKind {
	switch t {
	case dto.MetricType_COUNTER:
		return observability.KindCounter
	case dto.MetricType_GAUGE:
		return observability.KindGauge
	case dto.MetricType_SUMMARY:
		return observability.KindSummary
	case dto.MetricType_HISTOGRAM, dto.MetricType_GAUGE_HISTOGRAM:
		return observability.KindHistogram
	default:
		return observability.KindUntyped
	}
}

func kindToProto(k observability.MetricKind) dto.MetricType {
	switch k {
	case observability.KindCounter:
		return dto.MetricType_COUNTER
	case observability.KindGauge:
		return dto.MetricType_GAUGE
	case observability.KindSummary:
		return dto.MetricType_SUMMARY
	case observability.KindHistogram:
		return dto.MetricType_HISTOGRAM
	default:
		return dto.MetricType_UNTYPED
	}
}
