package implementation

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/jt828/go-http-template/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

type metricsHandler struct {
	gatherer prometheus.Gatherer
	log      observability.Logger
}

// NewMetricsHandler serves the registry snapshot in the Prometheus text
// format, or OpenMetrics when the scraper asks for it. A snapshot that
// cannot be serialized yields a 500 with an empty body.
func NewMetricsHandler(registry observability.Registry, log observability.Logger) http.Handler {
	h := &metricsHandler{
		gatherer: NewSnapshotGatherer(registry),
		log:      log,
	}
	if reg := PromRegistry(registry); reg != nil {
		return promhttp.InstrumentMetricHandler(reg, h)
	}
	return h
}

func (h *metricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	families, err := h.gatherer.Gather()
	if err != nil {
		h.fail(w, err)
		return
	}

	format := expfmt.NegotiateIncludingOpenMetrics(r.Header)

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, format)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			h.fail(w, fmt.Errorf("encode %s: %w", mf.GetName(), err))
			return
		}
	}
	if closer, ok := enc.(expfmt.Closer); ok {
		if err := closer.Close(); err != nil {
			h.fail(w, err)
			return
		}
	}

	w.Header().Set("Content-Type", string(format))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *metricsHandler) fail(w http.ResponseWriter, err error) {
	h.log.Error("metrics exposition failed", observability.Err(err))
	w.WriteHeader(http.StatusInternalServerError)
}

// -------------------- Gatherer --------------------

type snapshotGatherer struct {
	registry observability.Registry
}

// NewSnapshotGatherer adapts a Registry to prometheus.Gatherer so that every
// exporter serializes the same validated snapshot.
func NewSnapshotGatherer(registry observability.Registry) prometheus.Gatherer {
	return &snapshotGatherer{registry: registry}
}

func (g *snapshotGatherer) Gather() ([]*dto.MetricFamily, error) {
	snapshot, err := g.registry.Snapshot()
	if err != nil {
		return nil, err
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return snapshotToProto(snapshot), nil
}

func snapshotToProto(s observability.Snapshot) []*dto.MetricFamily {
	out := make([]*dto.MetricFamily, 0, len(s))
	for _, f := range s {
		if len(f.Series) == 0 {
			continue
		}
		out = append(out, familyToProto(f))
	}
	return out
}

func familyToProto(f observability.Family) *dto.MetricFamily {
	mf := &dto.MetricFamily{
		Name:   proto.String(f.Name),
		Type:   kindToProto(f.Kind).Enum(),
		Metric: make([]*dto.Metric, 0, len(f.Series)),
	}
	if f.Help != "" {
		mf.Help = proto.String(f.Help)
	}

	for _, s := range f.Series {
		m := &dto.Metric{Label: make([]*dto.LabelPair, 0, len(f.LabelKeys))}
		for i, key := range f.LabelKeys {
			m.Label = append(m.Label, &dto.LabelPair{
				Name:  proto.String(key),
				Value: proto.String(s.LabelValues[i]),
			})
		}

		switch f.Kind {
		case observability.KindCounter:
			m.Counter = &dto.Counter{Value: proto.Float64(s.Value)}
		case observability.KindGauge:
			m.Gauge = &dto.Gauge{Value: proto.Float64(s.Value)}
		case observability.KindSummary:
			sum := &dto.Summary{
				SampleCount: proto.Uint64(s.Count),
				SampleSum:   proto.Float64(s.Sum),
			}
			for _, q := range s.Quantiles {
				sum.Quantile = append(sum.Quantile, &dto.Quantile{
					Quantile: proto.Float64(q.Quantile),
					Value:    proto.Float64(q.Value),
				})
			}
			m.Summary = sum
		case observability.KindHistogram:
			h := &dto.Histogram{
				SampleCount: proto.Uint64(s.Count),
				SampleSum:   proto.Float64(s.Sum),
			}
			for _, b := range s.Buckets {
				h.Bucket = append(h.Bucket, &dto.Bucket{
					UpperBound:      proto.Float64(b.UpperBound),
					CumulativeCount: proto.Uint64(b.CumulativeCount),
				})
			}
			m.Histogram = h
		default:
			m.Untyped = &dto.Untyped{Value: proto.Float64(s.Value)}
		}
		mf.Metric = append(mf.Metric, m)
	}
	return mf
}
