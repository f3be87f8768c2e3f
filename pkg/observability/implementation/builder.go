package implementation

import (
	"context"
	"net/http"

	"github.com/jt828/go-http-template/pkg/observability"
)

type Config struct {
	ServiceName      string
	Log              LogConfig
	OTLPEndpoint     string
	MetricsNamespace string
	RuntimeMetrics   bool
	MetricsAddr      string
	MetricsPath      string
}

func NewObservability(cfg Config) (*ObservabilityImplementation, error) {
	log, err := NewZapLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	registry := NewPrometheusRegistry(cfg.MetricsNamespace)
	if cfg.RuntimeMetrics {
		if err := RegisterRuntimeCollectors(registry, log); err != nil {
			return nil, err
		}
	}

	tracer, shutdown, err := NewOtelTracer(context.Background(), cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return nil, err
	}

	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	return &ObservabilityImplementation{
		log:            log,
		registry:       registry,
		tracer:         tracer,
		metricsHandler: NewMetricsHandler(registry, log),
		metricsAddr:    cfg.MetricsAddr,
		metricsPath:    metricsPath,
		traceClose:     shutdown,
	}, nil
}

var _ observability.Observability = (*ObservabilityImplementation)(nil)

func (o *ObservabilityImplementation) MetricsHandler() http.Handler { return o.metricsHandler }
