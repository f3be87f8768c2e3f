package implementation

import (
	"context"
	"net/http"

	"github.com/jt828/go-http-template/pkg/observability"
)

type ObservabilityImplementation struct {
	log      observability.Logger
	registry observability.Registry
	tracer   observability.Tracer

	metricsHandler http.Handler
	metricsAddr    string
	metricsPath    string

	metricsServer *http.Server
	traceClose    func(context.Context) error
}

func (o *ObservabilityImplementation) Close(ctx context.Context) error {
	var err error
	if o.metricsServer != nil {
		err = o.metricsServer.Shutdown(ctx)
	}
	if o.traceClose != nil {
		if e := o.traceClose(ctx); err == nil {
			err = e
		}
	}
	if s, ok := o.log.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
	return err
}
func (o *ObservabilityImplementation) Logger() observability.Logger     { return o.log }
func (o *ObservabilityImplementation) Registry() observability.Registry { return o.registry }
func (o *ObservabilityImplementation) Start(ctx context.Context) error {
	if o.metricsAddr != "" {
		o.metricsServer = StartMetricsServer(o.metricsAddr, o.metricsPath, o.metricsHandler, o.log)
	}
	return nil
}
func (o *ObservabilityImplementation) Tracer() observability.Tracer { return o.tracer }
