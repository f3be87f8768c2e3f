package observability

import (
	"context"
	"net/http"
)

type Observability interface {
	Close(ctx context.Context) error
	Logger() Logger
	// MetricsHandler serves the Registry in the Prometheus exposition format.
	MetricsHandler() http.Handler
	Registry() Registry
	Start(ctx context.Context) error
	Tracer() Tracer
}
