package bootstrap

import (
	"net/http"

	"github.com/jt828/go-http-template/internal/controller"
	"github.com/jt828/go-http-template/internal/interceptor"
	"github.com/jt828/go-http-template/internal/router"
	"github.com/jt828/go-http-template/pkg/observability"
	"github.com/jt828/go-http-template/pkg/snowflake"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type HTTPDeps struct {
	Log            observability.Logger
	Metrics        *interceptor.MetricsInterceptor
	IDs            snowflake.Snowflake
	MetricsHandler http.Handler
	MetricsPath    string
	Catalog        *controller.CatalogController
}

func InitializeRouter(deps HTTPDeps) *router.Router {
	rt := router.New(deps.Log)

	rt.HandleFunc(http.MethodGet, "/{$}", "home", deps.Catalog.Home)
	rt.HandleFunc(http.MethodGet, "/api/produtos", "list_products", deps.Catalog.ListProducts)
	rt.HandleFunc(http.MethodGet, "/api/supermercados", "list_supermarkets", deps.Catalog.ListSupermarkets)
	rt.HandleFunc(http.MethodPost, "/api/encomendas", "create_order", deps.Catalog.CreateOrder)
	rt.HandleFunc(http.MethodGet, "/api/impacto", "impact", deps.Catalog.Impact)
	rt.Handle(http.MethodGet, deps.MetricsPath, "metrics", deps.MetricsHandler)

	return rt
}

// InitializeHTTPHandler wraps rt, outermost first: tracing, request id,
// request metrics. The metrics middleware sits directly on the router so it
// sees the matched route pattern.
func InitializeHTTPHandler(rt *router.Router, deps HTTPDeps) http.Handler {
	var h http.Handler = rt
	h = deps.Metrics.Middleware(h)
	h = interceptor.RequestIDInterceptor(deps.IDs)(h)
	return otelhttp.NewHandler(h, "http.server")
}
