package interceptor

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/jt828/go-http-template/pkg/observability"
)

const (
	RequestsTotalMetric    = "http_requests_total"
	RequestDurationMetric  = "http_request_duration_seconds"
	RequestsInFlightMetric = "http_requests_in_flight"

	// UnmatchedEndpoint labels requests no route pattern matched.
	UnmatchedEndpoint = "unmatched"
	otherMethod       = "OTHER"
	unknownStatus     = "unknown"
)

var knownMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodConnect: {},
	http.MethodOptions: {},
	http.MethodTrace:   {},
}

// RequestContext carries the per-request state between OnStart and OnEnd.
// The zero value marks a request that is not instrumented.
type RequestContext struct {
	start    time.Time
	inFlight bool
}

type MetricsInterceptor struct {
	registry observability.Registry
	log      observability.Logger

	requests observability.MetricHandle
	duration observability.MetricHandle
	inFlight observability.MetricHandle
}

// NewMetricsInterceptor declares the request metrics on registry. A
// declaration conflict is returned as observability.ErrDuplicateMetric and
// should stop the process.
func NewMetricsInterceptor(
	registry observability.Registry,
	log observability.Logger,
) (*MetricsInterceptor, error) {
	requests, err := registry.Declare(RequestsTotalMetric, observability.KindCounter, observability.MetricOpt{
		Help:      "Total number of HTTP requests by method, route pattern and status code",
		LabelKeys: []string{"method", "endpoint", "http_status"},
	})
	if err != nil {
		return nil, fmt.Errorf("declare request counter: %w", err)
	}

	duration, err := registry.Declare(RequestDurationMetric, observability.KindSummary, observability.MetricOpt{
		Help:      "Duration of HTTP requests in seconds",
		LabelKeys: []string{"method", "endpoint"},
	})
	if err != nil {
		return nil, fmt.Errorf("declare request duration: %w", err)
	}

	inFlight, err := registry.Declare(RequestsInFlightMetric, observability.KindGauge, observability.MetricOpt{
		Help: "Number of HTTP requests currently being served",
	})
	if err != nil {
		return nil, fmt.Errorf("declare in-flight gauge: %w", err)
	}

	return &MetricsInterceptor{
		registry: registry,
		log:      log,
		requests: requests,
		duration: duration,
		inFlight: inFlight,
	}, nil
}

// OnStart timestamps the request. It never fails the request: if anything
// goes wrong the request proceeds uninstrumented.
func (i *MetricsInterceptor) OnStart(r *http.Request) (rc RequestContext) {
	defer func() {
		if p := recover(); p != nil {
			i.log.Error("metrics start hook panicked", observability.String("panic", fmt.Sprint(p)), observability.String("method", r.Method))
			rc = RequestContext{}
		}
	}()

	rc.start = time.Now()
	if err := i.registry.Add(i.inFlight, 1); err != nil {
		i.log.Error("failed to track in-flight request", observability.Err(err))
	} else {
		rc.inFlight = true
	}
	return rc
}

// OnEnd records one request count and one latency sample for the request.
// Failures are logged and never reach the caller.
func (i *MetricsInterceptor) OnEnd(r *http.Request, status int, rc RequestContext) {
	if rc.start.IsZero() {
		return
	}
	elapsed := time.Since(rc.start)

	method := MethodLabel(r.Method)
	endpoint := EndpointLabel(r.Pattern)

	defer func() {
		if p := recover(); p != nil {
			i.log.Error("metrics end hook panicked",
				observability.String("panic", fmt.Sprint(p)),
				observability.String("method", method),
				observability.String("endpoint", endpoint),
			)
		}
	}()

	now := time.Now()
	observations := []observability.Observation{
		{
			Metric:      i.requests.Name(),
			LabelValues: []string{method, endpoint, StatusLabel(status)},
			Value:       1,
			Timestamp:   now,
		},
		{
			Metric:      i.duration.Name(),
			LabelValues: []string{method, endpoint},
			Value:       elapsed.Seconds(),
			Timestamp:   now,
		},
	}
	for _, obs := range observations {
		if err := i.registry.Record(obs); err != nil {
			i.log.Error("failed to record request metric",
				observability.Err(err),
				observability.String("metric", obs.Metric),
				observability.String("method", method),
				observability.String("endpoint", endpoint),
			)
		}
	}
}

func (i *MetricsInterceptor) done(rc RequestContext) {
	if !rc.inFlight {
		return
	}
	if err := i.registry.Add(i.inFlight, -1); err != nil {
		i.log.Error("failed to release in-flight request", observability.Err(err))
	}
}

// Middleware calls OnStart and OnEnd around next. It must wrap the
// http.ServeMux directly, without replacing the request, so that the route
// pattern the mux matched is visible to OnEnd. A handler that aborts the
// request with a panic records no observation. Handlers must write the
// response on the goroutine ServeHTTP was called on; the captured status is
// not synchronized.
func (i *MetricsInterceptor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := i.OnStart(r)
		defer i.done(rc)

		status := http.StatusOK
		wroteHeader := false
		ww := httpsnoop.Wrap(w, httpsnoop.Hooks{
			WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
				return func(code int) {
					if !wroteHeader && code >= http.StatusOK {
						status = code
						wroteHeader = true
					}
					next(code)
				}
			},
			Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
				return func(b []byte) (int, error) {
					wroteHeader = true
					return next(b)
				}
			},
			ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
				return func(src io.Reader) (int64, error) {
					wroteHeader = true
					return next(src)
				}
			},
		})

		next.ServeHTTP(ww, r)

		i.OnEnd(r, status, rc)
	})
}

// MethodLabel bounds the method label to the standard methods.
func MethodLabel(method string) string {
	if _, ok := knownMethods[method]; ok {
		return method
	}
	return otherMethod
}

// EndpointLabel turns a ServeMux pattern such as "GET example.com/api/{id}"
// into its path part, dropping a trailing "{$}". An empty pattern means
// nothing matched.
func EndpointLabel(pattern string) string {
	if pattern == "" {
		return UnmatchedEndpoint
	}
	if i := strings.IndexAny(pattern, " \t"); i >= 0 {
		pattern = strings.TrimLeft(pattern[i:], " \t")
	}
	if i := strings.Index(pattern, "/"); i > 0 {
		pattern = pattern[i:]
	}
	return strings.TrimSuffix(pattern, "{$}")
}

func StatusLabel(status int) string {
	if status < 100 || status > 599 {
		return unknownStatus
	}
	return strconv.Itoa(status)
}
