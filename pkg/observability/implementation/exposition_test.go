package implementation_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jt828/go-http-template/pkg/observability"
	"github.com/jt828/go-http-template/pkg/observability/implementation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// snapshotRegistry is a Registry whose Snapshot result is fixed.
type snapshotRegistry struct {
	observability.Registry
	snapshot observability.Snapshot
	err      error
}

func (r *snapshotRegistry) Snapshot() (observability.Snapshot, error) {
	return r.snapshot, r.err
}

func scrape(t *testing.T, h http.Handler, accept string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Result()
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetricsHandler(t *testing.T) {
	t.Run("serves counters and summaries in text format", func(t *testing.T) {
		reg := implementation.NewPrometheusRegistry("")
		counter, err := reg.Declare("http_requests_total", observability.KindCounter, requestLabels())
		require.NoError(t, err)
		summary, err := reg.Declare("http_request_duration_seconds", observability.KindSummary, durationLabels())
		require.NoError(t, err)
		require.NoError(t, reg.Increment(counter, "GET", "/api/produtos", "200"))
		require.NoError(t, reg.Increment(counter, "GET", "/api/produtos", "200"))
		require.NoError(t, reg.Observe(summary, 0.5, "GET", "/api/produtos"))

		h := implementation.NewMetricsHandler(reg, implementation.WrapZap(zap.NewNop()))
		resp := scrape(t, h, "")
		body := readBody(t, resp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain; version=0.0.4"))
		assert.Contains(t, body, `http_requests_total{method="GET",endpoint="/api/produtos",http_status="200"} 2`)
		assert.Contains(t, body, `http_request_duration_seconds_sum{method="GET",endpoint="/api/produtos"} 0.5`)
		assert.Contains(t, body, `http_request_duration_seconds_count{method="GET",endpoint="/api/produtos"} 1`)
		assert.Contains(t, body, "# TYPE http_requests_total counter")
	})

	t.Run("lines of one metric are contiguous", func(t *testing.T) {
		reg := implementation.NewPrometheusRegistry("")
		counter, err := reg.Declare("http_requests_total", observability.KindCounter, requestLabels())
		require.NoError(t, err)
		other, err := reg.Declare("jobs_total", observability.KindCounter)
		require.NoError(t, err)
		require.NoError(t, reg.Increment(counter, "GET", "/a", "200"))
		require.NoError(t, reg.Increment(other))
		require.NoError(t, reg.Increment(counter, "POST", "/b", "201"))

		h := implementation.NewMetricsHandler(reg, implementation.WrapZap(zap.NewNop()))
		body := readBody(t, scrape(t, h, ""))

		var names []string
		for _, line := range strings.Split(body, "\n") {
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "promhttp_") {
				continue
			}
			name := line[:strings.IndexAny(line, "{ ")]
			if len(names) == 0 || names[len(names)-1] != name {
				names = append(names, name)
			}
		}
		assert.Equal(t, []string{"http_requests_total", "jobs_total"}, names)
	})

	t.Run("serves OpenMetrics when asked", func(t *testing.T) {
		reg := implementation.NewPrometheusRegistry("")
		counter, err := reg.Declare("http_requests_total", observability.KindCounter, requestLabels())
		require.NoError(t, err)
		require.NoError(t, reg.Increment(counter, "GET", "/", "200"))

		h := implementation.NewMetricsHandler(reg, implementation.WrapZap(zap.NewNop()))
		resp := scrape(t, h, "application/openmetrics-text; version=1.0.0")
		body := readBody(t, resp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/openmetrics-text")
		assert.True(t, strings.HasSuffix(body, "# EOF\n"))
	})

	t.Run("inconsistent snapshot is a 500 with empty body", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		reg := &snapshotRegistry{snapshot: observability.Snapshot{{
			Name:      "http_requests_total",
			Kind:      observability.KindCounter,
			LabelKeys: []string{"method", "endpoint", "http_status"},
			Series:    []observability.Series{{LabelValues: []string{"GET"}, Value: 1}},
		}}}

		h := implementation.NewMetricsHandler(reg, implementation.WrapZap(zap.New(core)))
		resp := scrape(t, h, "")

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Empty(t, readBody(t, resp))
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "metrics exposition failed", logs.All()[0].Message)
	})

	t.Run("snapshot error is a 500", func(t *testing.T) {
		reg := &snapshotRegistry{err: errors.New("gather failed")}

		h := implementation.NewMetricsHandler(reg, implementation.WrapZap(zap.NewNop()))
		resp := scrape(t, h, "")

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Empty(t, readBody(t, resp))
	})

	t.Run("scrape does not change the snapshot", func(t *testing.T) {
		reg := implementation.NewPrometheusRegistry("")
		counter, err := reg.Declare("http_requests_total", observability.KindCounter, requestLabels())
		require.NoError(t, err)
		require.NoError(t, reg.Increment(counter, "GET", "/", "200"))

		h := implementation.NewMetricsHandler(reg, implementation.WrapZap(zap.NewNop()))
		scrape(t, h, "")
		scrape(t, h, "")

		assert.Equal(t, float64(1), counterValue(t, reg, "http_requests_total", "GET", "/", "200"))
	})
}

func TestSnapshotGatherer(t *testing.T) {
	reg := implementation.NewPrometheusRegistry("")
	counter, err := reg.Declare("http_requests_total", observability.KindCounter, requestLabels())
	require.NoError(t, err)
	require.NoError(t, reg.Increment(counter, "GET", "/", "200"))

	families, err := implementation.NewSnapshotGatherer(reg).Gather()
	require.NoError(t, err)

	require.Len(t, families, 1)
	mf := families[0]
	assert.Equal(t, "http_requests_total", mf.GetName())
	require.Len(t, mf.GetMetric(), 1)
	labels := mf.GetMetric()[0].GetLabel()
	require.Len(t, labels, 3)
	assert.Equal(t, "method", labels[0].GetName())
	assert.Equal(t, "endpoint", labels[1].GetName())
	assert.Equal(t, "http_status", labels[2].GetName())
	assert.Equal(t, float64(1), mf.GetMetric()[0].GetCounter().GetValue())
}
