package interceptor_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jt828/go-http-template/internal/interceptor"
	snowflakeImpl "github.com/jt828/go-http-template/pkg/snowflake/implementation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDInterceptor(t *testing.T) {
	ids, err := snowflakeImpl.NewSnowflake(1)
	require.NoError(t, err)

	var seen string
	h := interceptor.RequestIDInterceptor(ids)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = interceptor.RequestIDFromContext(r.Context())
	}))

	t.Run("assigns an id when none is sent", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/")

		id := rec.Header().Get(interceptor.RequestIDHeader)
		assert.NotEmpty(t, id)
		assert.Equal(t, id, seen)
	})

	t.Run("keeps the caller's id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(interceptor.RequestIDHeader, "abc-123")

		h.ServeHTTP(rec, r)

		assert.Equal(t, "abc-123", rec.Header().Get(interceptor.RequestIDHeader))
		assert.Equal(t, "abc-123", seen)
	})

	t.Run("replaces an oversized id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		long := strings.Repeat("x", 200)
		r.Header.Set(interceptor.RequestIDHeader, long)

		h.ServeHTTP(rec, r)

		assert.NotEqual(t, long, seen)
		assert.NotEmpty(t, seen)
	})

	t.Run("empty outside a request", func(t *testing.T) {
		assert.Empty(t, interceptor.RequestIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
	})
}
