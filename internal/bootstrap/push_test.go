package bootstrap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jt828/go-http-template/internal/bootstrap"
	obsImpl "github.com/jt828/go-http-template/pkg/observability/implementation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializePusher(t *testing.T) {
	obs, err := obsImpl.NewObservability(obsImpl.Config{ServiceName: "test", Log: obsImpl.LogConfig{Level: "error"}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = obs.Close(context.Background()) })

	t.Run("disabled without a gateway url", func(t *testing.T) {
		cfg, err := bootstrap.LoadConfig()
		require.NoError(t, err)

		assert.Nil(t, bootstrap.InitializePusher(cfg, obs))
	})

	t.Run("pushes to the configured gateway", func(t *testing.T) {
		var calls atomic.Int32
		gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(gateway.Close)

		t.Setenv("PUSHGATEWAY_URL", gateway.URL)
		cfg, err := bootstrap.LoadConfig()
		require.NoError(t, err)

		pusher := bootstrap.InitializePusher(cfg, obs)
		require.NotNil(t, pusher)
		require.NoError(t, pusher.Push(context.Background()))
		assert.Equal(t, int32(1), calls.Load())
	})
}
