package bootstrap_test

import (
	"testing"
	"time"

	"github.com/jt828/go-http-template/internal/bootstrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := bootstrap.LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "go-http-template", cfg.ServiceName)
		assert.Equal(t, ":5000", cfg.HTTPAddr)
		assert.Equal(t, "/metrics", cfg.MetricsPath)
		assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
		assert.Equal(t, 15*time.Second, cfg.PushInterval)
		assert.True(t, cfg.RuntimeMetrics)
		assert.Empty(t, cfg.PushgatewayURL)
	})

	t.Run("reads the environment", func(t *testing.T) {
		t.Setenv("HTTP_ADDR", ":8080")
		t.Setenv("METRICS_ADDR", ":9100")
		t.Setenv("METRICS_PATH", "/internal/metrics")
		t.Setenv("METRICS_NAMESPACE", "shop")
		t.Setenv("METRICS_RUNTIME", "false")
		t.Setenv("PUSH_INTERVAL", "1m")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := bootstrap.LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, "/internal/metrics", cfg.MetricsPath)
		assert.Equal(t, time.Minute, cfg.PushInterval)

		obs := cfg.Observability()
		assert.Equal(t, ":9100", obs.MetricsAddr)
		assert.Equal(t, "/internal/metrics", obs.MetricsPath)
		assert.Equal(t, "shop", obs.MetricsNamespace)
		assert.False(t, obs.RuntimeMetrics)
		assert.Equal(t, "debug", obs.Log.Level)
	})

	t.Run("metrics path must be absolute", func(t *testing.T) {
		t.Setenv("METRICS_PATH", "metrics")

		_, err := bootstrap.LoadConfig()
		assert.ErrorContains(t, err, "METRICS_PATH")
	})

	t.Run("push interval must be positive", func(t *testing.T) {
		t.Setenv("PUSH_INTERVAL", "0s")

		_, err := bootstrap.LoadConfig()
		assert.ErrorContains(t, err, "PUSH_INTERVAL")
	})

	t.Run("malformed duration", func(t *testing.T) {
		t.Setenv("SHUTDOWN_TIMEOUT", "soon")

		_, err := bootstrap.LoadConfig()
		assert.ErrorContains(t, err, "parse env")
	})
}
