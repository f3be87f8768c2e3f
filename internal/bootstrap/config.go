package bootstrap

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	obsImpl "github.com/jt828/go-http-template/pkg/observability/implementation"
)

type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"go-http-template"`
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":5000"`
	GRPCAddr        string        `env:"GRPC_ADDR"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT"`

	MetricsAddr      string `env:"METRICS_ADDR"`
	MetricsPath      string `env:"METRICS_PATH" envDefault:"/metrics"`
	MetricsNamespace string `env:"METRICS_NAMESPACE"`
	RuntimeMetrics   bool   `env:"METRICS_RUNTIME" envDefault:"true"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	PushgatewayURL string        `env:"PUSHGATEWAY_URL"`
	PushJob        string        `env:"PUSH_JOB" envDefault:"go-http-template"`
	PushInterval   time.Duration `env:"PUSH_INTERVAL" envDefault:"15s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MetricsPath == "" || cfg.MetricsPath[0] != '/' {
		return Config{}, fmt.Errorf("METRICS_PATH must start with /: %q", cfg.MetricsPath)
	}
	if cfg.PushInterval <= 0 {
		return Config{}, fmt.Errorf("PUSH_INTERVAL must be positive: %s", cfg.PushInterval)
	}
	return cfg, nil
}

func (c Config) Observability() obsImpl.Config {
	return obsImpl.Config{
		ServiceName: c.ServiceName,
		Log: obsImpl.LogConfig{
			Level:       c.LogLevel,
			Development: c.LogDevelopment,
		},
		OTLPEndpoint:     c.OTLPEndpoint,
		MetricsNamespace: c.MetricsNamespace,
		RuntimeMetrics:   c.RuntimeMetrics,
		MetricsAddr:      c.MetricsAddr,
		MetricsPath:      c.MetricsPath,
	}
}
