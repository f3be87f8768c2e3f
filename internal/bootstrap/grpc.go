package bootstrap

import (
	"fmt"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/jt828/go-http-template/pkg/observability"
	obsImpl "github.com/jt828/go-http-template/pkg/observability/implementation"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type GRPC struct {
	Server *grpc.Server
	Health *health.Server
}

// InitializeGRPC builds a gRPC server exposing only the health service. Its
// call metrics land in the same registry as the HTTP metrics.
func InitializeGRPC(registry observability.Registry, log observability.Logger) (*GRPC, error) {
	grpcMetrics := grpc_prometheus.NewServerMetrics()
	if err := obsImpl.RegisterCollector(registry, grpcMetrics, log); err != nil {
		return nil, fmt.Errorf("register grpc metrics: %w", err)
	}

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.StreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpc_health_v1.RegisterHealthServer(server, healthServer)

	grpcMetrics.InitializeMetrics(server)

	return &GRPC{Server: server, Health: healthServer}, nil
}

func (g *GRPC) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	g.Health.SetServingStatus("", status)
}
