package bootstrap_test

import (
	"context"
	"net"
	"testing"

	"github.com/jt828/go-http-template/internal/bootstrap"
	obsImpl "github.com/jt828/go-http-template/pkg/observability/implementation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func TestInitializeGRPC(t *testing.T) {
	registry := obsImpl.NewPrometheusRegistry("")
	g, err := bootstrap.InitializeGRPC(registry, obsImpl.WrapZap(zap.NewNop()))
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = g.Server.Serve(lis) }()
	t.Cleanup(g.Server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := grpc_health_v1.NewHealthClient(conn)

	t.Run("not serving until started", func(t *testing.T) {
		resp, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
		require.NoError(t, err)
		assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
	})

	t.Run("serving after SetServing", func(t *testing.T) {
		g.SetServing(true)

		resp, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
		require.NoError(t, err)
		assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
	})

	t.Run("calls land in the shared registry", func(t *testing.T) {
		snapshot, err := registry.Snapshot()
		require.NoError(t, err)

		family, ok := snapshot.Family("grpc_server_handled_total")
		require.True(t, ok)
		assert.NotEmpty(t, family.Series)
		assert.NoError(t, snapshot.Validate())
	})

	t.Run("second server on the same registry conflicts", func(t *testing.T) {
		_, err := bootstrap.InitializeGRPC(registry, obsImpl.WrapZap(zap.NewNop()))
		assert.Error(t, err)
	})
}
