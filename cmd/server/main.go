package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jt828/go-http-template/internal/bootstrap"
	"github.com/jt828/go-http-template/internal/controller"
	"github.com/jt828/go-http-template/internal/interceptor"
	"github.com/jt828/go-http-template/pkg/observability"
	"github.com/jt828/go-http-template/pkg/observability/implementation"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		panic(err)
	}

	obs, err := implementation.NewObservability(cfg.Observability())
	if err != nil {
		panic(err)
	}
	log := obs.Logger()

	metrics, err := interceptor.NewMetricsInterceptor(obs.Registry(), log)
	if err != nil {
		log.Fatal("failed to declare request metrics", observability.Err(err))
	}

	idGen, err := bootstrap.InitializeSnowflake(log)
	if err != nil {
		log.Fatal("failed to initialize snowflake", observability.Err(err))
	}

	if err := obs.Start(ctx); err != nil {
		log.Error("failed to start observability", observability.Err(err))
	}

	deps := bootstrap.HTTPDeps{
		Log:            log,
		Metrics:        metrics,
		IDs:            idGen,
		MetricsHandler: obs.MetricsHandler(),
		MetricsPath:    cfg.MetricsPath,
		Catalog:        controller.NewCatalogController(),
	}
	rt := bootstrap.InitializeRouter(deps)
	rt.LogRoutes()

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: bootstrap.InitializeHTTPHandler(rt, deps),
	}

	var grpcServer *bootstrap.GRPC
	if cfg.GRPCAddr != "" {
		grpcServer, err = bootstrap.InitializeGRPC(obs.Registry(), log)
		if err != nil {
			log.Fatal("failed to initialize grpc", observability.Err(err))
		}
	}

	pushDone := make(chan struct{})
	if pusher := bootstrap.InitializePusher(cfg, obs); pusher != nil {
		go func() {
			defer close(pushDone)
			pusher.Run(ctx)
		}()
	} else {
		close(pushDone)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		log.Info("Shutting down server...")
		cancel() // cancel root context
	}()

	go func() {
		log.Info("HTTP server running", observability.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to serve http", observability.Err(err))
		}
	}()

	if grpcServer != nil {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatal("failed to listen", observability.Err(err))
		}
		grpcServer.SetServing(true)

		go func() {
			log.Info("gRPC health server running", observability.String("addr", cfg.GRPCAddr))
			if err := grpcServer.Server.Serve(lis); err != nil {
				log.Error("failed to serve grpc", observability.Err(err))
			}
		}()
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if grpcServer != nil {
		grpcServer.SetServing(false)
	}

	log.Info("Graceful stopping HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down http server", observability.Err(err))
	}

	if grpcServer != nil {
		grpcServer.Server.GracefulStop()
		log.Info("gRPC server stopped")
	}

	<-pushDone

	if err := obs.Close(shutdownCtx); err != nil {
		log.Error("failed to close observability", observability.Err(err))
	}
}
