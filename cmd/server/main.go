package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/julienschmidt/httprouter"
	"github.com/maroux/heroku-deployer/internal/app"
	"github.com/maroux/heroku-deployer/internal/app/config"
	"github.com/maroux/heroku-deployer/internal/app/metrics"
	"github.com/maroux/heroku-deployer/internal/app/svc"
	"github.com/maroux/heroku-deployer/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

func main() {
	cfg, err := config.Load(os.LookupEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "main: config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New("heroku-deployer", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// get the dispatcher, the router and the health server using DI wire
	c, cleanup, err := initializeContainer(ctx, cfg, log)
	if err != nil {
		log.Error("main: initialize", "error", err)
		os.Exit(1)
	}
	defer cleanup()
	var wg sync.WaitGroup
	wg.Add(1)
	// run the workers that perform the queued deployments in background
	go func() {
		defer wg.Done()
		c.dispatcher.Run(ctx)
	}()
	grpcSrv, err := runGrpcServer(cfg.GRPCPort, c.health, log)
	if err != nil {
		log.Error("main: grpc", "error", err)
		stop()
		wg.Wait()
		cleanup()
		os.Exit(1)
	}
	runHttpServer(ctx, cfg.HTTPPort, c.router, log)
	c.health.Shutdown()
	grpcSrv.GracefulStop()
	wg.Wait()
}

type container struct {
	dispatcher svc.Dispatcher
	router     *httprouter.Router
	health     *health.Server
}

func newContainer(dispatcher svc.Dispatcher, router *httprouter.Router, healthSrv *health.Server) container {
	return container{
		dispatcher: dispatcher,
		router:     router,
		health:     healthSrv,
	}
}

func newQueue(d svc.Dispatcher) app.DispatcherSvc {
	return d
}

func newMetrics() app.MetricsSvc {
	return metrics.New(prometheus.DefaultRegisterer)
}

func runGrpcServer(port string, h *health.Server, log *slog.Logger) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("listen: %w; port = %s", err, port)
	}
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, h)
	go func() {
		if err := srv.Serve(lis); err != nil {
			log.Error("main.runGrpcServer: serve grpc", "error", err, "port", port)
		}
	}()
	log.Info("listening for gRPC health checks", "port", port)
	return srv, nil
}

func runHttpServer(ctx context.Context, port string, router *httprouter.Router, log *slog.Logger) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("main.runHttpServer: serve http", "error", err, "port", port)
			os.Exit(1)
		}
	}()
	log.Info("listening for HTTP connections", "port", port)
	<-ctx.Done()
	log.Info("stopping the application")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("main.runHttpServer: server shutdown", "error", err)
	}
}
