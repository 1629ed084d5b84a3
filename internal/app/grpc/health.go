// Package grpc publishes the target health through the standard gRPC health service.
package grpc

import (
	"github.com/maroux/heroku-deployer/internal/app"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"log/slog"
)

// NewHealth creates the status service over the health server.
func NewHealth(srv *health.Server, logger *slog.Logger) app.StatusSvc {
	return Health{srv: srv, logger: logger}
}

// Health reports every target as a separate gRPC service, named after the target.
type Health struct {
	srv    *health.Server
	logger *slog.Logger
}

// Report sets the serving status of the target after a finished run.
func (h Health) Report(target string, ok bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.srv.SetServingStatus(target, status)
	h.logger.Debug("health status", "target", target, "status", status.String())
}
