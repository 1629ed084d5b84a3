//go:build wireinject
// +build wireinject

package main

import (
	"context"
	"github.com/google/wire"
	"github.com/maroux/heroku-deployer/internal/app/config"
	"github.com/maroux/heroku-deployer/internal/app/grpc"
	"github.com/maroux/heroku-deployer/internal/app/http"
	"github.com/maroux/heroku-deployer/internal/app/provider"
	"github.com/maroux/heroku-deployer/internal/app/svc"
	"google.golang.org/grpc/health"
	"log/slog"
)

func initializeContainer(ctx context.Context, cfg config.Config, logger *slog.Logger) (container, func(), error) {
	wire.Build(
		wire.FieldsOf(new(config.Config), "ReposDir", "AccessKey", "WebhookSecret", "DeployKey", "Dispatcher", "Git"),
		health.NewServer,
		grpc.NewHealth,
		svc.NewGit,
		svc.NewRemotes,
		svc.NewWindow,
		svc.NewPolicy,
		svc.NewPipeline,
		svc.NewRetry,
		svc.NewDeployer,
		svc.NewDispatcher,
		http.NewHandler,
		http.NewRouter,
		newContainer,
		newQueue,
		provider.Targets,
		provider.RunRepo,
		provider.Locker,
		newMetrics,
	)
	return container{}, nil, nil
}
