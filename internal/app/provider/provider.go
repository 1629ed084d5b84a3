// Package provider holds the DI providers shared by the binaries.
package provider

import (
	"context"
	"github.com/beldeveloper/go-errors-context"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/maroux/heroku-deployer/internal/app"
	"github.com/maroux/heroku-deployer/internal/app/config"
	"github.com/maroux/heroku-deployer/internal/app/postgres"
	"github.com/maroux/heroku-deployer/internal/app/redis"
	"github.com/maroux/heroku-deployer/internal/app/svc"
	"log/slog"
	"os"
)

// Targets creates the target lookup over the process environment.
func Targets(cfg config.Config) (app.TargetRepo, error) {
	return config.NewTargets(os.LookupEnv, cfg.TargetsFile, cfg.Apps)
}

// RunRepo uses Postgres when the database is configured and the in-memory history otherwise.
// The schema is migrated before the pool is opened.
func RunRepo(ctx context.Context, cfg config.Config, logger *slog.Logger) (app.RunRepo, func(), error) {
	if !cfg.DB.Enabled() {
		logger.Info("run history is kept in memory")
		return svc.NewMemoryRuns(), func() {}, nil
	}
	err := postgres.NewMigrator(cfg.DB.DSN(), logger).Up(ctx)
	if err != nil {
		return nil, nil, errors.WrapContext(err, errors.Context{Path: "provider.RunRepo.migrate"})
	}
	conn, err := pgxpool.Connect(ctx, cfg.DB.DSN())
	if err != nil {
		return nil, nil, errors.WrapContext(err, errors.Context{Path: "provider.RunRepo.connect"})
	}
	return postgres.NewRun(conn), conn.Close, nil
}

// Locker uses Redis when it is configured, so several processes may share the repos dir.
func Locker(ctx context.Context, cfg config.Config, logger *slog.Logger) (app.Locker, func(), error) {
	if cfg.RedisAddr == "" {
		return svc.NewMemoryLock(), func() {}, nil
	}
	client, err := redis.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, errors.WrapContext(err, errors.Context{
			Path:   "provider.Locker",
			Params: errors.Params{"addr": cfg.RedisAddr},
		})
	}
	logger.Info("mirror locks are kept in redis", "addr", cfg.RedisAddr)
	return redis.NewLock(client, logger), func() { _ = client.Close() }, nil
}
