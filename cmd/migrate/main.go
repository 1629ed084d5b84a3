package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/maroux/heroku-deployer/internal/app/config"
	"github.com/maroux/heroku-deployer/internal/app/postgres"
	"github.com/maroux/heroku-deployer/pkg/logger"
	"log/slog"
	"os"
	"time"
)

func main() {
	command := flag.String("command", "up", "migrate command (up|status|down)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	version := flag.Int64("version", 0, "target version for the down command (optional)")
	flag.Parse()

	log := logger.New("heroku-deployer-migrate", slog.LevelInfo)
	cfg, err := config.Load(os.LookupEnv)
	if err != nil {
		log.Error("failed to load the config", "error", err)
		os.Exit(1)
	}
	if !cfg.DB.Enabled() {
		log.Error("the database is not configured", "var", config.Prefix+"DB_HOST")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	m := postgres.NewMigrator(cfg.DB.DSN(), log)
	switch *command {
	case "up":
		err = m.Up(ctx)
	case "status":
		err = m.Status()
	case "down":
		err = m.Down(ctx, *version)
	default:
		err = fmt.Errorf("unsupported command %q", *command)
	}
	if err != nil {
		log.Error("migration command failed", "command", *command, "error", err)
		cancel()
		os.Exit(1)
	}
	log.Info("migration command completed", "command", *command)
}
