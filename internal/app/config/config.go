// Package config loads the process settings and the deployment targets from the environment.
package config

import (
	"fmt"
	"github.com/beldeveloper/go-errors-context"
	"github.com/maroux/heroku-deployer/internal/app"
	"github.com/maroux/heroku-deployer/internal/app/errtype"
	"github.com/maroux/heroku-deployer/pkg/logger"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Prefix is the prefix of the process-wide variables.
const Prefix = "PROMOTER_"

// Lookup returns the value of the variable; os.LookupEnv satisfies it.
type Lookup func(key string) (string, bool)

// DB holds the optional run store connection settings.
type DB struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Enabled tells whether the run store is configured.
func (db DB) Enabled() bool {
	return db.Host != ""
}

// DSN returns the connection string in the key/value format accepted by pgx.
func (db DB) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		db.Host,
		db.Port,
		db.User,
		db.Password,
		db.Name,
	)
}

// Config is the validated set of the process settings.
type Config struct {
	ReposDir      app.ReposDir
	HTTPPort      string
	GRPCPort      string
	AccessKey     app.ApiAccessKey
	WebhookSecret app.WebhookSecret
	DeployKey     app.DeployKey
	Dispatcher    app.DispatcherConfig
	Git           app.GitConfig
	LogLevel      slog.Level
	DB            DB
	RedisAddr     string
	TargetsFile   string
	Apps          []string
}

// Load reads the process settings. Missing variables take their defaults; malformed numbers are reported
// as errtype.ErrConfiguration.
func Load(lookup Lookup) (Config, error) {
	e := env{lookup: lookup}
	cfg := Config{
		ReposDir:      app.ReposDir(e.get(Prefix+"REPOS_DIR", "repos")),
		HTTPPort:      e.get(Prefix+"HTTP_PORT", "8080"),
		GRPCPort:      e.get(Prefix+"GRPC_PORT", "9090"),
		AccessKey:     app.ApiAccessKey(e.get(Prefix+"ACCESS_KEY", "")),
		WebhookSecret: app.WebhookSecret(e.get(Prefix+"WEBHOOK_SECRET", "")),
		Git: app.GitConfig{
			UserName:  e.get(Prefix+"GIT_USER_NAME", "heroku-deployer"),
			UserEmail: e.get(Prefix+"GIT_USER_EMAIL", "heroku-deployer@localhost"),
		},
		LogLevel: logger.ParseLevel(e.get(Prefix+"LOG_LEVEL", "info")),
		DB: DB{
			Host:     e.get(Prefix+"DB_HOST", ""),
			Port:     e.get(Prefix+"DB_PORT", "5432"),
			User:     e.get(Prefix+"DB_USER", ""),
			Password: e.get(Prefix+"DB_PASSWORD", ""),
			Name:     e.get(Prefix+"DB_NAME", ""),
		},
		RedisAddr:   e.get(Prefix+"REDIS_ADDR", ""),
		TargetsFile: e.get(Prefix+"TARGETS_FILE", ""),
	}
	for _, name := range strings.Split(e.get(Prefix+"APPS", ""), ",") {
		if name = strings.TrimSpace(name); name != "" {
			cfg.Apps = append(cfg.Apps, name)
		}
	}
	var err error
	if cfg.Dispatcher.Workers, err = e.int(Prefix+"WORKERS", 2); err != nil {
		return cfg, err
	}
	if cfg.Dispatcher.QueueSize, err = e.int(Prefix+"QUEUE_SIZE", 32); err != nil {
		return cfg, err
	}
	timeout, err := e.int(Prefix+"GIT_TIMEOUT_SECONDS", 120)
	if err != nil {
		return cfg, err
	}
	cfg.Git.Timeout = time.Duration(timeout) * time.Second
	deployKey, err := ReadKey(e.get("DEPLOY_SSH_KEY", ""))
	if err != nil {
		return cfg, errors.WrapContext(err, errors.Context{
			Path:   "config.Load.deployKey",
			Params: errors.Params{"var": "DEPLOY_SSH_KEY"},
		})
	}
	cfg.DeployKey = app.DeployKey(deployKey)
	return cfg, nil
}

type env struct {
	lookup Lookup
}

// get returns the trimmed value or the default when the variable is unset or blank.
func (e env) get(key, def string) string {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

func (e env) int(key string, def int) (int, error) {
	v := e.get(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.WrapContext(fmt.Errorf("%w: %s must be a non-negative integer", errtype.ErrConfiguration, key), errors.Context{
			Path:   "config.env.int",
			Params: errors.Params{"var": key, "value": v},
		})
	}
	return n, nil
}
