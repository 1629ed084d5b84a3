package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/beldeveloper/go-errors-context"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/maroux/heroku-deployer/migrations"
	"github.com/pressly/goose/v3"
	"log/slog"
)

// MigrationsDir is the directory of the migrations inside migrations.FS.
const MigrationsDir = "."

// NewMigrator creates the run store schema manager.
func NewMigrator(dsn string, logger *slog.Logger) Migrator {
	return Migrator{dsn: dsn, logger: logger}
}

// Migrator applies the embedded goose migrations.
type Migrator struct {
	dsn    string
	logger *slog.Logger
}

// Up applies the pending migrations.
func (m Migrator) Up(ctx context.Context) error {
	return m.withDB(func(db *sql.DB) error {
		m.logger.Info("applying migrations")
		err := goose.UpContext(ctx, db, MigrationsDir)
		return errors.WrapContext(err, errors.Context{Path: "postgres.Migrator.Up"})
	})
}

// Status logs the applied and the pending migrations.
func (m Migrator) Status() error {
	return m.withDB(func(db *sql.DB) error {
		err := goose.Status(db, MigrationsDir)
		return errors.WrapContext(err, errors.Context{Path: "postgres.Migrator.Status"})
	})
}

// Down rolls back the latest migration, or every migration above the version when it is positive.
func (m Migrator) Down(ctx context.Context, version int64) error {
	return m.withDB(func(db *sql.DB) error {
		var err error
		if version > 0 {
			m.logger.Info("rolling back migrations", "version", version)
			err = goose.DownToContext(ctx, db, MigrationsDir, version)
		} else {
			m.logger.Info("rolling back the latest migration")
			err = goose.DownContext(ctx, db, MigrationsDir)
		}
		return errors.WrapContext(err, errors.Context{
			Path:   "postgres.Migrator.Down",
			Params: errors.Params{"version": version},
		})
	})
}

func (m Migrator) withDB(fn func(db *sql.DB) error) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}
	db, err := sql.Open("pgx", m.dsn)
	if err != nil {
		return errors.WrapContext(err, errors.Context{Path: "postgres.Migrator.open"})
	}
	defer db.Close()
	return fn(db)
}
