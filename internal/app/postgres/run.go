package postgres

import (
	"context"
	"github.com/beldeveloper/go-errors-context"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/maroux/heroku-deployer/internal/app"
)

// NewRun creates a new instance of the run history repository.
func NewRun(conn *pgxpool.Pool) app.RunRepo {
	return Run{conn: conn}
}

// Run implements a repository.
type Run struct {
	conn *pgxpool.Pool
}

// Add saves the finished run.
func (r Run) Add(ctx context.Context, run app.Run) error {
	q := `INSERT INTO "runs" ("id", "target", "stage", "ref", "dry_run", "outcome", "attempts", "error", "started_at", "finished_at")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.conn.Exec(
		ctx,
		q,
		run.ID,
		run.Target,
		run.Stage,
		run.Ref,
		run.DryRun,
		run.Outcome,
		run.Attempts,
		run.ErrorMsg,
		run.StartedAt,
		run.FinishedAt,
	)
	return errors.WrapContext(err, errors.Context{
		Path:   "postgres.Run.Add.Exec",
		Params: errors.Params{"run": run.ID},
	})
}

// FindLatest returns up to limit runs, newest first.
func (r Run) FindLatest(ctx context.Context, limit int) ([]app.Run, error) {
	q := `SELECT "id", "target", "stage", "ref", "dry_run", "outcome", "attempts", "error", "started_at", "finished_at"
		FROM "runs" ORDER BY "started_at" DESC LIMIT $1`
	rows, err := r.conn.Query(ctx, q, limit)
	if err != nil {
		return nil, errors.WrapContext(err, errors.Context{Path: "postgres.Run.FindLatest.Query"})
	}
	defer rows.Close()
	res := make([]app.Run, 0)
	var run app.Run
	for rows.Next() {
		run.ErrorMsg = nil
		err = rows.Scan(
			&run.ID,
			&run.Target,
			&run.Stage,
			&run.Ref,
			&run.DryRun,
			&run.Outcome,
			&run.Attempts,
			&run.ErrorMsg,
			&run.StartedAt,
			&run.FinishedAt,
		)
		if err != nil {
			return nil, errors.WrapContext(err, errors.Context{Path: "postgres.Run.FindLatest.Scan"})
		}
		res = append(res, run)
	}
	return res, errors.WrapContext(rows.Err(), errors.Context{Path: "postgres.Run.FindLatest.Rows"})
}
