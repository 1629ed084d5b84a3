package svc

import (
	"context"
	"github.com/beldeveloper/go-errors-context"
	"github.com/maroux/heroku-deployer/internal/app"
	"log/slog"
)

// MaxAttempts is the number of times a stage is attempted; the mirror is wiped between attempts.
const MaxAttempts = 2

// NewRetry creates a new instance of the retry shell.
func NewRetry(mirrors app.MirrorSvc, locker app.Locker, logger *slog.Logger) Retry {
	return Retry{mirrors: mirrors, locker: locker, logger: logger}
}

// Retry supervises the stage attempts of one mirror.
type Retry struct {
	mirrors app.MirrorSvc
	locker  app.Locker
	logger  *slog.Logger
}

// Do runs the attempt while holding the mirror lock. After a failure the mirror directory is removed
// and the attempt is repeated once. The returned error is the last attempt's error; the caller absorbs it.
func (r Retry) Do(ctx context.Context, dir string, attempt func(ctx context.Context) error) (int, error) {
	unlock, err := r.locker.Lock(ctx, dir)
	if err != nil {
		return 0, errors.WrapContext(err, errors.Context{
			Path:   "svc.Retry.Do.Lock",
			Params: errors.Params{"dir": dir},
		})
	}
	defer unlock()
	var attempts int
	for {
		attempts++
		err = attempt(ctx)
		if err == nil {
			return attempts, nil
		}
		if attempts >= MaxAttempts {
			r.logger.Error("attempt failed, giving up", "dir", dir, "attempt", attempts, "error", err)
			return attempts, err
		}
		if ctx.Err() != nil {
			r.logger.Error("attempt failed, context is done", "dir", dir, "attempt", attempts, "error", err)
			return attempts, err
		}
		r.logger.Warn("attempt failed, wiping the mirror", "dir", dir, "attempt", attempts, "error", err)
		if cleanupErr := r.mirrors.Remove(ctx, dir); cleanupErr != nil {
			r.logger.Warn("cleanup failed", "dir", dir, "error", cleanupErr)
		}
	}
}
