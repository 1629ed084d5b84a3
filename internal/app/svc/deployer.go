package svc

import (
	"context"
	"github.com/beldeveloper/go-errors-context"
	"github.com/google/uuid"
	"github.com/maroux/heroku-deployer/internal/app"
	"log/slog"
	"time"
)

// NewDeployer creates a new instance of the deployer, the entrypoint of every promotion.
func NewDeployer(
	targets app.TargetRepo,
	remotes app.RemoteSvc,
	policy app.PolicySvc,
	pipeline app.PipelineSvc,
	mirrors app.MirrorSvc,
	retry Retry,
	runs app.RunRepo,
	metrics app.MetricsSvc,
	status app.StatusSvc,
	logger *slog.Logger,
) app.DeployerSvc {
	return Deployer{
		targets:  targets,
		remotes:  remotes,
		policy:   policy,
		pipeline: pipeline,
		mirrors:  mirrors,
		retry:    retry,
		runs:     runs,
		metrics:  metrics,
		status:   status,
		logger:   logger,
		now:      time.Now,
	}
}

// Deployer gates the events and runs the stages under the retry shell.
type Deployer struct {
	targets  app.TargetRepo
	remotes  app.RemoteSvc
	policy   app.PolicySvc
	pipeline app.PipelineSvc
	mirrors  app.MirrorSvc
	retry    Retry
	runs     app.RunRepo
	metrics  app.MetricsSvc
	status   app.StatusSvc
	logger   *slog.Logger
	now      func() time.Time
}

// Deploy handles a push event of the target.
func (s Deployer) Deploy(ctx context.Context, target string, e app.Event) app.Run {
	if e.At.IsZero() {
		e.At = s.now()
	}
	run := s.newRun(target, e.Ref, false)
	t, err := s.targets.FindByName(ctx, target)
	if err != nil {
		return s.finish(ctx, run, app.RunOutcomeRejected, err)
	}
	d := s.policy.Decide(t, e)
	run.Stage = d.Stage
	if !d.Eligible {
		s.logger.Info("event ignored", "run", run.ID, "target", target, "ref", e.Ref, "reason", d.Reason)
		return s.finish(ctx, run, app.RunOutcomeSkipped, nil)
	}
	return s.execute(ctx, run, t)
}

// PromoteMaster merges staging into master, pushes it and re-aligns staging. It isn't window gated.
func (s Deployer) PromoteMaster(ctx context.Context, target string, dryRun bool) app.Run {
	run := s.newRun(target, "", dryRun)
	run.Stage = app.StageMaster
	t, err := s.targets.FindByName(ctx, target)
	if err != nil {
		return s.finish(ctx, run, app.RunOutcomeRejected, err)
	}
	run.Ref = app.RefPrefix + t.Branches.Staging
	return s.execute(ctx, run, t)
}

// SyncStaging handles a synthetic push event of the next branch, with the usual gating.
func (s Deployer) SyncStaging(ctx context.Context, target string) app.Run {
	t, err := s.targets.FindByName(ctx, target)
	if err != nil {
		run := s.newRun(target, app.RefPrefix+app.DefaultNextBranch, false)
		run.Stage = app.StageStaging
		return s.finish(ctx, run, app.RunOutcomeRejected, err)
	}
	return s.Deploy(ctx, target, app.Event{Ref: app.RefPrefix + t.Branches.Next, At: s.now()})
}

func (s Deployer) execute(ctx context.Context, run app.Run, t app.Target) app.Run {
	remotes, err := s.remotes.Resolve(t, run.Stage)
	if err != nil {
		return s.finish(ctx, run, app.RunOutcomeRejected, err)
	}
	s.logger.Info("promotion started", "run", run.ID, "target", t.Name, "stage", run.Stage, "dryRun", run.DryRun)
	run.Attempts, err = s.retry.Do(ctx, s.mirrors.Path(t), func(ctx context.Context) error {
		return s.pipeline.Run(ctx, t, remotes, run.Stage, run.DryRun)
	})
	if err != nil {
		return s.finish(ctx, run, app.RunOutcomeFailed, err)
	}
	return s.finish(ctx, run, app.RunOutcomeSucceeded, nil)
}

func (s Deployer) newRun(target, ref string, dryRun bool) app.Run {
	return app.Run{
		ID:        uuid.NewString(),
		Target:    target,
		Ref:       ref,
		DryRun:    dryRun,
		StartedAt: s.now(),
	}
}

// finish records the outcome. It is the only exit of every invocation and always logs "done".
func (s Deployer) finish(ctx context.Context, run app.Run, outcome string, err error) app.Run {
	run.Outcome = outcome
	run.FinishedAt = s.now()
	if err != nil {
		run.Err = err
		msg := err.Error()
		run.ErrorMsg = &msg
	}
	if addErr := s.runs.Add(context.WithoutCancel(ctx), run); addErr != nil {
		s.logger.Warn("run is not saved", "run", run.ID, "error", errors.WrapContext(addErr, errors.Context{
			Path: "svc.Deployer.finish.Add",
		}))
	}
	s.metrics.ObserveRun(run)
	switch outcome {
	case app.RunOutcomeSucceeded:
		s.status.Report(run.Target, true)
	case app.RunOutcomeFailed:
		s.status.Report(run.Target, false)
	}
	attrs := []any{
		"run", run.ID,
		"target", run.Target,
		"stage", run.Stage,
		"ref", run.Ref,
		"outcome", run.Outcome,
		"attempts", run.Attempts,
		"duration", run.FinishedAt.Sub(run.StartedAt),
	}
	if err != nil {
		s.logger.Error("done", append(attrs, "error", err)...)
		return run
	}
	s.logger.Info("done", attrs...)
	return run
}
