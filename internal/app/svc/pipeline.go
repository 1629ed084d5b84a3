package svc

import (
	"context"
	"fmt"
	"github.com/beldeveloper/go-errors-context"
	"github.com/maroux/heroku-deployer/internal/app"
	"github.com/maroux/heroku-deployer/internal/app/errtype"
	"log/slog"
)

// MergeMessage is the commit message template of the promotion merges.
const MergeMessage = "Merge branch '%s' into %s"

// NewPipeline creates a new instance of the promotion pipeline.
func NewPipeline(mirrors app.MirrorSvc, logger *slog.Logger) app.PipelineSvc {
	return Pipeline{mirrors: mirrors, logger: logger}
}

// Pipeline runs the promotion stages step by step.
type Pipeline struct {
	mirrors app.MirrorSvc
	logger  *slog.Logger
}

// Run performs one attempt of the stage.
func (p Pipeline) Run(ctx context.Context, t app.Target, remotes app.Remotes, stage string, dryRun bool) error {
	m, err := p.mirrors.EnsureCloned(ctx, t, remotes)
	if err != nil {
		return errors.WrapContext(err, errors.Context{
			Path:   "svc.Pipeline.Run.EnsureCloned",
			Params: errors.Params{"target": t.Name, "stage": stage},
		})
	}
	switch stage {
	case app.StageDirect:
		err = p.direct(ctx, m, t, remotes, dryRun)
	case app.StageStaging:
		err = p.staging(ctx, m, t, remotes, dryRun)
	case app.StageMaster:
		err = p.master(ctx, m, t, remotes, dryRun)
	default:
		err = fmt.Errorf("%w: unknown stage %s", errtype.ErrConfiguration, stage)
	}
	return errors.WrapContext(err, errors.Context{
		Path:   "svc.Pipeline.Run",
		Params: errors.Params{"target": t.Name, "stage": stage},
	})
}

func (p Pipeline) direct(ctx context.Context, m app.Mirror, t app.Target, remotes app.Remotes, dryRun bool) error {
	b := t.Branches.Deploy
	if err := p.mirrors.SyncBranch(ctx, m, b); err != nil {
		return err
	}
	return p.push(ctx, m, remotes, app.RemoteDeploy, b, app.DeployRemoteBranch, app.PushOptions{Force: true, DryRun: dryRun})
}

func (p Pipeline) staging(ctx context.Context, m app.Mirror, t app.Target, remotes app.Remotes, dryRun bool) error {
	next, staging := t.Branches.Next, t.Branches.Staging
	if err := p.promote(ctx, m, next, staging); err != nil {
		return err
	}
	if err := p.push(ctx, m, remotes, app.RemoteOrigin, staging, staging, app.PushOptions{DryRun: dryRun}); err != nil {
		return err
	}
	return p.push(ctx, m, remotes, app.RemoteDeployStage, staging, app.DeployRemoteBranch, app.PushOptions{Force: true, DryRun: dryRun})
}

// master promotes staging into master and then re-aligns staging with next.
func (p Pipeline) master(ctx context.Context, m app.Mirror, t app.Target, remotes app.Remotes, dryRun bool) error {
	staging, master := t.Branches.Staging, t.Branches.Master
	if err := p.promote(ctx, m, staging, master); err != nil {
		return err
	}
	if err := p.push(ctx, m, remotes, app.RemoteOrigin, master, master, app.PushOptions{DryRun: dryRun}); err != nil {
		return err
	}
	err := p.push(ctx, m, remotes, app.RemoteDeployMaster, master, app.DeployRemoteBranch, app.PushOptions{Force: true, DryRun: dryRun})
	if err != nil {
		return err
	}
	return p.staging(ctx, m, t, remotes, dryRun)
}

// promote syncs both branches and merges from into into, leaving into checked out.
func (p Pipeline) promote(ctx context.Context, m app.Mirror, from, into string) error {
	if err := p.mirrors.SyncBranch(ctx, m, from); err != nil {
		return err
	}
	if err := p.mirrors.SyncBranch(ctx, m, into); err != nil {
		return err
	}
	res, err := p.mirrors.MergeBranch(ctx, m, from, into, fmt.Sprintf(MergeMessage, from, into))
	if err != nil {
		return err
	}
	p.logger.Info("merged", "dir", m.Dir, "from", from, "into", into, "merged", res.Merged, "head", res.After)
	return nil
}

func (p Pipeline) push(ctx context.Context, m app.Mirror, remotes app.Remotes, name, local, remote string, opts app.PushOptions) error {
	r, ok := remotes.ByName(name)
	if !ok {
		return errors.WrapContext(fmt.Errorf("%w: remote %s is not resolved", errtype.ErrConfiguration, name), errors.Context{
			Path: "svc.Pipeline.push",
		})
	}
	res, err := p.mirrors.Push(ctx, m, r, local, remote, opts)
	p.logger.Info("push result",
		"remote", res.Remote,
		"local", res.LocalBranch,
		"remoteBranch", res.RemoteBranch,
		"force", res.Force,
		"dryRun", res.DryRun,
		"ok", res.OK,
	)
	return err
}
