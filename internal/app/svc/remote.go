package svc

import (
	"fmt"
	"github.com/beldeveloper/go-errors-context"
	"github.com/maroux/heroku-deployer/internal/app"
	"github.com/maroux/heroku-deployer/internal/app/errtype"
)

// DeployCredentialName names the process-wide deployment key in the logs.
const DeployCredentialName = "deploy"

// NewRemotes creates a new instance of the remote registry.
func NewRemotes(deployKey app.DeployKey) app.RemoteSvc {
	return Remotes{deployKey: string(deployKey)}
}

// Remotes resolves the remotes of the promotion stages.
// Origin is always first and authenticates with the target's source key;
// deployment remotes authenticate with the process-wide deploy key.
type Remotes struct {
	deployKey string
}

// Resolve returns the remotes the stage pushes to, without touching the mirror.
func (s Remotes) Resolve(t app.Target, stage string) (app.Remotes, error) {
	if t.SourceURL == "" {
		return nil, s.missing(t, stage, "source repository")
	}
	if s.deployKey == "" {
		return nil, s.missing(t, stage, "deploy key")
	}
	deployCred := app.Credential{Name: DeployCredentialName, PrivateKey: s.deployKey}
	res := app.Remotes{{Name: app.RemoteOrigin, URL: t.SourceURL, Credential: t.SourceKey}}
	switch {
	case stage == app.StageDirect && t.Variant == app.TargetVariantSingle:
		if t.DeployURL == "" {
			return nil, s.missing(t, stage, "deployment remote")
		}
		res = append(res, app.Remote{Name: app.RemoteDeploy, URL: t.DeployURL, Credential: deployCred})
	case stage == app.StageStaging && t.Variant == app.TargetVariantPipeline:
		if t.StageURL == "" {
			return nil, s.missing(t, stage, "staging deployment remote")
		}
		res = append(res, app.Remote{Name: app.RemoteDeployStage, URL: t.StageURL, Credential: deployCred})
	case stage == app.StageMaster && t.Variant == app.TargetVariantPipeline:
		if t.MasterURL == "" {
			return nil, s.missing(t, stage, "master deployment remote")
		}
		if t.StageURL == "" {
			return nil, s.missing(t, stage, "staging deployment remote")
		}
		res = append(res,
			app.Remote{Name: app.RemoteDeployMaster, URL: t.MasterURL, Credential: deployCred},
			app.Remote{Name: app.RemoteDeployStage, URL: t.StageURL, Credential: deployCred},
		)
	default:
		return nil, errors.WrapContext(
			fmt.Errorf("%w: stage %s is not supported by %s targets", errtype.ErrConfiguration, stage, t.Variant),
			errors.Context{Path: "svc.Remotes.Resolve", Params: errors.Params{"target": t.Name}},
		)
	}
	return res, nil
}

func (s Remotes) missing(t app.Target, stage, what string) error {
	return errors.WrapContext(
		fmt.Errorf("%w: %s is not configured", errtype.ErrConfiguration, what),
		errors.Context{Path: "svc.Remotes.Resolve", Params: errors.Params{"target": t.Name, "stage": stage}},
	)
}
