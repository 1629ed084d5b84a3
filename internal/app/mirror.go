package app

import (
	"context"
	"time"
)

const (
	// RemoteOrigin is the source-control remote the mirror is cloned from.
	RemoteOrigin = "origin"
	// RemoteDeploy is the deployment remote of single targets.
	RemoteDeploy = "deploy"
	// RemoteDeployStage is the staging deployment remote of pipeline targets.
	RemoteDeployStage = "deploy-stage"
	// RemoteDeployMaster is the production deployment remote of pipeline targets.
	RemoteDeployMaster = "deploy-master"

	// DeployRemoteBranch is the branch every deployment remote receives.
	DeployRemoteBranch = "master"
)

// ReposDir is a data type for storing the mirrors' directory, used for DI.
type ReposDir string

// GitConfig holds the settings of the git command execution.
type GitConfig struct {
	Timeout   time.Duration
	UserName  string
	UserEmail string
}

// Remote is a named git remote together with the credential required to talk to it.
type Remote struct {
	Name       string
	URL        string
	Credential Credential
}

// Remotes is an ordered list of remotes.
type Remotes []Remote

// ByName returns the remote with the specific name.
func (rs Remotes) ByName(name string) (Remote, bool) {
	for _, r := range rs {
		if r.Name == name {
			return r, true
		}
	}
	return Remote{}, false
}

// Mirror is a local working copy of a source repository.
type Mirror struct {
	Dir        string
	SourceURL  string
	Credential Credential
}

// PushOptions modifies the push behaviour.
type PushOptions struct {
	Force  bool
	DryRun bool
}

// PushResult is the outcome of one push attempt.
type PushResult struct {
	Remote       string
	LocalBranch  string
	RemoteBranch string
	Force        bool
	DryRun       bool
	OK           bool
	Output       string
}

// MergeResult is the outcome of a merge between two local branches.
type MergeResult struct {
	From   string
	Into   string
	Before string
	After  string
	Merged bool
}

// MirrorSvc describes the operations on the local mirrors.
type MirrorSvc interface {
	Path(t Target) string
	EnsureCloned(ctx context.Context, t Target, remotes Remotes) (Mirror, error)
	SyncBranch(ctx context.Context, m Mirror, branch string) error
	MergeBranch(ctx context.Context, m Mirror, from, into, message string) (MergeResult, error)
	Push(ctx context.Context, m Mirror, r Remote, local, remote string, opts PushOptions) (PushResult, error)
	Remove(ctx context.Context, dir string) error
}

// RemoteSvc resolves the remotes required by a promotion stage.
type RemoteSvc interface {
	Resolve(t Target, stage string) (Remotes, error)
}

// Locker provides exclusive access to a named resource.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
