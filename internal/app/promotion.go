package app

import (
	"context"
	"time"
)

// RefPrefix is the prefix of the branch refs in push events.
const RefPrefix = "refs/heads/"

const (
	// StageDirect defines the single-branch deploy.
	StageDirect = "direct"
	// StageStaging defines the next -> staging promotion.
	StageStaging = "staging"
	// StageMaster defines the staging -> master promotion.
	StageMaster = "master"
)

// Event is a push event (or its synthetic counterpart built for manual invocation).
type Event struct {
	Ref string    `json:"ref"`
	At  time.Time `json:"-"`
}

// Decision is the policy verdict for an event.
type Decision struct {
	Stage    string
	Eligible bool
	Reason   string
}

// Job is a queued deployment request.
type Job struct {
	Target string
	Event  Event
}

// DispatcherConfig holds the settings of the asynchronous job queue.
type DispatcherConfig struct {
	Workers   int
	QueueSize int
}

// PolicySvc decides whether an event triggers a promotion stage.
type PolicySvc interface {
	Decide(t Target, e Event) Decision
}

// PipelineSvc runs one attempt of a promotion stage.
type PipelineSvc interface {
	Run(ctx context.Context, t Target, remotes Remotes, stage string, dryRun bool) error
}

// DeployerSvc is the entrypoint of every promotion.
// The methods never fail: the outcome is reported in the returned run.
type DeployerSvc interface {
	Deploy(ctx context.Context, target string, e Event) Run
	PromoteMaster(ctx context.Context, target string, dryRun bool) Run
	SyncStaging(ctx context.Context, target string) Run
}

// DispatcherSvc accepts deployment jobs for asynchronous execution.
type DispatcherSvc interface {
	Enqueue(j Job) error
}
