package app

import (
	"context"
	"time"
)

const (
	// RunOutcomeSkipped defines the outcome of an event that matched no eligible stage.
	RunOutcomeSkipped = "skipped"
	// RunOutcomeRejected defines the outcome of an invocation with an absent or incomplete target.
	RunOutcomeRejected = "rejected"
	// RunOutcomeSucceeded defines the outcome of a completed stage.
	RunOutcomeSucceeded = "succeeded"
	// RunOutcomeFailed defines the outcome of a stage that failed after the retry.
	RunOutcomeFailed = "failed"
)

// Run is a record of one promotion invocation.
type Run struct {
	ID         string    `json:"id"`
	Target     string    `json:"target"`
	Stage      string    `json:"stage"`
	Ref        string    `json:"ref"`
	DryRun     bool      `json:"dryRun"`
	Outcome    string    `json:"outcome"`
	Attempts   int       `json:"attempts"`
	ErrorMsg   *string   `json:"errorMsg"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Err        error     `json:"-"`
}

// RunRepo describes interactions with the run history storage.
type RunRepo interface {
	Add(ctx context.Context, r Run) error
	FindLatest(ctx context.Context, limit int) ([]Run, error)
}

// MetricsSvc collects the promotion metrics.
type MetricsSvc interface {
	ObserveRun(r Run)
	ObserveCommand(op string, ok bool, d time.Duration)
}

// StatusSvc publishes the health of the targets.
type StatusSvc interface {
	Report(target string, ok bool)
}
