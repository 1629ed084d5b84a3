package metrics

import (
	"github.com/maroux/heroku-deployer/internal/app"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"testing"
	"time"
)

func TestObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg).(*Metrics)
	start := time.Now()
	m.ObserveRun(app.Run{Target: "web", Stage: app.StageStaging, Outcome: app.RunOutcomeSucceeded, Attempts: 2, StartedAt: start, FinishedAt: start.Add(time.Second)})
	m.ObserveRun(app.Run{Target: "web", Outcome: app.RunOutcomeRejected})

	if got := testutil.ToFloat64(m.runs.WithLabelValues("web", app.StageStaging, app.RunOutcomeSucceeded)); got != 1 {
		t.Fatalf("expected 1 succeeded run, got %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("web", "none", app.RunOutcomeRejected)); got != 1 {
		t.Fatalf("expected 1 rejected run, got %v", got)
	}
	if got := testutil.ToFloat64(m.attempts.WithLabelValues("web", app.StageStaging)); got != 2 {
		t.Fatalf("expected 2 attempts, got %v", got)
	}
	if got := testutil.CollectAndCount(m.runDuration); got != 1 {
		t.Fatalf("expected 1 duration series, got %d", got)
	}
}

func TestObserveCommand(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg).(*Metrics)
	m.ObserveCommand("push", true, time.Second)
	m.ObserveCommand("push", false, time.Second)
	if got := testutil.CollectAndCount(m.commands); got != 2 {
		t.Fatalf("expected 2 series, got %d", got)
	}
}

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := New(reg).(*Metrics)
	second := New(reg).(*Metrics)
	second.ObserveRun(app.Run{Target: "api", Stage: app.StageDirect, Outcome: app.RunOutcomeFailed})
	if got := testutil.ToFloat64(first.runs.WithLabelValues("api", app.StageDirect, app.RunOutcomeFailed)); got != 1 {
		t.Fatalf("expected the collectors to be shared, got %v", got)
	}
}
