package svc

import (
	"context"
	"fmt"
	"github.com/maroux/heroku-deployer/internal/app"
	"github.com/maroux/heroku-deployer/internal/app/errtype"
	"github.com/maroux/heroku-deployer/pkg/logger"
	"strings"
	"sync"
	"time"
)

var testLogger = logger.Discard()

// fakeMirrors records every mirror operation as a short string.
type fakeMirrors struct {
	mu       sync.Mutex
	calls    []string
	pushes   []app.PushResult
	failOn   map[string]int
	failWith error
}

func (f *fakeMirrors) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if n := f.failOn[call]; n > 0 {
		f.failOn[call] = n - 1
		if f.failWith != nil {
			return f.failWith
		}
		return fmt.Errorf("%w: injected failure on %s", errtype.ErrSync, call)
	}
	return nil
}

func (f *fakeMirrors) Path(t app.Target) string {
	return "repos/" + t.Name
}

func (f *fakeMirrors) EnsureCloned(_ context.Context, t app.Target, remotes app.Remotes) (app.Mirror, error) {
	names := make([]string, len(remotes))
	for i, r := range remotes {
		names[i] = r.Name
	}
	err := f.record("clone " + strings.Join(names, ","))
	return app.Mirror{Dir: f.Path(t), SourceURL: t.SourceURL, Credential: t.SourceKey}, err
}

func (f *fakeMirrors) SyncBranch(_ context.Context, _ app.Mirror, branch string) error {
	return f.record("sync " + branch)
}

func (f *fakeMirrors) MergeBranch(_ context.Context, _ app.Mirror, from, into, message string) (app.MergeResult, error) {
	err := f.record(fmt.Sprintf("merge %s->%s %q", from, into, message))
	return app.MergeResult{From: from, Into: into, Merged: err == nil}, err
}

func (f *fakeMirrors) Push(_ context.Context, _ app.Mirror, r app.Remote, local, remote string, opts app.PushOptions) (app.PushResult, error) {
	call := fmt.Sprintf("push %s %s:%s force=%v dry=%v cred=%s", r.Name, local, remote, opts.Force, opts.DryRun, r.Credential.Name)
	res := app.PushResult{Remote: r.Name, LocalBranch: local, RemoteBranch: remote, Force: opts.Force, DryRun: opts.DryRun}
	err := f.record(call)
	res.OK = err == nil
	if err == nil && !opts.DryRun {
		f.mu.Lock()
		f.pushes = append(f.pushes, res)
		f.mu.Unlock()
	}
	return res, err
}

func (f *fakeMirrors) Remove(_ context.Context, dir string) error {
	return f.record("remove " + dir)
}

func (f *fakeMirrors) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeTargets struct {
	targets map[string]app.Target
	err     error
}

func (f fakeTargets) FindByName(_ context.Context, name string) (app.Target, error) {
	if f.err != nil {
		return app.Target{}, f.err
	}
	t, ok := f.targets[name]
	if !ok {
		return t, fmt.Errorf("%w: target %s", errtype.ErrNotFound, name)
	}
	return t, nil
}

func (f fakeTargets) FindAll(_ context.Context) ([]app.Target, error) {
	res := make([]app.Target, 0, len(f.targets))
	for _, t := range f.targets {
		res = append(res, t)
	}
	return res, nil
}

type nopMetrics struct {
	mu   sync.Mutex
	runs []app.Run
}

func (m *nopMetrics) ObserveRun(r app.Run) {
	m.mu.Lock()
	m.runs = append(m.runs, r)
	m.mu.Unlock()
}

func (m *nopMetrics) ObserveCommand(string, bool, time.Duration) {}

type fakeStatus struct {
	mu      sync.Mutex
	reports map[string]bool
}

func (s *fakeStatus) Report(target string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reports == nil {
		s.reports = make(map[string]bool)
	}
	s.reports[target] = ok
}

// countingLock wraps a locker and counts the acquisitions and releases.
type countingLock struct {
	inner    app.Locker
	mu       sync.Mutex
	locked   int
	unlocked int
	keys     []string
}

func (l *countingLock) Lock(ctx context.Context, key string) (func(), error) {
	unlock, err := l.inner.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.locked++
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.unlocked++
		l.mu.Unlock()
		unlock()
	}, nil
}

func singleTarget() app.Target {
	return app.Target{
		Name:      "api",
		Variant:   app.TargetVariantSingle,
		SourceURL: "git@github.com:acme/api.git",
		SourceKey: app.Credential{Name: "api"},
		DeployURL: "git@heroku.com:acme-api.git",
		Branches:  app.Branches{Deploy: "master"},
	}
}

func pipelineTarget() app.Target {
	return app.Target{
		Name:      "web",
		Variant:   app.TargetVariantPipeline,
		SourceURL: "git@github.com:acme/web.git",
		SourceKey: app.Credential{Name: "web"},
		StageURL:  "git@heroku.com:acme-web-staging.git",
		MasterURL: "git@heroku.com:acme-web.git",
		Branches:  app.Branches{Next: "next", Staging: "staging", Master: "master"},
	}
}

// pacific returns the instant of the given wall clock time in UTC-08:00.
func pacific(hour, min, sec int) time.Time {
	return time.Date(2024, time.March, 4, hour, min, sec, 0, time.FixedZone("UTC-8", WindowOffset))
}
