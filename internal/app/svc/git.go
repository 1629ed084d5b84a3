package svc

import (
	"context"
	"fmt"
	"github.com/beldeveloper/go-errors-context"
	"github.com/maroux/heroku-deployer/internal/app"
	"github.com/maroux/heroku-deployer/internal/app/errtype"
	"github.com/maroux/heroku-deployer/pkg/git"
	appOs "github.com/maroux/heroku-deployer/pkg/os"
	"github.com/maroux/heroku-deployer/pkg/ssh"
	"hash/crc32"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// NewGit creates a new instance of the git mirror service.
func NewGit(reposDir app.ReposDir, cfg app.GitConfig, metrics app.MetricsSvc, logger *slog.Logger) app.MirrorSvc {
	return Git{
		reposDir: string(reposDir),
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

// Git is a service that manages the local mirrors.
type Git struct {
	reposDir string
	cfg      app.GitConfig
	metrics  app.MetricsSvc
	logger   *slog.Logger
}

// Path returns the mirror directory of the target, derived from the source repository URL.
func (s Git) Path(t app.Target) string {
	sum := crc32.ChecksumIEEE([]byte(t.SourceURL))
	return filepath.Join(s.reposDir, strconv.FormatUint(uint64(sum), 10))
}

// EnsureCloned clones the source repository unless the mirror exists and registers the missing remotes.
func (s Git) EnsureCloned(ctx context.Context, t app.Target, remotes app.Remotes) (app.Mirror, error) {
	m := app.Mirror{Dir: s.Path(t), SourceURL: t.SourceURL, Credential: t.SourceKey}
	exists, err := appOs.Exists(filepath.Join(m.Dir, ".git"))
	if err != nil {
		return m, errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrSync, err), errors.Context{
			Path:   "svc.Git.EnsureCloned.exists",
			Params: errors.Params{"dir": m.Dir},
		})
	}
	if !exists {
		if err = os.MkdirAll(s.reposDir, 0o755); err != nil {
			return m, errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrSync, err), errors.Context{
				Path:   "svc.Git.EnsureCloned.mkdir",
				Params: errors.Params{"dir": s.reposDir},
			})
		}
		s.logger.Info("cloning", "target", t.Name, "dir", m.Dir)
		_, err = s.exec(ctx, "clone", m.Credential, git.Clone(t.SourceURL, m.Dir, t.CloneBranch()))
		if err != nil {
			return m, errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrSync, err), errors.Context{
				Path:   "svc.Git.EnsureCloned.clone",
				Params: errors.Params{"target": t.Name, "dir": m.Dir},
			})
		}
	}
	out, err := s.exec(ctx, "remote", app.Credential{}, git.RemoteList(m.Dir))
	if err != nil {
		return m, errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrSync, err), errors.Context{
			Path:   "svc.Git.EnsureCloned.remotes",
			Params: errors.Params{"dir": m.Dir},
		})
	}
	registered := make(map[string]bool)
	for _, name := range strings.Fields(out) {
		registered[name] = true
	}
	for _, r := range remotes {
		if r.Name == app.RemoteOrigin || registered[r.Name] {
			continue
		}
		_, err = s.exec(ctx, "remote-add", app.Credential{}, git.RemoteAdd(m.Dir, r.Name, r.URL))
		if err != nil {
			return m, errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrSync, err), errors.Context{
				Path:   "svc.Git.EnsureCloned.remoteAdd",
				Params: errors.Params{"dir": m.Dir, "remote": r.Name},
			})
		}
	}
	return m, nil
}

// SyncBranch makes the local branch equal to the fetched origin branch, discarding local commits.
func (s Git) SyncBranch(ctx context.Context, m app.Mirror, branch string) error {
	if err := git.ValidateBranch(branch); err != nil {
		return errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrSync, err), errors.Context{
			Path: "svc.Git.SyncBranch.validate",
		})
	}
	s.logger.Info("fetching", "dir", m.Dir, "branch", branch)
	steps := []struct {
		op   string
		cred app.Credential
		cmd  appOs.Cmd
	}{
		{op: "fetch", cred: m.Credential, cmd: git.Fetch(m.Dir, app.RemoteOrigin)},
		{op: "checkout", cmd: git.Checkout(m.Dir, branch)},
		{op: "reset", cmd: git.ResetHard(m.Dir, app.RemoteOrigin, branch)},
	}
	for _, step := range steps {
		if _, err := s.exec(ctx, step.op, step.cred, step.cmd); err != nil {
			return errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrSync, err), errors.Context{
				Path:   "svc.Git.SyncBranch." + step.op,
				Params: errors.Params{"dir": m.Dir, "branch": branch},
			})
		}
	}
	return nil
}

// MergeBranch merges the local branch `from` into `into` with the given commit message.
// The conflicting merge is aborted and reported as errtype.ErrMergeConflict.
func (s Git) MergeBranch(ctx context.Context, m app.Mirror, from, into, message string) (app.MergeResult, error) {
	res := app.MergeResult{From: from, Into: into}
	for _, b := range []string{from, into} {
		if err := git.ValidateBranch(b); err != nil {
			return res, errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrMergeConflict, err), errors.Context{
				Path: "svc.Git.MergeBranch.validate",
			})
		}
	}
	if _, err := s.exec(ctx, "checkout", app.Credential{}, git.Checkout(m.Dir, into)); err != nil {
		return res, errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrSync, err), errors.Context{
			Path:   "svc.Git.MergeBranch.checkout",
			Params: errors.Params{"dir": m.Dir, "branch": into},
		})
	}
	before, err := s.exec(ctx, "rev-parse", app.Credential{}, git.Head(m.Dir))
	if err != nil {
		return res, errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrSync, err), errors.Context{
			Path:   "svc.Git.MergeBranch.before",
			Params: errors.Params{"dir": m.Dir},
		})
	}
	res.Before = before
	s.logger.Info("merging", "dir", m.Dir, "from", from, "into", into)
	cmd := git.Merge(m.Dir, from, message)
	cmd.Env = s.identity()
	if _, err = s.exec(ctx, "merge", app.Credential{}, cmd); err != nil {
		if _, abortErr := s.exec(ctx, "merge-abort", app.Credential{}, git.MergeAbort(m.Dir)); abortErr != nil {
			s.logger.Warn("merge abort failed", "dir", m.Dir, "error", abortErr)
		}
		return res, errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrMergeConflict, err), errors.Context{
			Path:   "svc.Git.MergeBranch.merge",
			Params: errors.Params{"dir": m.Dir, "from": from, "into": into},
		})
	}
	after, err := s.exec(ctx, "rev-parse", app.Credential{}, git.Head(m.Dir))
	if err != nil {
		return res, errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrSync, err), errors.Context{
			Path:   "svc.Git.MergeBranch.after",
			Params: errors.Params{"dir": m.Dir},
		})
	}
	res.After = after
	res.Merged = before != after
	return res, nil
}

// Push pushes the local branch to the remote branch. A dry run only logs the command.
func (s Git) Push(ctx context.Context, m app.Mirror, r app.Remote, local, remote string, opts app.PushOptions) (app.PushResult, error) {
	res := app.PushResult{
		Remote:       r.Name,
		LocalBranch:  local,
		RemoteBranch: remote,
		Force:        opts.Force,
		DryRun:       opts.DryRun,
	}
	cmd := git.Push(m.Dir, r.Name, local, remote, opts.Force)
	if opts.DryRun {
		res.OK = true
		res.Output = "dry run: " + cmd.String()
		s.logger.Info("pushing (dry run)", "dir", m.Dir, "remote", r.Name, "args", cmd.Args)
		return res, nil
	}
	s.logger.Info("pushing", "dir", m.Dir, "remote", r.Name, "local", local, "remoteBranch", remote, "force", opts.Force)
	out, err := s.exec(ctx, "push", r.Credential, cmd)
	res.Output = out
	if err != nil {
		return res, errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrPush, err), errors.Context{
			Path:   "svc.Git.Push",
			Params: errors.Params{"dir": m.Dir, "remote": r.Name, "local": local, "remoteBranch": remote},
		})
	}
	res.OK = true
	return res, nil
}

// Remove deletes the mirror directory.
func (s Git) Remove(ctx context.Context, dir string) error {
	err := appOs.RemoveDir(s.reposDir, dir)
	if err != nil {
		return errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrCleanup, err), errors.Context{
			Path:   "svc.Git.Remove",
			Params: errors.Params{"dir": dir},
		})
	}
	s.logger.Info("mirror removed", "dir", dir)
	return nil
}

func (s Git) exec(ctx context.Context, op string, c app.Credential, cmd appOs.Cmd) (string, error) {
	cmd.Timeout = s.cfg.Timeout
	start := time.Now()
	var out string
	err := ssh.With(c.PrivateKey, func(env []string) error {
		cmd.Env = append(cmd.Env, env...)
		var err error
		out, err = appOs.Exec(ctx, cmd)
		return err
	})
	d := time.Since(start)
	s.metrics.ObserveCommand(op, err == nil, d)
	attrs := []any{"op", op, "args", redact(cmd.Args), "dir", cmd.Dir, "duration", d, "ok", err == nil}
	if c.Name != "" {
		attrs = append(attrs, "credential", c.Name)
	}
	if err != nil {
		s.logger.Warn("git command failed", append(attrs, "error", redactText(err.Error()))...)
		return out, err
	}
	s.logger.Debug("git command", append(attrs, "output", redactText(out))...)
	return out, nil
}

func (s Git) identity() []string {
	return []string{
		"GIT_AUTHOR_NAME=" + s.cfg.UserName,
		"GIT_AUTHOR_EMAIL=" + s.cfg.UserEmail,
		"GIT_COMMITTER_NAME=" + s.cfg.UserName,
		"GIT_COMMITTER_EMAIL=" + s.cfg.UserEmail,
	}
}

// redact hides the passwords of the URLs passed as arguments.
func redact(args []string) []string {
	res := make([]string, len(args))
	for i, a := range args {
		res[i] = redactText(a)
	}
	return res
}

func redactText(s string) string {
	fields := strings.Fields(s)
	for _, f := range fields {
		u, err := url.Parse(f)
		if err != nil || u.User == nil {
			continue
		}
		if _, ok := u.User.Password(); ok {
			s = strings.ReplaceAll(s, f, u.Redacted())
		}
	}
	return s
}
