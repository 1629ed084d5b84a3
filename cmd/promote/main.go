package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/beldeveloper/go-errors-context"
	"github.com/maroux/heroku-deployer/internal/app"
	"github.com/maroux/heroku-deployer/internal/app/config"
	"github.com/maroux/heroku-deployer/internal/app/errtype"
	"github.com/maroux/heroku-deployer/internal/app/metrics"
	"github.com/maroux/heroku-deployer/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const (
	cmdPromoteMaster = "promote-to-master"
	cmdSyncStaging   = "sync-staging"
)

const usage = `Usage: promote [-app <name>] <command> [options]

Commands:
  promote-to-master [--dry-run]  merge staging into master, deploy master and re-align staging with next
  sync-staging                   merge next into staging and deploy staging (promotion window applies)

Options:
  -app <name>  target name (default $PROMOTER_APP)
`

type command struct {
	name   string
	target string
	dryRun bool
}

func main() {
	cmd, code, ok := parse(os.Args[1:], os.Getenv("PROMOTER_APP"), os.Stderr)
	if !ok {
		os.Exit(code)
	}
	cfg, err := config.Load(os.LookupEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "main: config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New("heroku-deployer-cli", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	c, cleanup, err := initializeContainer(ctx, cfg, log)
	if err != nil {
		log.Error("main: initialize", "error", err)
		os.Exit(1)
	}
	code = execute(ctx, c.deployer, cmd, os.Stdout)
	cleanup()
	os.Exit(code)
}

// parse reads the arguments. When ok is false the process exits with the code right away.
func parse(args []string, defaultApp string, stderr io.Writer) (command, int, bool) {
	var cmd command
	fs := flag.NewFlagSet("promote", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	fs.StringVar(&cmd.target, "app", defaultApp, "target name")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return cmd, 0, false
		}
		return cmd, 2, false
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return cmd, 0, false
	}
	cmd.name = fs.Arg(0)
	sub := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	sub.SetOutput(stderr)
	sub.Usage = fs.Usage
	switch cmd.name {
	case cmdPromoteMaster:
		sub.BoolVar(&cmd.dryRun, "dry-run", false, "merge locally without pushing")
	case cmdSyncStaging:
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd.name)
		fs.Usage()
		return cmd, 2, false
	}
	if err := sub.Parse(fs.Args()[1:]); err != nil {
		if err == flag.ErrHelp {
			return cmd, 0, false
		}
		return cmd, 2, false
	}
	if sub.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments %v\n\n", sub.Args())
		fs.Usage()
		return cmd, 2, false
	}
	return cmd, 0, true
}

// execute runs the command. The pipeline never fails the process: the outcome is printed and logged.
func execute(ctx context.Context, d app.DeployerSvc, cmd command, stdout io.Writer) int {
	var run app.Run
	switch cmd.name {
	case cmdPromoteMaster:
		run = d.PromoteMaster(ctx, cmd.target, cmd.dryRun)
	case cmdSyncStaging:
		run = d.SyncStaging(ctx, cmd.target)
	}
	if run.Outcome == app.RunOutcomeRejected &&
		(errors.Is(run.Err, errtype.ErrNotFound) || errors.Is(run.Err, errtype.ErrConfiguration)) {
		fmt.Fprintln(stdout, "no app found")
		return 0
	}
	fmt.Fprintf(stdout, "%s %s: %s (attempts: %d)\n", cmd.name, cmd.target, run.Outcome, run.Attempts)
	return 0
}

type container struct {
	deployer app.DeployerSvc
}

func newContainer(deployer app.DeployerSvc) container {
	return container{deployer: deployer}
}

// newMetrics keeps the CLI metrics in a private registry, nothing scrapes them.
func newMetrics() app.MetricsSvc {
	return metrics.New(prometheus.NewRegistry())
}
