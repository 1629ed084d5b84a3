package svc

import (
	"context"
	"github.com/beldeveloper/go-errors-context"
	"github.com/maroux/heroku-deployer/internal/app"
	"github.com/maroux/heroku-deployer/internal/app/errtype"
	"log/slog"
	"sync"
)

// NewDispatcher creates a new instance of the job dispatcher.
func NewDispatcher(cfg app.DispatcherConfig, deployer app.DeployerSvc, logger *slog.Logger) Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	return Dispatcher{
		jobs:     make(chan app.Job, cfg.QueueSize),
		workers:  cfg.Workers,
		deployer: deployer,
		logger:   logger,
	}
}

// Dispatcher runs the queued deployments with a fixed number of workers.
type Dispatcher struct {
	jobs     chan app.Job
	workers  int
	deployer app.DeployerSvc
	logger   *slog.Logger
}

// Enqueue adds the job to the queue without blocking.
func (s Dispatcher) Enqueue(j app.Job) error {
	select {
	case s.jobs <- j:
		s.logger.Info("job enqueued", "target", j.Target, "ref", j.Event.Ref)
		return nil
	default:
		return errors.WrapContext(errtype.ErrQueueFull, errors.Context{
			Path:   "svc.Dispatcher.Enqueue",
			Params: errors.Params{"target": j.Target},
		})
	}
}

// Run processes the jobs until the context is done.
func (s Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			s.work(ctx, worker)
		}(i)
	}
	wg.Wait()
}

func (s Dispatcher) work(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.jobs:
			run := s.deployer.Deploy(ctx, j.Target, j.Event)
			s.logger.Debug("job processed", "worker", worker, "run", run.ID, "outcome", run.Outcome)
		}
	}
}
