package svc

import (
	"context"
	"github.com/maroux/heroku-deployer/internal/app"
	"sync"
)

// MemoryRunsSize is the number of runs kept by the in-memory history.
const MemoryRunsSize = 100

// NewMemoryRuns creates the run history used when no database is configured.
func NewMemoryRuns() app.RunRepo {
	return &MemoryRuns{size: MemoryRunsSize}
}

// MemoryRuns keeps the latest runs in memory.
type MemoryRuns struct {
	mu   sync.Mutex
	size int
	runs []app.Run
}

// Add stores the run, dropping the oldest one when the history is full.
func (r *MemoryRuns) Add(_ context.Context, run app.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	if len(r.runs) > r.size {
		r.runs = r.runs[len(r.runs)-r.size:]
	}
	return nil
}

// FindLatest returns up to limit runs, newest first.
func (r *MemoryRuns) FindLatest(_ context.Context, limit int) ([]app.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > len(r.runs) {
		limit = len(r.runs)
	}
	res := make([]app.Run, 0, limit)
	for i := len(r.runs) - 1; i >= 0 && len(res) < limit; i-- {
		res = append(res, r.runs[i])
	}
	return res, nil
}
