package pipeline

import (
	"context"
	"sync"

	"energy-forecast/src/metrics"
	"energy-forecast/src/models"
)

// Executor is what a Runner drives; *Pipeline satisfies it.
type Executor interface {
	Run(ctx context.Context, sel Selection) (*models.MForecastSet, error)
}

// -----------------------------------------------------------------------------
// Runner serves one presentation client. Each Select supersedes the previous
// one: the older run is cancelled and, should it still finish, its result is
// dropped. Callbacks run one at a time and must not call Select themselves.
// -----------------------------------------------------------------------------

type Runner struct {
	Executor  Executor
	OnLoading func(loading bool)
	OnResult  func(set *models.MForecastSet)
	OnError   func(sel Selection, err error)

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// -----------------------------------------------------------------------------

func NewRunner(executor Executor) *Runner {
	return &Runner{Executor: executor}
}

// -----------------------------------------------------------------------------

// Select starts a run for sel in the background.
func (r *Runner) Select(parent context.Context, sel Selection) {
	r.mu.Lock()
	r.seq++
	id := r.seq
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	r.emitLoading(true)
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		set, err := r.Executor.Run(ctx, sel)

		r.mu.Lock()
		defer r.mu.Unlock()
		if id != r.seq {
			metrics.IncPipelineRun(metrics.ResultSuperseded)
			return
		}

		if err != nil {
			if r.OnError != nil {
				r.OnError(sel, err)
			}
		} else if r.OnResult != nil {
			r.OnResult(set)
		}
		r.emitLoading(false)
	}()
}

// -----------------------------------------------------------------------------

// Stop cancels the current run and waits for all runs to return.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.seq++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// Wait blocks until every started run has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// -----------------------------------------------------------------------------

func (r *Runner) emitLoading(loading bool) {
	if r.OnLoading != nil {
		r.OnLoading(loading)
	}
}
