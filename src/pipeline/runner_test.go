package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"energy-forecast/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedExecutor blocks each selection until its gate is closed.
type gatedExecutor struct {
	mu        sync.Mutex
	gates     map[string]chan struct{}
	cancelled map[string]bool
	obeyCtx   bool
}

func newGatedExecutor(obeyCtx bool, dates ...string) *gatedExecutor {
	g := &gatedExecutor{gates: map[string]chan struct{}{}, cancelled: map[string]bool{}, obeyCtx: obeyCtx}
	for _, d := range dates {
		g.gates[d] = make(chan struct{})
	}
	return g
}

func (g *gatedExecutor) Run(ctx context.Context, sel Selection) (*models.MForecastSet, error) {
	g.mu.Lock()
	gate := g.gates[sel.Date]
	g.mu.Unlock()

	if g.obeyCtx {
		select {
		case <-gate:
		case <-ctx.Done():
			g.mu.Lock()
			g.cancelled[sel.Date] = true
			g.mu.Unlock()
			return nil, ctx.Err()
		}
	} else {
		<-gate
	}
	return &models.MForecastSet{Date: sel.Date, Region: sel.Region}, nil
}

type recorder struct {
	mu      sync.Mutex
	loading []bool
	results []string
	errors  []error
}

func (r *recorder) attach(runner *Runner) {
	runner.OnLoading = func(v bool) {
		r.mu.Lock()
		r.loading = append(r.loading, v)
		r.mu.Unlock()
	}
	runner.OnResult = func(set *models.MForecastSet) {
		r.mu.Lock()
		r.results = append(r.results, set.Date)
		r.mu.Unlock()
	}
	runner.OnError = func(_ Selection, err error) {
		r.mu.Lock()
		r.errors = append(r.errors, err)
		r.mu.Unlock()
	}
}

func TestRunnerDeliversResult(t *testing.T) {
	exec := newGatedExecutor(false, "2023-01-01")
	runner := NewRunner(exec)
	rec := &recorder{}
	rec.attach(runner)

	runner.Select(context.Background(), Selection{Date: "2023-01-01", Region: "DE"})
	close(exec.gates["2023-01-01"])
	runner.Wait()

	assert.Equal(t, []string{"2023-01-01"}, rec.results)
	assert.Equal(t, []bool{true, false}, rec.loading)
	assert.Empty(t, rec.errors)
}

func TestRunnerDropsSupersededResult(t *testing.T) {
	exec := newGatedExecutor(false, "2023-01-01", "2023-01-02")
	runner := NewRunner(exec)
	rec := &recorder{}
	rec.attach(runner)

	runner.Select(context.Background(), Selection{Date: "2023-01-01"})
	runner.Select(context.Background(), Selection{Date: "2023-01-02"})

	close(exec.gates["2023-01-02"])
	// Let the newer run finish first, then release the stale one.
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.results) == 1
	}, time.Second, 5*time.Millisecond)
	close(exec.gates["2023-01-01"])
	runner.Wait()

	assert.Equal(t, []string{"2023-01-02"}, rec.results)
	assert.Equal(t, []bool{true, true, false}, rec.loading)
}

func TestRunnerCancelsSupersededRun(t *testing.T) {
	exec := newGatedExecutor(true, "2023-01-01", "2023-01-02")
	runner := NewRunner(exec)
	rec := &recorder{}
	rec.attach(runner)

	runner.Select(context.Background(), Selection{Date: "2023-01-01"})
	runner.Select(context.Background(), Selection{Date: "2023-01-02"})
	close(exec.gates["2023-01-02"])
	runner.Wait()

	exec.mu.Lock()
	assert.True(t, exec.cancelled["2023-01-01"])
	exec.mu.Unlock()
	assert.Equal(t, []string{"2023-01-02"}, rec.results)
	assert.Empty(t, rec.errors, "a cancelled stale run is not an error")
}

type failingExecutor struct{}

func (failingExecutor) Run(ctx context.Context, sel Selection) (*models.MForecastSet, error) {
	return nil, errors.New("boom")
}

func TestRunnerReportsErrors(t *testing.T) {
	runner := NewRunner(failingExecutor{})
	rec := &recorder{}
	rec.attach(runner)

	runner.Select(context.Background(), Selection{Date: "2023-01-01"})
	runner.Wait()

	require.Len(t, rec.errors, 1)
	assert.Equal(t, []bool{true, false}, rec.loading)
}

func TestRunnerStop(t *testing.T) {
	exec := newGatedExecutor(true, "2023-01-01")
	runner := NewRunner(exec)
	rec := &recorder{}
	rec.attach(runner)

	runner.Select(context.Background(), Selection{Date: "2023-01-01"})
	runner.Stop()

	assert.Empty(t, rec.results)
	assert.Empty(t, rec.errors)
	assert.Equal(t, []bool{true}, rec.loading)
}
