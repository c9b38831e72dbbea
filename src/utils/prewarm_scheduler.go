package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"energy-forecast/src/logger"

	"github.com/robfig/cron/v3"
)

// PrewarmFunc fetches one forecast so its upstream answers land in the cache.
type PrewarmFunc func(ctx context.Context, date, region string) error

// -----------------------------------------------------------------------------
// PrewarmScheduler periodically runs the forecast for every configured
// region from today up to DaysAhead days ahead.
// -----------------------------------------------------------------------------

type PrewarmScheduler struct {
	Schedule  string
	Regions   []string
	DaysAhead int
	Location  *time.Location
	Run       PrewarmFunc
	Logger    *logger.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// -----------------------------------------------------------------------------

func NewPrewarmScheduler(schedule string, regions []string, daysAhead int, loc *time.Location, run PrewarmFunc, l *logger.Logger) *PrewarmScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &PrewarmScheduler{
		Schedule:  schedule,
		Regions:   regions,
		DaysAhead: daysAhead,
		Location:  loc,
		Run:       run,
		Logger:    l,
	}
}

// -----------------------------------------------------------------------------

// Start registers the job and starts the cron loop. Overlapping ticks are
// skipped while a pass is still running.
func (ps *PrewarmScheduler) Start() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.cron != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New(cron.WithLocation(ps.Location))
	if _, err := c.AddJob(ps.Schedule, ps.jobChain().Then(cron.FuncJob(func() { ps.RunOnce(ctx) }))); err != nil {
		cancel()
		return fmt.Errorf("prewarm schedule %q: %w", ps.Schedule, err)
	}

	ps.cron, ps.cancel = c, cancel
	c.Start()
	ps.Logger.Info("PrewarmScheduler: %d regions, %d days ahead, schedule %q", len(ps.Regions), ps.DaysAhead, ps.Schedule)
	return nil
}

// jobChain wraps the prewarm pass: panics are recovered and a tick that
// lands while the previous pass runs is skipped, both logged via ps.Logger.
func (ps *PrewarmScheduler) jobChain() cron.Chain {
	l := cronLogger{l: ps.Logger}
	return cron.NewChain(cron.Recover(l), cron.SkipIfStillRunning(l))
}

// Stop cancels a running pass and waits for it to return.
func (ps *PrewarmScheduler) Stop() {
	ps.mu.Lock()
	c, cancel := ps.cron, ps.cancel
	ps.cron, ps.cancel = nil, nil
	ps.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
}

// -----------------------------------------------------------------------------

// RunOnce prewarms every (day, region) pair and returns how many succeeded
// and failed. Failures are logged and do not stop the pass.
func (ps *PrewarmScheduler) RunOnce(ctx context.Context) (int, int) {
	today := Today(ps.Location)
	ok, failed := 0, 0

	for d := 0; d <= ps.DaysAhead; d++ {
		date, err := AddDays(today, d)
		if err != nil {
			ps.Logger.Error("PrewarmScheduler: %v", err)
			return ok, failed
		}
		for _, region := range ps.Regions {
			if ctx.Err() != nil {
				return ok, failed
			}
			if err := ps.Run(ctx, date, region); err != nil {
				failed++
				ps.Logger.Warning("PrewarmScheduler: %s/%s failed: %v", date, region, err)
				continue
			}
			ok++
		}
	}

	ps.Logger.Info("PrewarmScheduler: pass done, %d ok, %d failed", ok, failed)
	return ok, failed
}
