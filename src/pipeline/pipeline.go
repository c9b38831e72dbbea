package pipeline

import (
	"context"
	"fmt"
	"time"

	"energy-forecast/src/analysis"
	"energy-forecast/src/data_source/smard"
	"energy-forecast/src/helpers"
	"energy-forecast/src/interfaces"
	"energy-forecast/src/logger"
	"energy-forecast/src/metrics"
	"energy-forecast/src/models"
	"energy-forecast/src/utils"

	"github.com/google/uuid"
)

const defaultRetryDelay = time.Second

// Selection is one date/region choice made by a presentation client.
type Selection struct {
	Date   string
	Region string
}

func (s Selection) String() string {
	return s.Date + "/" + s.Region
}

// -----------------------------------------------------------------------------
// Pipeline runs one selection end to end: fetch both series, merge, derive
// and summarise. It holds no per-selection state, so one instance serves
// concurrent callers.
// -----------------------------------------------------------------------------

type Pipeline struct {
	Source        *smard.ForecastSource
	Analysis      *analysis.AnalysisFacade
	Location      *time.Location
	DefaultRegion string
	Retries       int
	RetryDelay    time.Duration
	History       *utils.RunHistory
	Logger        *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPipeline(fetcher interfaces.IDataFetcher, loc *time.Location, defaultRegion string, retries int, log *logger.Logger) *Pipeline {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.NewLogger(nil, "Pipeline")
	}
	return &Pipeline{
		Source:        smard.NewForecastSource(fetcher, loc, log.Named("ForecastSource")),
		Analysis:      analysis.NewAnalysisFacade(nil, log.Named("AnalysisFacade")),
		Location:      loc,
		DefaultRegion: defaultRegion,
		Retries:       retries,
		RetryDelay:    defaultRetryDelay,
		History:       utils.NewRunHistory(0),
		Logger:        log,
	}
}

// -----------------------------------------------------------------------------

// Run produces the forecast set for sel. Transport failures are retried up
// to Retries times; anything else fails immediately.
func (p *Pipeline) Run(ctx context.Context, sel Selection) (*models.MForecastSet, error) {
	if sel.Region == "" {
		sel.Region = p.DefaultRegion
	}
	runID := uuid.NewString()
	start := time.Now()

	from, _, err := smard.DayWindow(sel.Date, p.Location)
	if err != nil {
		metrics.IncPipelineRun(metrics.ResultError)
		return nil, err
	}

	sets, err := helpers.RetryWithBackoff(ctx, p.Logger, "fetch "+sel.String(), p.Retries, p.RetryDelay,
		func(ctx context.Context) (*smard.Datasets, error) {
			return p.Source.FetchDay(ctx, sel.Date, sel.Region)
		})
	if err != nil {
		// Cancelled runs are counted by whoever cancelled them.
		if ctx.Err() == nil {
			metrics.IncPipelineRun(metrics.ResultError)
		}
		p.Logger.Warning("Run %s for %s failed: %v", runID, sel, err)
		p.record(runID, sel, 0, start, err)
		return nil, fmt.Errorf("forecast %s: %w", sel, err)
	}

	rows := p.Analysis.Enrich(sets.Production, sets.Consumption)
	day := time.UnixMilli(from).In(p.Location)
	if sets.NoData {
		p.Logger.Info("Run %s for %s: upstream has no data for at least one series", runID, sel)
	}

	metrics.IncPipelineRun(metrics.ResultOK)
	p.Logger.Info("Run %s for %s: %d rows in %v", runID, sel, len(rows), time.Since(start).Round(time.Millisecond))
	p.record(runID, sel, len(rows), start, nil)

	return &models.MForecastSet{
		Date:    sel.Date,
		Region:  sel.Region,
		RunID:   runID,
		Rows:    rows,
		Summary: p.Analysis.Summarize(day, rows),
		NoData:  sets.NoData,
	}, nil
}

// -----------------------------------------------------------------------------

func (p *Pipeline) record(runID string, sel Selection, rows int, start time.Time, err error) {
	if p.History == nil {
		return
	}
	rec := models.MRunRecord{
		RunID:    runID,
		Date:     sel.Date,
		Region:   sel.Region,
		Rows:     rows,
		Duration: time.Since(start),
		At:       start,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	p.History.Append(rec)
}
