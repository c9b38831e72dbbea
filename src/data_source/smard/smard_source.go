package smard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"energy-forecast/src/interfaces"
	"energy-forecast/src/logger"
	"energy-forecast/src/models"

	"golang.org/x/sync/errgroup"
)

// Datasets is the decoded pair for one selection.
type Datasets struct {
	Production  []models.ParsedRow
	Consumption []models.ParsedRow

	// NoData is set when upstream answered with its "no data" marker for
	// either series. Both slices are then whatever could be decoded.
	NoData bool
}

// -----------------------------------------------------------------------------
// ForecastSource loads the production and consumption forecasts of a day.
// -----------------------------------------------------------------------------

type ForecastSource struct {
	Fetcher  interfaces.IDataFetcher
	Location *time.Location
	Logger   *logger.Logger
}

// -----------------------------------------------------------------------------

func NewForecastSource(fetcher interfaces.IDataFetcher, loc *time.Location, log *logger.Logger) *ForecastSource {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.NewLogger(nil, "ForecastSource")
	}
	return &ForecastSource{
		Fetcher:  fetcher,
		Location: loc,
		Logger:   log,
	}
}

// -----------------------------------------------------------------------------

// FetchDay requests both series for date (YYYY-MM-DD) and region in parallel.
// Either failure cancels the other and is returned.
func (s *ForecastSource) FetchDay(ctx context.Context, date, region string) (*Datasets, error) {
	from, to, err := DayWindow(date, s.Location)
	if err != nil {
		return nil, err
	}

	productionPayload, err := EncodeRequest(BuildProductionRequest(from, to, region))
	if err != nil {
		return nil, err
	}
	consumptionPayload, err := EncodeRequest(BuildConsumptionRequest(from, to, region))
	if err != nil {
		return nil, err
	}

	var out Datasets
	var productionEmpty, consumptionEmpty bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, empty, err := s.fetchSeries(gctx, "production", productionPayload)
		out.Production, productionEmpty = rows, empty
		return err
	})
	g.Go(func() error {
		rows, empty, err := s.fetchSeries(gctx, "consumption", consumptionPayload)
		out.Consumption, consumptionEmpty = rows, empty
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.NoData = productionEmpty || consumptionEmpty
	s.Logger.Debug("Fetched %s/%s: %d production rows, %d consumption rows", date, region, len(out.Production), len(out.Consumption))
	return &out, nil
}

// -----------------------------------------------------------------------------

func (s *ForecastSource) fetchSeries(ctx context.Context, series string, payload []byte) ([]models.ParsedRow, bool, error) {
	body, err := s.Fetcher.Fetch(ctx, payload)
	if err != nil {
		return nil, false, fmt.Errorf("fetch %s: %w", series, err)
	}

	text := string(body)
	if strings.Contains(text, NoDataMarker) {
		s.Logger.Info("Upstream has no %s data for this selection", series)
		return []models.ParsedRow{}, true, nil
	}

	rows, err := Decode(text, s.Location)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", series, err)
	}
	return rows, false, nil
}
