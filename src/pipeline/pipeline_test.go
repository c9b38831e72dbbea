package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"energy-forecast/src/data_source/smard"
	"energy-forecast/src/helpers"
	"energy-forecast/src/logger"
	"energy-forecast/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	productionCSV = "Datum;Anfang;Ende;Photovoltaik und Wind[MWh];Wind Offshore[MWh];Wind Onshore[MWh];Photovoltaik[MWh]\n" +
		"28.10.2022;00:00;00:15;2.000;300;1.200;500\n" +
		"28.10.2022;00:15;00:30;3.000;300;2.200;500\n"
	consumptionCSV = "Datum;Anfang;Ende;Gesamt (Netzlast)[MWh];Residuallast[MWh]\n" +
		"28.10.2022;00:15;00:30;10.000;7.000\n"
)

func quietLogger() *logger.Logger {
	l := logger.NewLogger(nil, "test")
	l.SetOutput(io.Discard)
	return l
}

type scriptedFetcher struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
	// noConsumption answers the consumption series with the no-data marker.
	noConsumption bool
}

func (f *scriptedFetcher) Fetch(ctx context.Context, payload []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, f.err
	}
	if strings.Contains(string(payload), "2005097") {
		return []byte(productionCSV), nil
	}
	if f.noConsumption {
		return []byte(smard.NoDataMarker), nil
	}
	return []byte(consumptionCSV), nil
}

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func TestPipelineRun(t *testing.T) {
	p := NewPipeline(&scriptedFetcher{}, berlin(t), "DE", 0, quietLogger())

	set, err := p.Run(context.Background(), Selection{Date: "2022-10-28"})
	require.NoError(t, err)

	assert.Equal(t, "DE", set.Region)
	assert.NotEmpty(t, set.RunID)
	require.Len(t, set.Rows, 2)

	first, second := set.Rows[0], set.Rows[1]
	assert.Nil(t, first.PercentRenewable, "no consumption match at 00:00")
	assert.Equal(t, 1500.0, *first.Wind)
	require.NotNil(t, second.PercentRenewable)
	assert.InDelta(t, 0.3, *second.PercentRenewable, 1e-12)
	assert.Equal(t, "7.000", second.Fields[models.ColumnResidualLoad])

	assert.Equal(t, 1, set.Summary.Samples)
	assert.Equal(t, "00:15 Uhr", set.Summary.MaxTime)
	assert.True(t, set.Summary.BusinessDay)
}

func TestPipelineRunFlagsMissingUpstreamData(t *testing.T) {
	p := NewPipeline(&scriptedFetcher{noConsumption: true}, berlin(t), "DE", 0, quietLogger())

	set, err := p.Run(context.Background(), Selection{Date: "2022-10-28"})
	require.NoError(t, err)

	assert.True(t, set.NoData)
	require.Len(t, set.Rows, 2, "production rows survive")
	assert.Nil(t, set.Rows[1].PercentRenewable)
	assert.Equal(t, 0, set.Summary.Samples)

	p.Source.Fetcher = &scriptedFetcher{}
	full, err := p.Run(context.Background(), Selection{Date: "2022-10-28"})
	require.NoError(t, err)
	assert.False(t, full.NoData)
}

func TestPipelineRetriesTransportErrors(t *testing.T) {
	fetcher := &scriptedFetcher{failures: 1, err: helpers.NewTransportError("upstream request failed", errors.New("reset"))}
	p := NewPipeline(fetcher, berlin(t), "DE", 2, quietLogger())
	p.RetryDelay = time.Millisecond

	set, err := p.Run(context.Background(), Selection{Date: "2022-10-28", Region: "DE"})
	require.NoError(t, err)
	assert.Len(t, set.Rows, 2)
}

func TestPipelineDoesNotRetryWithoutBudget(t *testing.T) {
	fetcher := &scriptedFetcher{failures: 10, err: helpers.NewTransportError("upstream request failed", errors.New("reset"))}
	p := NewPipeline(fetcher, berlin(t), "DE", 0, quietLogger())

	_, err := p.Run(context.Background(), Selection{Date: "2022-10-28"})
	var transport *helpers.TransportError
	assert.ErrorAs(t, err, &transport)
	assert.LessOrEqual(t, fetcher.calls, 2)
}

func TestPipelineInvalidDate(t *testing.T) {
	fetcher := &scriptedFetcher{}
	p := NewPipeline(fetcher, berlin(t), "DE", 0, quietLogger())

	_, err := p.Run(context.Background(), Selection{Date: "28.10.2022"})
	assert.ErrorIs(t, err, helpers.ErrInvalidDate)
	assert.Zero(t, fetcher.calls)
}

func TestPipelineRecordsHistory(t *testing.T) {
	fetcher := &scriptedFetcher{failures: 1, err: helpers.NewTransportError("upstream request failed", nil)}
	p := NewPipeline(fetcher, berlin(t), "DE", 0, quietLogger())

	_, err := p.Run(context.Background(), Selection{Date: "2022-10-28"})
	require.Error(t, err)
	_, err = p.Run(context.Background(), Selection{Date: "2022-10-28", Region: "Amprion"})
	require.NoError(t, err)

	runs := p.History.GetAll()
	require.Len(t, runs, 2)
	assert.Contains(t, runs[0].Error, "upstream request failed")
	assert.Equal(t, "Amprion", runs[1].Region)
	assert.Equal(t, 2, runs[1].Rows)
	assert.Empty(t, runs[1].Error)
}
