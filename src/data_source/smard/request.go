package smard

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"energy-forecast/src/helpers"
	"energy-forecast/src/models"
)

// Upstream markers. A body containing either is never cached.
const (
	NoValueMarker = ";-"
	NoDataMarker  = "Keine Daten für gegebene Anfrage"
)

// Module ids of the SMARD forecast series.
var (
	ProductionModuleIDs  = []int64{2005097, 2000125, 2003791, 2000123}
	ConsumptionModuleIDs = []int64{6000411, 6004362}
)

const dayMillis = 24 * 60 * 60 * 1000

// -----------------------------------------------------------------------------

// BuildProductionRequest is the forecasted generation query.
func BuildProductionRequest(fromMillis, toMillis int64, region string) models.MarketDataRequest {
	return buildRequest(ProductionModuleIDs, fromMillis, toMillis, region)
}

// BuildConsumptionRequest is the forecasted consumption query.
func BuildConsumptionRequest(fromMillis, toMillis int64, region string) models.MarketDataRequest {
	return buildRequest(ConsumptionModuleIDs, fromMillis, toMillis, region)
}

// The region is forwarded unchecked; upstream rejects unknown ones.
func buildRequest(moduleIDs []int64, fromMillis, toMillis int64, region string) models.MarketDataRequest {
	ids := make([]int64, len(moduleIDs))
	copy(ids, moduleIDs)

	return models.MarketDataRequest{
		RequestForm: []models.MRequestForm{
			{
				Format:        "CSV",
				ModuleIDs:     ids,
				Region:        region,
				TimestampFrom: fromMillis,
				TimestampTo:   toMillis,
				Type:          "discrete",
				Language:      "de",
			},
		},
	}
}

// -----------------------------------------------------------------------------

// EncodeRequest renders the payload bytes sent upstream and hashed for the
// cache key.
func EncodeRequest(req models.MarketDataRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return body, nil
}

// -----------------------------------------------------------------------------

// DayWindow returns local midnight of date (YYYY-MM-DD) in loc as epoch
// milliseconds and the same instant plus 24 hours.
func DayWindow(date string, loc *time.Location) (int64, int64, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), loc)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", helpers.ErrInvalidDate, date)
	}

	from := day.UnixMilli()
	return from, from + dayMillis, nil
}
