package analysis

import (
	"math"

	"energy-forecast/src/analysis/core"
	"energy-forecast/src/data_source/smard"
	"energy-forecast/src/models"
)

const emptyTimeLabel = "00:00 Uhr"

// -----------------------------------------------------------------------------

// Summarize reports the average, lowest and highest renewable share of the
// day. Rows without a finite share are left out; indices refer to rows.
func Summarize(rows []models.EnrichedRow, businessDay bool) models.MSummary {
	var shares []float64
	var positions []int
	for i, row := range rows {
		if row.PercentRenewable == nil {
			continue
		}
		v := *row.PercentRenewable
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		shares = append(shares, v)
		positions = append(positions, i)
	}

	summary := models.MSummary{
		AverageText: smard.FormatPercent(0),
		MinTime:     emptyTimeLabel,
		MinText:     smard.FormatPercent(0),
		MaxTime:     emptyTimeLabel,
		MaxText:     smard.FormatPercent(0),
		BusinessDay: businessDay,
	}
	if len(shares) == 0 {
		return summary
	}

	minAt, maxAt := core.MinMaxIndex(shares)
	minRow, maxRow := rows[positions[minAt]], rows[positions[maxAt]]

	summary.Samples = len(shares)
	summary.Average = core.CalculateMean(shares)
	summary.AverageText = smard.FormatPercent(summary.Average)

	summary.Min = shares[minAt]
	summary.MinIndex = positions[minAt]
	summary.MinTime = minRow.StartLabel() + " Uhr"
	summary.MinText = smard.FormatPercent(summary.Min)

	summary.Max = shares[maxAt]
	summary.MaxIndex = positions[maxAt]
	summary.MaxTime = maxRow.StartLabel() + " Uhr"
	summary.MaxText = smard.FormatPercent(summary.Max)

	return summary
}
