package analysis

import (
	"energy-forecast/src/data_source/smard"
	"energy-forecast/src/models"
)

// -----------------------------------------------------------------------------

// Derive adds the numeric fields whose source columns are present. It never
// fails: unparseable values count as 0 and renewable/total is left as is
// when total is 0.
func Derive(row models.CompositeRow) models.EnrichedRow {
	out := models.EnrichedRow{CompositeRow: row}

	out.Renewable = parsed(row, models.ColumnRenewable)
	out.Photovoltaic = parsed(row, models.ColumnPhotovoltaic)
	out.Total = parsed(row, models.ColumnTotalLoad)
	out.WindOffshore = parsed(row, models.ColumnWindOffshore)
	out.WindOnshore = parsed(row, models.ColumnWindOnshore)

	if out.WindOffshore != nil && out.WindOnshore != nil {
		wind := *out.WindOffshore + *out.WindOnshore
		out.Wind = &wind
	}
	if out.Renewable != nil && out.Total != nil {
		share := *out.Renewable / *out.Total
		out.PercentRenewable = &share
	}

	return out
}

// DeriveAll applies Derive to every row, keeping order.
func DeriveAll(rows []models.CompositeRow) []models.EnrichedRow {
	out := make([]models.EnrichedRow, len(rows))
	for i, row := range rows {
		out[i] = Derive(row)
	}
	return out
}

func parsed(row models.CompositeRow, column string) *float64 {
	raw, ok := row.Get(column)
	if !ok {
		return nil
	}
	v := smard.ParseNumber(raw)
	return &v
}
