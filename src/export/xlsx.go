package export

import (
	"bytes"
	"fmt"
	"math"

	"energy-forecast/src/models"

	"github.com/xuri/excelize/v2"
)

const (
	ForecastSheet = "Prognose"
	SummarySheet  = "Zusammenfassung"

	// ContentType is the XLSX media type.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// forecastHeader is the table layout, one column per derived value.
var forecastHeader = []string{
	"Datum",
	"Anfang",
	"Photovoltaik [MWh]",
	"Wind Offshore [MWh]",
	"Wind Onshore [MWh]",
	"Wind [MWh]",
	"Photovoltaik und Wind [MWh]",
	"Netzlast [MWh]",
	"Anteil Erneuerbare",
}

// BuildForecastXLSX renders the forecast table and its summary as a workbook.
func BuildForecastXLSX(set *models.MForecastSet) ([]byte, error) {
	if set == nil {
		return nil, fmt.Errorf("forecast set is nil")
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", ForecastSheet)
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}

	for i, label := range forecastHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(ForecastSheet, cell, label)
	}

	for i, row := range set.Rows {
		line := i + 2
		_ = f.SetCellValue(ForecastSheet, fmt.Sprintf("A%d", line), row.Fields[models.ColumnDate])
		_ = f.SetCellValue(ForecastSheet, fmt.Sprintf("B%d", line), row.StartLabel())
		setNumber(f, fmt.Sprintf("C%d", line), row.Photovoltaic)
		setNumber(f, fmt.Sprintf("D%d", line), row.WindOffshore)
		setNumber(f, fmt.Sprintf("E%d", line), row.WindOnshore)
		setNumber(f, fmt.Sprintf("F%d", line), row.Wind)
		setNumber(f, fmt.Sprintf("G%d", line), row.Renewable)
		setNumber(f, fmt.Sprintf("H%d", line), row.Total)
		setNumber(f, fmt.Sprintf("I%d", line), row.PercentRenewable)
	}

	if len(set.Rows) > 0 {
		// Built-in number format 9 is "0%".
		style, err := f.NewStyle(&excelize.Style{NumFmt: 9})
		if err == nil {
			_ = f.SetCellStyle(ForecastSheet, "I2", fmt.Sprintf("I%d", len(set.Rows)+1), style)
		}
	}

	s := set.Summary
	summary := [][]interface{}{
		{"Datum", set.Date},
		{"Region", set.Region},
		{"Durchschnitt Erneuerbare", s.AverageText},
		{"Minimum", s.MinText, s.MinTime},
		{"Maximum", s.MaxText, s.MaxTime},
		{"Werktag", s.BusinessDay},
		{"Lauf", set.RunID},
	}
	for i, values := range summary {
		cell := fmt.Sprintf("A%d", i+1)
		values := values
		if err := f.SetSheetRow(SummarySheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// setNumber leaves the cell empty for absent or non-finite values.
func setNumber(f *excelize.File, cell string, v *float64) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return
	}
	_ = f.SetCellValue(ForecastSheet, cell, *v)
}
