package models

import (
	"encoding/json"
	"math"
	"time"
)

// Column labels of the SMARD market data CSV.
const (
	ColumnDate          = "Datum"
	ColumnTime          = "Uhrzeit"
	ColumnStart         = "Anfang"
	ColumnRenewable     = "Photovoltaik und Wind[MWh]"
	ColumnPhotovoltaic  = "Photovoltaik[MWh]"
	ColumnTotalLoad     = "Gesamt (Netzlast)[MWh]"
	ColumnWindOffshore  = "Wind Offshore[MWh]"
	ColumnWindOnshore   = "Wind Onshore[MWh]"
	ColumnTotal         = "Gesamt[MWh]"
	ColumnOther         = "Sonstige[MWh]"
	ColumnResidualLoad  = "Residuallast[MWh]"
	ColumnPumpedStorage = "Pumpspeicher[MWh]"
)

// -----------------------------------------------------------------------------
// ParsedRow is one decoded CSV record plus its resolved local timestamp.
// Columns keeps the header order, Fields holds the raw string values.
// -----------------------------------------------------------------------------

type ParsedRow struct {
	Columns []string
	Fields  map[string]string
	Date    time.Time
}

// Has reports whether the row carries the column at all.
func (r ParsedRow) Has(column string) bool {
	_, ok := r.Fields[column]
	return ok
}

// Get returns the raw value and whether the column is present.
func (r ParsedRow) Get(column string) (string, bool) {
	v, ok := r.Fields[column]
	return v, ok
}

// Clone returns a deep copy so callers can extend a row without aliasing.
func (r ParsedRow) Clone() ParsedRow {
	cols := make([]string, len(r.Columns))
	copy(cols, r.Columns)
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return ParsedRow{Columns: cols, Fields: fields, Date: r.Date}
}

// -----------------------------------------------------------------------------
// CompositeRow is a production row with the matching consumption row overlaid.
// -----------------------------------------------------------------------------

type CompositeRow struct {
	ParsedRow
}

// -----------------------------------------------------------------------------
// EnrichedRow adds the derived values. A nil pointer means the source
// columns for that value were missing.
// -----------------------------------------------------------------------------

type EnrichedRow struct {
	CompositeRow
	Renewable        *float64
	Photovoltaic     *float64
	Total            *float64
	WindOffshore     *float64
	WindOnshore      *float64
	Wind             *float64
	PercentRenewable *float64
}

// StartLabel is the clock time shown for the row ("Anfang", else "Uhrzeit").
func (r EnrichedRow) StartLabel() string {
	if v, ok := r.Fields[ColumnStart]; ok {
		return v
	}
	return r.Fields[ColumnTime]
}

// MarshalJSON flattens the row: raw columns, date, then derived values.
// Non-finite numbers become null.
func (r EnrichedRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Fields)+8)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["date"] = r.Date.Format(time.RFC3339)

	derived := []struct {
		name  string
		value *float64
	}{
		{"renewable", r.Renewable},
		{"photovoltaic", r.Photovoltaic},
		{"total", r.Total},
		{"windOffshore", r.WindOffshore},
		{"windOnshore", r.WindOnshore},
		{"wind", r.Wind},
		{"percentRenewable", r.PercentRenewable},
	}
	for _, d := range derived {
		if d.value == nil {
			continue
		}
		out[d.name] = finiteOrNil(*d.value)
	}

	return json.Marshal(out)
}

func finiteOrNil(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
