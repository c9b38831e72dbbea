package analysis

import (
	"sort"

	"energy-forecast/src/models"
)

// -----------------------------------------------------------------------------

// Merge overlays each primary row with the first secondary row sharing its
// instant. Output length and order follow primary; rows without a match are
// copied unchanged. Neither input is modified.
func Merge(primary, secondary []models.ParsedRow) []models.CompositeRow {
	first := make(map[int64]int, len(secondary))
	for i, row := range secondary {
		key := row.Date.UnixNano()
		if _, seen := first[key]; !seen {
			first[key] = i
		}
	}

	out := make([]models.CompositeRow, len(primary))
	for i, row := range primary {
		merged := row.Clone()
		if j, ok := first[row.Date.UnixNano()]; ok && secondary[j].Date.Equal(row.Date) {
			overlay(&merged, secondary[j])
		}
		out[i] = models.CompositeRow{ParsedRow: merged}
	}
	return out
}

// overlay copies every field of src into dst, src winning on collision.
// New labels are appended to dst.Columns in src header order.
func overlay(dst *models.ParsedRow, src models.ParsedRow) {
	seen := make(map[string]bool, len(src.Columns))
	for _, column := range src.Columns {
		value, ok := src.Fields[column]
		if !ok {
			continue
		}
		seen[column] = true
		if !dst.Has(column) {
			dst.Columns = append(dst.Columns, column)
		}
		dst.Fields[column] = value
	}

	// Fields without a header entry, in a stable order.
	var rest []string
	for column := range src.Fields {
		if !seen[column] {
			rest = append(rest, column)
		}
	}
	sort.Strings(rest)
	for _, column := range rest {
		if !dst.Has(column) {
			dst.Columns = append(dst.Columns, column)
		}
		dst.Fields[column] = src.Fields[column]
	}
}
