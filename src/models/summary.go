package models

// MSummary describes the renewable share over one forecast day.
type MSummary struct {
	Average     float64 `json:"average"`
	AverageText string  `json:"average_text"`
	Min         float64 `json:"min"`
	MinIndex    int     `json:"min_index"`
	MinTime     string  `json:"min_time"`
	MinText     string  `json:"min_text"`
	Max         float64 `json:"max"`
	MaxIndex    int     `json:"max_index"`
	MaxTime     string  `json:"max_time"`
	MaxText     string  `json:"max_text"`
	Samples     int     `json:"samples"`
	BusinessDay bool    `json:"business_day"`
}
