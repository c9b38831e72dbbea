package models

import "time"

// MRunRecord is one finished pipeline run, kept for status output.
type MRunRecord struct {
	RunID    string        `json:"run_id"`
	Date     string        `json:"date"`
	Region   string        `json:"region"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
	At       time.Time     `json:"at"`
}
