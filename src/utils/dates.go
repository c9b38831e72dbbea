package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the selection date format (ISO YYYY-MM-DD).
const DateLayout = "2006-01-02"

// -----------------------------------------------------------------------------

// Today returns the current calendar date in loc.
func Today(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc).Format(DateLayout)
}

// PreviousDay steps one calendar day back.
func PreviousDay(date string) (string, error) {
	return shiftDay(date, -1)
}

// NextDay steps one calendar day forward.
func NextDay(date string) (string, error) {
	return shiftDay(date, 1)
}

// AddDays shifts date by n calendar days.
func AddDays(date string, n int) (string, error) {
	return shiftDay(date, n)
}

// Calendar arithmetic in UTC, so DST changes never skip or repeat a day.
func shiftDay(date string, n int) (string, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return d.AddDate(0, 0, n).Format(DateLayout), nil
}

// -----------------------------------------------------------------------------

// ResolveDate accepts "today", "yesterday", "tomorrow" or a literal date.
func ResolveDate(value string, loc *time.Location) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "today":
		return Today(loc), nil
	case "yesterday":
		return PreviousDay(Today(loc))
	case "tomorrow":
		return NextDay(Today(loc))
	}
	if _, err := time.Parse(DateLayout, strings.TrimSpace(value)); err != nil {
		return "", fmt.Errorf("invalid date %q: %w", value, err)
	}
	return strings.TrimSpace(value), nil
}
