package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayNavigation(t *testing.T) {
	prev, err := PreviousDay("2023-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2023-02-28", prev)

	next, err := NextDay("2022-12-31")
	require.NoError(t, err)
	assert.Equal(t, "2023-01-01", next)

	// DST switch in Germany
	next, err = NextDay("2023-03-26")
	require.NoError(t, err)
	assert.Equal(t, "2023-03-27", next)

	later, err := AddDays("2023-01-30", 3)
	require.NoError(t, err)
	assert.Equal(t, "2023-02-02", later)

	_, err = NextDay("26.03.2023")
	assert.Error(t, err)
}

func TestResolveDate(t *testing.T) {
	loc := time.UTC
	today := Today(loc)

	got, err := ResolveDate("today", loc)
	require.NoError(t, err)
	assert.Equal(t, today, got)

	got, err = ResolveDate("", loc)
	require.NoError(t, err)
	assert.Equal(t, today, got)

	tomorrow, err := ResolveDate("tomorrow", loc)
	require.NoError(t, err)
	back, err := PreviousDay(tomorrow)
	require.NoError(t, err)
	assert.Equal(t, today, back)

	got, err = ResolveDate(" 2023-01-01 ", loc)
	require.NoError(t, err)
	assert.Equal(t, "2023-01-01", got)

	_, err = ResolveDate("someday", loc)
	assert.Error(t, err)
}

func TestBusinessCalendar(t *testing.T) {
	cal := GetBusinessCalendar("")
	berlin := cal.Timezone

	assert.True(t, cal.IsBusinessDay(time.Date(2023, 1, 4, 0, 0, 0, 0, berlin)), "Wednesday")
	assert.False(t, cal.IsBusinessDay(time.Date(2023, 1, 7, 0, 0, 0, 0, berlin)), "Saturday")
	assert.False(t, cal.IsBusinessDay(time.Date(2023, 1, 8, 12, 0, 0, 0, berlin)), "Sunday")
	assert.False(t, cal.IsBusinessDay(time.Date(2023, 4, 7, 0, 0, 0, 0, berlin)), "Good Friday")
}

func TestBusinessCalendarFallback(t *testing.T) {
	cal := &BusinessCalendar{Fallback: true, Timezone: time.UTC}
	assert.True(t, cal.IsBusinessDay(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.False(t, cal.IsBusinessDay(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)))
}
