package utils

import (
	"log"
	"time"

	"github.com/scmhub/calendar"
)

// DefaultBusinessMIC is the Frankfurt exchange, whose holiday list follows
// the German public holidays that shape grid load.
const DefaultBusinessMIC = "xfra"

// BusinessCalendar tells working days from weekends and holidays.
type BusinessCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

func GetBusinessCalendar(mic string) *BusinessCalendar {
	if mic == "" {
		mic = DefaultBusinessMIC
	}

	// scmhub/calendar.GetCalendar returns a calendar by MIC
	cal := calendar.GetCalendar(mic)
	if cal == nil && mic != DefaultBusinessMIC {
		cal = calendar.GetCalendar(DefaultBusinessMIC)
	}

	if cal == nil {
		log.Printf("WARNING: Failed to load calendar for MIC '%s'. Using simple fallback (Mon-Fri, Europe/Berlin).", mic)
		loc, _ := time.LoadLocation("Europe/Berlin")
		if loc == nil {
			loc = time.UTC // Worst case
		}
		return &BusinessCalendar{Fallback: true, Timezone: loc}
	}

	return &BusinessCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (bc *BusinessCalendar) IsBusinessDay(date time.Time) bool {
	// Normalize to timezone if available
	if bc.Timezone != nil {
		date = date.In(bc.Timezone)
	}

	if bc.Fallback || bc.Calendar == nil {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return bc.Calendar.IsBusinessDay(date)
}
