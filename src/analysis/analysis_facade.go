package analysis

import (
	"time"

	"energy-forecast/src/logger"
	"energy-forecast/src/models"
	"energy-forecast/src/utils"
)

// AnalysisFacade turns the two decoded series of a day into what
// presentation collaborators consume.
type AnalysisFacade struct {
	Calendar *utils.BusinessCalendar
	Logger   *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAnalysisFacade(calendar *utils.BusinessCalendar, log *logger.Logger) *AnalysisFacade {
	if calendar == nil {
		calendar = utils.GetBusinessCalendar(utils.DefaultBusinessMIC)
	}
	if log == nil {
		log = logger.NewLogger(nil, "AnalysisFacade")
	}
	return &AnalysisFacade{
		Calendar: calendar,
		Logger:   log,
	}
}

// -----------------------------------------------------------------------------

// Enrich merges consumption into production and derives the numeric fields.
func (a *AnalysisFacade) Enrich(production, consumption []models.ParsedRow) []models.EnrichedRow {
	composite := Merge(production, consumption)

	matched := 0
	index := make(map[int64]struct{}, len(consumption))
	for _, row := range consumption {
		index[row.Date.UnixNano()] = struct{}{}
	}
	for _, row := range production {
		if _, ok := index[row.Date.UnixNano()]; ok {
			matched++
		}
	}
	if matched < len(production) {
		a.Logger.Debug("%d of %d production rows have no consumption match", len(production)-matched, len(production))
	}

	return DeriveAll(composite)
}

// -----------------------------------------------------------------------------

// Summarize describes rows for the day starting at day.
func (a *AnalysisFacade) Summarize(day time.Time, rows []models.EnrichedRow) models.MSummary {
	return Summarize(rows, a.Calendar.IsBusinessDay(day))
}
