package models

// -----------------------------------------------------------------------------
// Websocket push messages
// -----------------------------------------------------------------------------

const (
	MessageLoading = "loading"
	MessageData    = "data"
	MessageError   = "error"
)

type MPushMessage struct {
	Type    string        `json:"type"`
	Loading *bool         `json:"loading,omitempty"`
	Message string        `json:"message,omitempty"`
	Data    *MForecastSet `json:"data,omitempty"`
}

// -----------------------------------------------------------------------------
// MForecastSet is what presentation collaborators consume.
// -----------------------------------------------------------------------------

type MForecastSet struct {
	Date    string        `json:"date"`
	Region  string        `json:"region"`
	RunID   string        `json:"run_id"`
	Rows    []EnrichedRow `json:"rows"`
	Summary MSummary      `json:"summary"`
	// NoData is set when upstream answered "Keine Daten" for either series.
	NoData  bool          `json:"no_data"`
}

// -----------------------------------------------------------------------------
// SelectCommand for client messages
// -----------------------------------------------------------------------------

type MSelectCommand struct {
	Command string `json:"command"`
	Date    string `json:"date"`
	Region  string `json:"region"`
}
