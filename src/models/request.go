package models

// MarketDataRequest is the upstream download payload. Field order is the
// wire order; the cache key is computed over these exact bytes.
type MarketDataRequest struct {
	RequestForm []MRequestForm `json:"request_form"`
}

type MRequestForm struct {
	Format        string  `json:"format"`
	ModuleIDs     []int64 `json:"moduleIds"`
	Region        string  `json:"region"`
	TimestampFrom int64   `json:"timestamp_from"`
	TimestampTo   int64   `json:"timestamp_to"`
	Type          string  `json:"type"`
	Language      string  `json:"language"`
}

// MUpstreamResponse is an upstream answer, kept whatever its status code.
type MUpstreamResponse struct {
	Body        []byte
	StatusCode  int
	ContentType string
}
