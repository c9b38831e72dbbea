package interfaces

import "context"

// -----------------------------------------------------------------------------
// IDataFetcher turns a request payload into the raw CSV body, either through
// the in-process cache proxy or a remote proxy endpoint.
// -----------------------------------------------------------------------------

type IDataFetcher interface {
	Fetch(ctx context.Context, payload []byte) ([]byte, error)
}
