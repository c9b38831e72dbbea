package interfaces

import (
	"context"

	"energy-forecast/src/models"
)

// -----------------------------------------------------------------------------
// IUpstreamClient sends one market data request upstream.
// -----------------------------------------------------------------------------

type IUpstreamClient interface {

	// -----------------------------------------------------------------------------

	// Send POSTs payload verbatim. Non-2xx answers are returned, not failed;
	// only network-level problems produce an error.
	Send(ctx context.Context, payload []byte) (*models.MUpstreamResponse, error)
}
