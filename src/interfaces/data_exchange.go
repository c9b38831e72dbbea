package interfaces

// -----------------------------------------------------------------------------
// IDataExchanger is the server that hands forecasts to presentation clients.
// -----------------------------------------------------------------------------

type IDataExchanger interface {

	// -----------------------------------------------------------------------------
	// Connections returns the number of live push clients.
	Connections() int

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
