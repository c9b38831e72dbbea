package interfaces

import (
	"net/http"
	"net/url"
)

// -----------------------------------------------------------------------------
// IProxyManager defines the contract for managing and rotating proxies.
// -----------------------------------------------------------------------------

type IProxyManager interface {

	// -----------------------------------------------------------------------------

	// GetCurrentProxy returns the currently selected proxy (nil if none).
	GetCurrentProxy() *url.URL

	// -----------------------------------------------------------------------------

	// ProxyFunc is suitable for http.Transport.Proxy.
	ProxyFunc(req *http.Request) (*url.URL, error)

	// -----------------------------------------------------------------------------

	// RotateProxy switches to the next available proxy.
	RotateProxy()

	// -----------------------------------------------------------------------------

	// HasProxies returns true if there are proxies configured.
	HasProxies() bool
}
