package helpers

import (
	"net/http"
	"net/url"
	"strings"
	"sync"

	"energy-forecast/src/logger"
)

// -----------------------------------------------------------------------------

// ProxyManager holds the outbound HTTP proxies configured for upstream calls.
// The transport asks it for the current proxy on every request; Rotate moves
// to the next one after a transport failure.
type ProxyManager struct {
	proxies []*url.URL
	index   int
	mu      sync.Mutex
	logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewProxyManager(proxies []string, log *logger.Logger) *ProxyManager {
	if log == nil {
		log = logger.NewLogger(nil, "ProxyManager")
	}

	var valid []*url.URL
	for _, p := range proxies {
		if !ValidateProxy(p) {
			log.Warning("Ignoring invalid proxy %q", p)
			continue
		}
		u, err := url.Parse(FormatProxy(p))
		if err != nil {
			continue
		}
		valid = append(valid, u)
	}

	return &ProxyManager{
		proxies: valid,
		logger:  log,
	}
}

// -----------------------------------------------------------------------------

// GetCurrentProxy returns the active proxy, or nil for a direct connection.
func (pm *ProxyManager) GetCurrentProxy() *url.URL {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if len(pm.proxies) == 0 {
		return nil
	}
	return pm.proxies[pm.index]
}

// -----------------------------------------------------------------------------

// ProxyFunc plugs into http.Transport.Proxy.
func (pm *ProxyManager) ProxyFunc(_ *http.Request) (*url.URL, error) {
	return pm.GetCurrentProxy(), nil
}

// -----------------------------------------------------------------------------

func (pm *ProxyManager) RotateProxy() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if len(pm.proxies) <= 1 {
		return
	}

	pm.index = (pm.index + 1) % len(pm.proxies)
	pm.logger.Info("Rotating proxy to: %s", pm.proxies[pm.index].Host)
}

// -----------------------------------------------------------------------------

func (pm *ProxyManager) HasProxies() bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return len(pm.proxies) > 0
}

// -----------------------------------------------------------------------------

// ValidateProxy checks if a proxy string is roughly valid.
func ValidateProxy(proxyStr string) bool {
	if strings.TrimSpace(proxyStr) == "" {
		return false
	}
	u, err := url.Parse(FormatProxy(proxyStr))
	return err == nil && u.Host != "" && (u.Scheme == "http" || u.Scheme == "https" || u.Scheme == "socks5")
}

// -----------------------------------------------------------------------------

// FormatProxy ensures the proxy has a scheme.
func FormatProxy(proxyStr string) string {
	if !strings.Contains(proxyStr, "://") {
		return "http://" + proxyStr
	}
	return proxyStr
}
