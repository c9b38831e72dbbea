package network

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"energy-forecast/src/helpers"
	"energy-forecast/src/interfaces"
	"energy-forecast/src/logger"
	"energy-forecast/src/metrics"
	"energy-forecast/src/models"
)

const (
	defaultTimeout  = 30 * time.Second
	jsonContentType = "application/json;charset=utf-8"
)

// -----------------------------------------------------------------------------
// UpstreamClient posts market data requests to the SMARD download endpoint.
// It makes exactly one attempt per call; retry policy belongs to the caller.
// -----------------------------------------------------------------------------

type UpstreamClient struct {
	URL            string
	AcceptLanguage string
	ProxyManager   interfaces.IProxyManager
	Client         *http.Client
	Logger         *logger.Logger
}

// -----------------------------------------------------------------------------

func NewUpstreamClient(cfg *models.MConfig, log *logger.Logger) *UpstreamClient {
	if log == nil {
		log = logger.NewLogger(cfg, "UpstreamClient")
	}

	timeout := time.Duration(cfg.Upstream.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &UpstreamClient{
		URL:            cfg.Upstream.URL,
		AcceptLanguage: cfg.Upstream.AcceptLanguage,
		ProxyManager:   helpers.NewProxyManager(cfg.Upstream.Proxies, log.Named("ProxyManager")),
		Logger:         log,
	}
	c.Client = c.createClient(timeout)
	return c
}

// -----------------------------------------------------------------------------

func (c *UpstreamClient) createClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.ProxyManager != nil && c.ProxyManager.HasProxies() {
		transport.Proxy = c.ProxyManager.ProxyFunc
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// -----------------------------------------------------------------------------

// Send POSTs payload verbatim and returns whatever upstream answered.
func (c *UpstreamClient) Send(ctx context.Context, payload []byte) (*models.MUpstreamResponse, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", jsonContentType)
	if c.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", c.AcceptLanguage)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		metrics.ObserveUpstream(metrics.ResultError, time.Since(start))
		c.rotateProxy()
		return nil, helpers.NewTransportError("upstream request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveUpstream(metrics.ResultError, time.Since(start))
		c.rotateProxy()
		return nil, helpers.NewTransportError("reading upstream body failed", err)
	}
	metrics.ObserveUpstream(metrics.ResultOK, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.Logger.Warning("Upstream answered %d (%d bytes)", resp.StatusCode, len(body))
	}

	return &models.MUpstreamResponse{
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// -----------------------------------------------------------------------------

// rotateProxy moves the next call to another outbound proxy.
func (c *UpstreamClient) rotateProxy() {
	if c.ProxyManager == nil || !c.ProxyManager.HasProxies() {
		return
	}
	c.ProxyManager.RotateProxy()
	if p := c.ProxyManager.GetCurrentProxy(); p != nil {
		c.Logger.Info("Rotated upstream proxy to %s", p.Host)
	}
}

// -----------------------------------------------------------------------------
// ProxyClient fetches CSV bodies through a remote caching proxy endpoint
// (POST /data.php). It implements interfaces.IDataFetcher for the CLI.
// -----------------------------------------------------------------------------

type ProxyClient struct {
	Endpoint string
	Client   *http.Client
	Logger   *logger.Logger
}

// -----------------------------------------------------------------------------

func NewProxyClient(endpoint string, timeout time.Duration, log *logger.Logger) *ProxyClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = logger.NewLogger(nil, "ProxyClient")
	}
	return &ProxyClient{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
		Logger:   log,
	}
}

// -----------------------------------------------------------------------------

// Fetch posts payload to the proxy. A non-2xx answer is a transport failure
// because the proxy only fails when upstream could not be reached.
func (p *ProxyClient) Fetch(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build proxy request: %w", err)
	}
	req.Header.Set("Content-Type", jsonContentType)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, helpers.NewTransportError("proxy request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, helpers.NewTransportError("reading proxy body failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, helpers.NewTransportError(
			fmt.Sprintf("proxy answered %d", resp.StatusCode),
			fmt.Errorf("%s", bytes.TrimSpace(body)),
		)
	}

	if cacheKey := resp.Header.Get("X-Cache"); cacheKey != "" {
		p.Logger.Debug("Proxy cache hit %s", cacheKey)
	}
	return body, nil
}
