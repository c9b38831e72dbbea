package cache

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"strings"

	"energy-forecast/src/data_source/smard"
	"energy-forecast/src/helpers"
	"energy-forecast/src/interfaces"
	"energy-forecast/src/logger"
	"energy-forecast/src/metrics"
)

// Validation policies.
const (
	PolicyStrict = "strict"
	// PolicyLoose skips the content-type check. Superseded by PolicyStrict
	// and kept selectable for deployments that relied on it.
	PolicyLoose = "loose"
)

// CacheableContentType is what upstream declares for real CSV downloads.
const CacheableContentType = "application/octet-stream"

// -----------------------------------------------------------------------------

// ProxyResponse is the outcome of one proxied request.
type ProxyResponse struct {
	Body []byte
	Key  string
	Hit  bool

	// Stored is true when a miss was validated and written to the store.
	Stored bool

	// UpstreamStatus and ContentType are only set on a miss.
	UpstreamStatus int
	ContentType    string

	// Rejection is set when upstream said it has no data. The body is still
	// returned unchanged.
	Rejection *helpers.UpstreamRejectionError
}

// -----------------------------------------------------------------------------
// Proxy answers market data requests from the store, falling back to
// upstream and persisting answers that pass validation. Entries never expire.
// -----------------------------------------------------------------------------

type Proxy struct {
	Store    interfaces.ICacheStore
	Upstream interfaces.IUpstreamClient
	Policy   string
	Logger   *logger.Logger
}

// -----------------------------------------------------------------------------

func NewProxy(store interfaces.ICacheStore, upstream interfaces.IUpstreamClient, policy string, log *logger.Logger) *Proxy {
	if policy == "" {
		policy = PolicyStrict
	}
	if log == nil {
		log = logger.NewLogger(nil, "CacheProxy")
	}
	return &Proxy{
		Store:    store,
		Upstream: upstream,
		Policy:   policy,
		Logger:   log,
	}
}

// -----------------------------------------------------------------------------

// Key is the lowercase hex MD5 of the exact request bytes.
func Key(body []byte) string {
	sum := md5.Sum(body)
	return hex.EncodeToString(sum[:])
}

// -----------------------------------------------------------------------------

// Cacheable reports whether an upstream answer may be persisted and, if
// not, why.
func Cacheable(body []byte, contentType, policy string) (bool, string) {
	if bytes.Contains(body, []byte(smard.NoValueMarker)) {
		return false, "contains no-value marker"
	}
	if bytes.Contains(body, []byte(smard.NoDataMarker)) {
		return false, "contains no-data message"
	}
	if policy != PolicyLoose && !strings.Contains(contentType, CacheableContentType) {
		return false, "content type " + contentType
	}
	return true, ""
}

// -----------------------------------------------------------------------------

// Handle serves body from the store or forwards it upstream. Only transport
// failures are returned as errors; store problems degrade to a miss on read
// and a logged no-op on write.
func (p *Proxy) Handle(ctx context.Context, body []byte) (*ProxyResponse, error) {
	key := Key(body)

	cached, ok, err := p.Store.Get(ctx, key)
	if err != nil {
		p.Logger.Warning("Cache read %s failed, treating as miss: %v", key, err)
	} else if ok {
		metrics.ObserveCacheRequest(true)
		p.Logger.Debug("Cache hit %s", key)
		return &ProxyResponse{Body: cached, Key: key, Hit: true}, nil
	}
	metrics.ObserveCacheRequest(false)

	resp, err := p.Upstream.Send(ctx, body)
	if err != nil {
		return nil, err
	}

	out := &ProxyResponse{
		Body:           resp.Body,
		Key:            key,
		UpstreamStatus: resp.StatusCode,
		ContentType:    resp.ContentType,
	}
	if bytes.Contains(resp.Body, []byte(smard.NoDataMarker)) {
		out.Rejection = helpers.NewUpstreamRejectionError(smard.NoDataMarker)
	}

	if ok, reason := Cacheable(resp.Body, resp.ContentType, p.Policy); !ok {
		metrics.IncCacheWrite(metrics.ResultSkipped)
		p.Logger.Debug("Not caching %s: %s", key, reason)
		return out, nil
	}

	if err := p.Store.Put(ctx, key, resp.Body); err != nil {
		metrics.IncCacheWrite(metrics.ResultError)
		p.Logger.Warning("Cache write %s failed: %v", key, err)
		return out, nil
	}

	metrics.IncCacheWrite(metrics.ResultStored)
	out.Stored = true
	if resp.StatusCode != http.StatusOK {
		p.Logger.Info("Cached %s with upstream status %d", key, resp.StatusCode)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

// Fetch makes the proxy usable as an in-process data fetcher.
func (p *Proxy) Fetch(ctx context.Context, payload []byte) ([]byte, error) {
	resp, err := p.Handle(ctx, payload)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
