package cache

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"energy-forecast/src/helpers"
	"energy-forecast/src/logger"
	"energy-forecast/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csvBody = "Datum;Uhrzeit;Photovoltaik[MWh]\n01.01.2023;12:00;3.500\n"

type memoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	readErr error
	putErr  error
	puts    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string][]byte{}}
}

func (s *memoryStore) Initialize(ctx context.Context) error { return nil }
func (s *memoryStore) Name() string                         { return "memory" }
func (s *memoryStore) Close() error                         { return nil }

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, false, s.readErr
	}
	b, ok := s.entries[key]
	return b, ok, nil
}

func (s *memoryStore) Put(ctx context.Context, key string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.entries[key] = body
	return nil
}

func (s *memoryStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

type countingUpstream struct {
	body        string
	contentType string
	err         error
	calls       int
	payloads    [][]byte
}

func (u *countingUpstream) Send(ctx context.Context, payload []byte) (*models.MUpstreamResponse, error) {
	u.calls++
	u.payloads = append(u.payloads, payload)
	if u.err != nil {
		return nil, u.err
	}
	return &models.MUpstreamResponse{Body: []byte(u.body), StatusCode: 200, ContentType: u.contentType}, nil
}

func quietLogger() *logger.Logger {
	l := logger.NewLogger(nil, "test")
	l.SetOutput(io.Discard)
	return l
}

func newTestProxy(store *memoryStore, upstream *countingUpstream, policy string) *Proxy {
	return NewProxy(store, upstream, policy, quietLogger())
}

func TestKeyIsMD5Hex(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", Key(nil))
	assert.Equal(t, "0cc175b9c0f1b6a831c399e269772661", Key([]byte("a")))
	assert.NotEqual(t, Key([]byte(`{"a":1}`)), Key([]byte(`{"a": 1}`)))
}

func TestSecondIdenticalRequestIsServedFromCache(t *testing.T) {
	store := newMemoryStore()
	upstream := &countingUpstream{body: csvBody, contentType: "application/octet-stream;charset=UTF-8"}
	proxy := newTestProxy(store, upstream, PolicyStrict)
	body := []byte(`{"request_form":[{"format":"CSV"}]}`)

	first, err := proxy.Handle(context.Background(), body)
	require.NoError(t, err)
	assert.False(t, first.Hit)
	assert.True(t, first.Stored)

	second, err := proxy.Handle(context.Background(), body)
	require.NoError(t, err)
	assert.True(t, second.Hit)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, first.Key, second.Key)

	assert.Equal(t, 1, upstream.calls)
	assert.Equal(t, body, upstream.payloads[0])
}

func TestNoDataAnswerIsNeverCached(t *testing.T) {
	store := newMemoryStore()
	upstream := &countingUpstream{body: "Keine Daten für gegebene Anfrage", contentType: "application/octet-stream"}
	proxy := newTestProxy(store, upstream, PolicyStrict)
	body := []byte(`{"request_form":[]}`)

	for i := 0; i < 2; i++ {
		resp, err := proxy.Handle(context.Background(), body)
		require.NoError(t, err)
		assert.False(t, resp.Hit)
		assert.False(t, resp.Stored)
		require.NotNil(t, resp.Rejection)
		assert.Equal(t, "Keine Daten für gegebene Anfrage", string(resp.Body))
	}
	assert.Equal(t, 2, upstream.calls)
	assert.Zero(t, store.puts)
}

func TestCacheableRules(t *testing.T) {
	cases := []struct {
		name        string
		body        string
		contentType string
		policy      string
		want        bool
	}{
		{"valid csv", csvBody, "application/octet-stream", PolicyStrict, true},
		{"no value marker", "Datum;Uhrzeit;X\n01.01.2023;12:00;-\n", "application/octet-stream", PolicyStrict, false},
		{"no data", "Keine Daten für gegebene Anfrage", "application/octet-stream", PolicyLoose, false},
		{"wrong content type strict", csvBody, "text/html", PolicyStrict, false},
		{"missing content type strict", csvBody, "", PolicyStrict, false},
		{"wrong content type loose", csvBody, "text/html", PolicyLoose, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := Cacheable([]byte(tc.body), tc.contentType, tc.policy)
			assert.Equal(t, tc.want, ok)
			if !ok {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestTransportErrorIsReturnedAndNotCached(t *testing.T) {
	store := newMemoryStore()
	upstream := &countingUpstream{err: helpers.NewTransportError("upstream request failed", errors.New("timeout"))}
	proxy := newTestProxy(store, upstream, PolicyStrict)

	_, err := proxy.Handle(context.Background(), []byte(`{}`))
	var transport *helpers.TransportError
	require.ErrorAs(t, err, &transport)
	assert.Zero(t, store.puts)
}

func TestStoreReadFailureDegradesToMiss(t *testing.T) {
	store := newMemoryStore()
	store.readErr = helpers.NewStorageError("read", errors.New("permission denied"))
	upstream := &countingUpstream{body: csvBody, contentType: "application/octet-stream"}
	proxy := newTestProxy(store, upstream, PolicyStrict)

	resp, err := proxy.Handle(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, csvBody, string(resp.Body))
	assert.Equal(t, 1, upstream.calls)
}

func TestStoreWriteFailureIsSilent(t *testing.T) {
	store := newMemoryStore()
	store.putErr = helpers.NewStorageError("write", errors.New("disk full"))
	upstream := &countingUpstream{body: csvBody, contentType: "application/octet-stream"}
	proxy := newTestProxy(store, upstream, PolicyStrict)

	resp, err := proxy.Handle(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.False(t, resp.Stored)
	assert.Equal(t, csvBody, string(resp.Body))
	assert.Equal(t, 1, store.puts)
}

func TestFetchReturnsBody(t *testing.T) {
	upstream := &countingUpstream{body: csvBody, contentType: "text/plain"}
	proxy := newTestProxy(newMemoryStore(), upstream, PolicyLoose)

	body, err := proxy.Fetch(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, csvBody, string(body))

	_, err = proxy.Fetch(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.calls)
}
