package network

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"energy-forecast/src/helpers"
	"energy-forecast/src/logger"
	"energy-forecast/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logger.Logger {
	l := logger.NewLogger(nil, "test")
	l.SetOutput(io.Discard)
	return l
}

func upstreamConfig(url string) *models.MConfig {
	return &models.MConfig{
		Upstream: models.MUpstreamConfig{
			URL:            url,
			RequestTimeout: 5,
			AcceptLanguage: "de-DE",
		},
	}
}

func TestSendPostsPayloadVerbatim(t *testing.T) {
	var gotBody, gotType, gotLang, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("Datum;Uhrzeit\n"))
	}))
	defer srv.Close()

	client := NewUpstreamClient(upstreamConfig(srv.URL), quietLogger())
	resp, err := client.Send(context.Background(), []byte(`{"request_form":[]}`))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, `{"request_form":[]}`, gotBody)
	assert.Equal(t, "application/json;charset=utf-8", gotType)
	assert.Equal(t, "de-DE", gotLang)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/octet-stream", resp.ContentType)
	assert.Equal(t, "Datum;Uhrzeit\n", string(resp.Body))
}

func TestSendReturnsNon2xxAsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad region"))
	}))
	defer srv.Close()

	client := NewUpstreamClient(upstreamConfig(srv.URL), quietLogger())
	resp, err := client.Send(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad region", string(resp.Body))
}

func TestSendUnreachableIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewUpstreamClient(upstreamConfig(url), quietLogger())
	_, err := client.Send(context.Background(), []byte(`{}`))

	var transport *helpers.TransportError
	require.ErrorAs(t, err, &transport)
	assert.True(t, helpers.IsRetryable(err))
}

func TestSendTimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewUpstreamClient(upstreamConfig(srv.URL), quietLogger())
	client.Client.Timeout = 50 * time.Millisecond

	_, err := client.Send(context.Background(), []byte(`{}`))
	var transport *helpers.TransportError
	assert.ErrorAs(t, err, &transport)
}

func TestProxyClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data.php", r.URL.Path)
		w.Header().Set("X-Cache", "abc")
		_, _ = w.Write([]byte("Datum;Uhrzeit\n"))
	}))
	defer srv.Close()

	client := NewProxyClient(srv.URL+"/data.php", time.Second, quietLogger())
	body, err := client.Fetch(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "Datum;Uhrzeit\n", string(body))
}

func TestProxyClientBadGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream request failed", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewProxyClient(srv.URL, time.Second, quietLogger())
	_, err := client.Fetch(context.Background(), []byte(`{}`))

	var transport *helpers.TransportError
	require.ErrorAs(t, err, &transport)
	assert.Contains(t, err.Error(), "502")
}
