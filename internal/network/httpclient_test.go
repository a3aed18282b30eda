// internal/network/httpclient_test.go
package network

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// -- Test Cases: Configuration and Defaults (ClientConfig) --

func TestNewDefaultClientConfig(t *testing.T) {
	config := NewDefaultClientConfig()

	assert.Equal(t, DefaultRequestTimeout, config.RequestTimeout)
	assert.Equal(t, DefaultResponseHeaderTimeout, config.ResponseHeaderTimeout)
	assert.Equal(t, DefaultMaxIdleConnsPerHost, config.MaxIdleConnsPerHost)
	assert.True(t, config.ForceHTTP2, "HTTP/2 should be preferred by default")
	assert.False(t, config.IgnoreTLSErrors)
	assert.NotNil(t, config.Logger)
}

func TestConfigureTLS(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		tlsConfig := configureTLS(&ClientConfig{})
		assert.Equal(t, uint16(tls.VersionTLS12), tlsConfig.MinVersion)
		assert.False(t, tlsConfig.InsecureSkipVerify)
		assert.NotNil(t, tlsConfig.ClientSessionCache)
	})

	t.Run("custom config is cloned", func(t *testing.T) {
		custom := &tls.Config{ServerName: "api.internal"}
		tlsConfig := configureTLS(&ClientConfig{TLSConfig: custom, IgnoreTLSErrors: true})

		assert.Equal(t, "api.internal", tlsConfig.ServerName)
		assert.Equal(t, uint16(tls.VersionTLS12), tlsConfig.MinVersion)
		assert.True(t, tlsConfig.InsecureSkipVerify)
		assert.False(t, custom.InsecureSkipVerify, "the caller's config must not be mutated")
	})
}

func TestNewHTTPTransport(t *testing.T) {
	t.Run("proxy override", func(t *testing.T) {
		proxy, _ := url.Parse("http://proxy.local:3128")
		cfg := NewDefaultClientConfig()
		cfg.ProxyURL = proxy

		tr := NewHTTPTransport(cfg)
		req, _ := http.NewRequest(http.MethodGet, "https://api.hyperaide.com", nil)
		got, err := tr.Proxy(req)
		require.NoError(t, err)
		assert.Equal(t, proxy, got)
	})

	t.Run("http1 only advertises http/1.1", func(t *testing.T) {
		cfg := NewDefaultClientConfig()
		cfg.ForceHTTP2 = false
		tr := NewHTTPTransport(cfg)
		assert.Equal(t, []string{"http/1.1"}, tr.TLSClientConfig.NextProtos)
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		assert.NotNil(t, NewHTTPTransport(nil))
	})
}

func TestNewClient_HTTP2(t *testing.T) {
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Proto)
	}))
	server.EnableHTTP2 = true
	server.StartTLS()
	defer server.Close()

	pool := x509.NewCertPool()
	pool.AddCert(server.Certificate())

	cfg := NewDefaultClientConfig()
	cfg.Logger = zaptest.NewLogger(t)
	cfg.TLSConfig = &tls.Config{RootCAs: pool}
	client := NewClient(cfg)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, 2, resp.ProtoMajor)
	assert.Equal(t, "HTTP/2.0", string(body))
}

func TestNewClient_Redirects(t *testing.T) {
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request leaked to another host: %s", r.URL)
	}))
	defer other.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Header.Get("x-api-key"))
	})
	mux.HandleFunc("/away", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, other.URL+"/steal", http.StatusFound)
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(NewDefaultClientConfig())

	t.Run("same host is followed", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, server.URL+"/old", nil)
		req.Header.Set("x-api-key", "k")
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "k", string(body))
	})

	t.Run("other host is refused", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, server.URL+"/away", nil)
		req.Header.Set("x-api-key", "k")
		_, err := client.Do(req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCrossHostRedirect))
	})

	t.Run("loops stop", func(t *testing.T) {
		_, err := client.Get(server.URL + "/loop")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stopped after 5 redirects")
	})
}
