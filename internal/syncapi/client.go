// Package syncapi talks to the Hyperaide browser-sync endpoints.
package syncapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/hyperaide-sync/internal/cookies"
	"github.com/xkilldash9x/hyperaide-sync/internal/network"
)

const (
	syncPath     = "/api/v1/browser_sync"
	startPath    = syncPath + "/start"
	completePath = syncPath + "/complete"

	maxResponseBytes = 1 << 20
	maxMessageLen    = 200

	// Used when a 400 to an upload carries no message.
	defaultRejectReason = "No cookies provided"
)

// Config configures a Client.
type Config struct {
	BaseURL       string
	Token         string
	UserAgent     string
	Timeout       time.Duration
	UploadTimeout time.Duration

	// HTTPClient defaults to network.NewClient.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is an authenticated client for the sync endpoints. The token is sent
// in the x-api-key header and never logged.
type Client struct {
	baseURL       *url.URL
	token         string
	userAgent     string
	timeout       time.Duration
	uploadTimeout time.Duration
	http          *http.Client
	logger        *zap.Logger
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("syncapi: token is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("syncapi: invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("syncapi: base URL %q must be an absolute http(s) URL", cfg.BaseURL)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = cfg.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "hyperaide-sync"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		netCfg := network.NewDefaultClientConfig()
		netCfg.Logger = logger.Named("httpclient")
		// Per-call deadlines come from the context; this is only the ceiling.
		netCfg.RequestTimeout = cfg.UploadTimeout
		httpClient = network.NewClient(netCfg)
	}

	return &Client{
		baseURL:       base,
		token:         cfg.Token,
		userAgent:     cfg.UserAgent,
		timeout:       cfg.Timeout,
		uploadTimeout: cfg.UploadTimeout,
		http:          httpClient,
		logger:        logger.Named("syncapi"),
	}, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Start opens a sync session and reports what is already connected.
func (c *Client) Start(ctx context.Context) (*StartResult, error) {
	var out StartResult
	if err := c.do(ctx, "start", http.MethodPost, startPath, c.timeout, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sync uploads auth bundles together with the visited domains. A 400 is not
// an error: it means the service rejected the whole upload, and every bundle
// is reported as rejected with the service's reason.
func (c *Client) Sync(ctx context.Context, bundles []cookies.SiteAuthBundle, visited []string) (*SyncResult, error) {
	body := buildCompleteRequest(bundles, visited)

	var out completeResponse
	err := c.do(ctx, "complete", http.MethodPost, completePath, c.uploadTimeout, body, &out)

	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusBadRequest {
		reason := reqErr.Message
		if reason == "" {
			reason = defaultRejectReason
		}
		result := &SyncResult{Sites: make([]SiteResult, 0, len(bundles))}
		for _, b := range bundles {
			result.Sites = append(result.Sites, SiteResult{Domain: b.Domain, Reason: reason})
		}
		c.logger.Info("Upload rejected", zap.String("reason", reason), zap.Int("sites", len(bundles)))
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	rejected := make(map[string]string, len(out.RejectedSites))
	for _, r := range out.RejectedSites {
		rejected[cookies.NormalizeDomain(r.Domain)] = r.Reason
	}
	result := &SyncResult{
		Sites:          make([]SiteResult, 0, len(bundles)),
		ConnectedSites: out.ConnectedSites,
	}
	for _, b := range bundles {
		reason, bad := rejected[b.Domain]
		result.Sites = append(result.Sites, SiteResult{Domain: b.Domain, Accepted: !bad, Reason: reason})
	}
	return result, nil
}

// Status reports what the service currently holds.
func (c *Client) Status(ctx context.Context) (*SyncStatusReport, error) {
	var out SyncStatusReport
	if err := c.do(ctx, "status", http.MethodGet, syncPath, c.timeout, nil, &out); err != nil {
		return nil, err
	}
	if out.Status == "" {
		out.Status = StatusNotSynced
	}
	return &out, nil
}

// Reset disconnects every synced site.
func (c *Client) Reset(ctx context.Context) (*ResetResult, error) {
	var out resetResponse
	if err := c.do(ctx, "reset", http.MethodDelete, syncPath, c.timeout, nil, &out); err != nil {
		return nil, err
	}
	result := &ResetResult{Reset: true, Message: out.Message}
	if out.Success != nil {
		result.Reset = *out.Success
	}
	return result, nil
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// do performs one JSON round trip. Errors are typed by outcome: *NetworkError,
// *AuthError, *ServerError or *RequestError. A cancelled ctx is returned as is.
func (c *Client) do(ctx context.Context, op, method, path string, timeout time.Duration, in, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := c.endpoint(path)
	req, err := http.NewRequestWithContext(reqCtx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("x-api-key", c.token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := c.logger.With(zap.String("op", op), zap.String("request_id", requestID))
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
		logger.Debug("Request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return &NetworkError{Op: op, URL: c.baseURL.Host, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
		return &NetworkError{Op: op, URL: c.baseURL.Host, Err: fmt.Errorf("reading response: %w", err)}
	}
	logger.Debug("Request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &AuthError{Op: op, StatusCode: code, Message: errorMessage(data)}
	case code >= 500:
		return &ServerError{Op: op, StatusCode: code, Message: errorMessage(data)}
	case code < 200 || code > 299:
		return &RequestError{Op: op, StatusCode: code, Message: errorMessage(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Message: "malformed response body: " + err.Error()}
	}
	return nil
}

// errorMessage pulls a human readable message out of an error body: the
// "error" or "message" field of a JSON body, otherwise the trimmed text.
func errorMessage(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}
	var er errorResponse
	if json.Unmarshal(data, &er) == nil {
		if er.Error != "" {
			return er.Error
		}
		if er.Message != "" {
			return er.Message
		}
		if data[0] == '{' {
			return ""
		}
	}
	msg := string(data)
	if !utf8.ValidString(msg) {
		return ""
	}
	return truncate(msg, maxMessageLen)
}

// truncate cuts s to at most n bytes without splitting a rune and marks the
// cut with "...".
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
