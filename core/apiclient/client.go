package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// RequestIDHeader carries a per-request identifier for server-side correlation.
const RequestIDHeader = "X-Request-ID"

// Request describes a single API call.
type Request struct {
	// Method is the HTTP method.
	Method string
	// Path is appended to the base URL.
	Path string
	// Body is the request body, may be nil.
	Body io.Reader
	// ContentType is sent when Body is set.
	ContentType string
	// Anonymous skips the bearer token (login and signup).
	Anonymous bool
}

// Client talks to the remote REST API. Authenticated requests carry the bearer
// token obtained from the configured oauth2.TokenSource.
type Client struct {
	baseURL   string
	userAgent string
	authed    *http.Client
	anon      *http.Client
	logger    *zap.Logger
	reads     singleflight.Group
}

// New creates a client. tokens supplies the bearer token for authenticated calls.
func New(cfg Config, tokens oauth2.TokenSource, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api base url is empty")
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, fmt.Errorf("api base url %q must use http or https", cfg.BaseURL)
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 15
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "catalog-console/1.0"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent: userAgent,
		authed: &http.Client{
			Timeout:   timeoutDuration,
			Transport: &oauth2.Transport{Source: tokens, Base: base},
		},
		anon: &http.Client{
			Timeout:   timeoutDuration,
			Transport: base,
		},
		logger: logger,
	}, nil
}

// URL returns the absolute URL of an API path.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Do executes the request and returns the raw body of a 2xx response.
// Non-2xx responses are returned as *HTTPError.
func (c *Client) Do(ctx context.Context, r Request) ([]byte, error) {
	url := c.URL(r.Path)
	req, err := http.NewRequestWithContext(ctx, r.Method, url, r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if r.Body != nil && r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}

	httpClient := c.authed
	if r.Anonymous {
		httpClient = c.anon
	}

	l := c.logger.With(
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("path", r.Path),
	)
	start := time.Now()

	resp, err := httpClient.Do(req)
	if err != nil {
		l.Debug("API request failed", zap.Error(err))
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	l.Debug("API request completed",
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewHTTPError(resp.StatusCode, url, body)
	}
	return body, nil
}

// GetJSON fetches path and decodes the body into out. Concurrent reads of the same
// path share a single network round trip. The shared read is not cancelled by any
// one caller; each caller stops waiting when its own ctx is done.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	ch := c.reads.DoChan(path, func() (interface{}, error) {
		return c.Do(context.WithoutCancel(ctx), Request{Method: http.MethodGet, Path: path})
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return decode(res.Val.([]byte), out)
	}
}

// Forget makes the next GetJSON of path start a new round trip instead of
// joining one already in flight.
func (c *Client) Forget(path string) {
	c.reads.Forget(path)
}

// SendJSON sends in as a JSON body and decodes the response into out (when non-nil).
func (c *Client) SendJSON(ctx context.Context, method, path string, in, out any) error {
	return c.send(ctx, method, path, in, out, false)
}

// SendAnonymousJSON is SendJSON without the bearer token.
func (c *Client) SendAnonymousJSON(ctx context.Context, method, path string, in, out any) error {
	return c.send(ctx, method, path, in, out, true)
}

func (c *Client) send(ctx context.Context, method, path string, in, out any, anonymous bool) error {
	req := Request{Method: method, Path: path, Anonymous: anonymous}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		req.Body = bytes.NewReader(payload)
		req.ContentType = "application/json"
	}

	body, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return decode(body, out)
}

func decode(body []byte, out any) error {
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("%w: invalid JSON", ErrMalformedBody)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return nil
}
