// Package provider holds gateway-neutral plumbing: the HTTP transport used
// by gateway clients and validation of credential maps.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrResponseTooLarge is returned when a reply exceeds MaxBodyBytes
var ErrResponseTooLarge = errors.New("response too large")

// Transport performs one HTTP exchange. Implementations must honor ctx
// cancellation and must not treat non-2xx statuses as errors; classifying
// the status is the caller's job.
type Transport interface {
	Perform(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error)
}

// HTTPClientConfig represents configuration for HTTP client
type HTTPClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	DefaultHeaders map[string]string
	// MaxBodyBytes caps the reply size; larger replies fail with
	// ErrResponseTooLarge. 0 means 4 MiB
	MaxBodyBytes int64
}

// HTTPRequest represents a standardized HTTP request
type HTTPRequest struct {
	Method   string
	Endpoint string
	Headers  map[string]string
	// FormData is sent as the url-encoded body for POST and as the query for GET
	FormData map[string]string
}

// HTTPResponse represents a standardized HTTP response
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// ProviderHTTPClient is the net/http implementation of Transport
type ProviderHTTPClient struct {
	config *HTTPClientConfig
	client *http.Client
}

// NewProviderHTTPClient creates a new provider HTTP client
func NewProviderHTTPClient(config *HTTPClientConfig) *ProviderHTTPClient {
	cfg := *config
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 4 << 20
	}

	return &ProviderHTTPClient{
		config: &cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// CreateHTTPClientConfig creates the standard configuration for the gateway
func CreateHTTPClientConfig(baseURL string, timeout time.Duration) *HTTPClientConfig {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPClientConfig{
		BaseURL: baseURL,
		Timeout: timeout,
		DefaultHeaders: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "MBPay-Go/1.0",
		},
	}
}

// Perform sends the request and returns whatever status the server answered with
func (c *ProviderHTTPClient) Perform(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodPost
	}

	fullURL := joinURL(c.config.BaseURL, req.Endpoint)

	form := url.Values{}
	for key, value := range req.FormData {
		form.Set(key, value)
	}

	var body io.Reader
	if method == http.MethodGet {
		if len(form) > 0 {
			u, err := url.Parse(fullURL)
			if err != nil {
				return nil, fmt.Errorf("invalid request URL: %w", err)
			}
			q := u.Query()
			for key := range form {
				q.Set(key, form.Get(key))
			}
			u.RawQuery = q.Encode()
			fullURL = u.String()
		}
	} else {
		body = strings.NewReader(form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(respBody)) > c.config.MaxBodyBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrResponseTooLarge, c.config.MaxBodyBytes)
	}

	return &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}

func joinURL(base, endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if strings.HasSuffix(base, "/") && strings.HasPrefix(endpoint, "/") {
		return base + endpoint[1:]
	}
	if !strings.HasSuffix(base, "/") && !strings.HasPrefix(endpoint, "/") && endpoint != "" {
		return base + "/" + endpoint
	}
	return base + endpoint
}
