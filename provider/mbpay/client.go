package mbpay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mstgnz/mbpay/infra/logger"
	"github.com/mstgnz/mbpay/infra/opensearch"
	"github.com/mstgnz/mbpay/infra/validate"
	"github.com/mstgnz/mbpay/provider"
)

const (
	// DefaultBaseURL is the production gateway
	DefaultBaseURL = "https://www.mbpay.world"
	// DefaultTimeout bounds every call when Config.Timeout is zero
	DefaultTimeout = 30 * time.Second

	maxRecordTimeout = 5 * time.Second

	pathBalance      = "/merchant/balance"
	pathPay          = "/merchant/pay"
	pathPaymentOrder = "/merchant/generatepaylink"
	pathOrderInfo    = "/merchant/orderinfo"
	pathPayOrderInfo = "/merchant/payorderinfo"
	pathPaymentLink  = "paylink"
)

// Config is fixed at construction
type Config struct {
	BaseURL   string        `json:"baseUrl" validate:"required,url"`
	AppID     string        `json:"appId" validate:"required"`
	AppSecret string        `json:"appSecret" validate:"required"`
	Timeout   time.Duration `json:"timeout"`
}

// CallRecorder receives one entry per gateway call
type CallRecorder interface {
	LogAPICall(ctx context.Context, entry opensearch.APICallLog) error
}

// Option customizes a Client
type Option func(*Client)

// WithTransport replaces the default net/http transport
func WithTransport(t provider.Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithClock replaces time.Now for timestamps and link expiry
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithRecorder records every call, for example into OpenSearch
func WithRecorder(r CallRecorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// Client talks to the gateway. It holds no mutable state and is safe for
// concurrent use.
type Client struct {
	cfg       Config
	transport provider.Transport
	now       func() time.Time
	recorder  CallRecorder
}

// ConfigFields describes the credential map accepted by NewClientFromMap
func ConfigFields() []provider.ConfigField {
	return []provider.ConfigField{
		{Key: "baseUrl", Required: true, Type: "url", Description: "Gateway base URL", Example: DefaultBaseURL},
		{Key: "appId", Required: true, Type: "string", Description: "Merchant app ID", Example: "app_123456"},
		{Key: "appSecret", Required: true, Type: "string", Description: "Merchant signing secret", Example: "your-app-secret", MinLength: 8},
		{Key: "timeout", Required: false, Type: "duration", Description: "Per-call timeout", Example: "30s"},
	}
}

// NewClient validates cfg and builds a client
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, newValidationError(err)
	}

	c := &Client{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = provider.NewProviderHTTPClient(provider.CreateHTTPClientConfig(cfg.BaseURL, cfg.Timeout))
	}

	return c, nil
}

// NewClientFromMap builds a client from string credentials such as
// config.GatewayConfig.AsMap()
func NewClientFromMap(conf map[string]string, opts ...Option) (*Client, error) {
	if err := provider.ValidateConfigFields("mbpay", conf, ConfigFields()); err != nil {
		return nil, newValidationError(err)
	}

	cfg := Config{
		BaseURL:   conf["baseUrl"],
		AppID:     conf["appId"],
		AppSecret: conf["appSecret"],
	}
	if t := strings.TrimSpace(conf["timeout"]); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return nil, newValidationError(fmt.Errorf("invalid timeout: %w", err))
		}
		cfg.Timeout = d
	}

	return NewClient(cfg, opts...)
}

// AppID returns the merchant identity the client signs with
func (c *Client) AppID() string {
	return c.cfg.AppID
}

// Timeout returns the per-call bound
func (c *Client) Timeout() time.Duration {
	return c.cfg.Timeout
}

// do signs params, posts them to endpoint and returns a successful envelope.
// Every failure comes back as *Error.
func (c *Client) do(ctx context.Context, endpoint string, params Params) (*Envelope, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	signed := Authenticate(params, c.cfg.AppID, c.cfg.AppSecret, c.now())
	requestID := uuid.NewString()
	form := signed.Form()

	start := time.Now()
	resp, err := c.transport.Perform(callCtx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpoint,
		Headers:  map[string]string{"X-Request-ID": requestID},
		FormData: form,
	})
	elapsed := time.Since(start)

	env, callErr := c.classify(callCtx, resp, err)

	log := c.log(endpoint, requestID).AddField("duration_ms", elapsed.Milliseconds())
	if resp != nil {
		log.AddField("status", resp.StatusCode)
	}
	switch KindOf(callErr) {
	case "":
		log.Debug("Gateway call completed")
	case KindApplication:
		log.AddField("code", callErr.(*Error).Code).Warn("Gateway rejected call")
	default:
		log.Error("Gateway call failed", callErr)
	}

	c.record(ctx, endpoint, requestID, form, resp, elapsed, callErr)

	return env, callErr
}

func (c *Client) classify(ctx context.Context, resp *provider.HTTPResponse, err error) (*Envelope, error) {
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, newTimeoutError(fmt.Sprintf("request timed out after %s", c.cfg.Timeout), err)
		}
		if errors.Is(err, context.Canceled) {
			return nil, newTransportError("request cancelled", err)
		}
		return nil, newTransportError("request failed", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newProtocolError(resp.StatusCode)
	}

	env, err := ParseEnvelope(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := env.ToError(); err != nil {
		return nil, err
	}
	return env, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) record(ctx context.Context, endpoint, requestID string, form map[string]string, resp *provider.HTTPResponse, elapsed time.Duration, callErr error) {
	if c.recorder == nil {
		return
	}

	entry := opensearch.APICallLog{
		Timestamp: c.now(),
		AppID:     c.cfg.AppID,
		Method:    http.MethodPost,
		Endpoint:  endpoint,
		RequestID: requestID,
		OrderNo:   form["order_no"],
		Request:   opensearch.RequestLog{Params: form},
		Response:  opensearch.ResponseLog{ProcessingTimeMs: elapsed.Milliseconds()},
	}
	if resp != nil {
		entry.Response.StatusCode = resp.StatusCode
		entry.Response.Body = string(resp.Body)
	}
	if e, ok := AsError(callErr); ok {
		entry.Error = &opensearch.ErrorInfo{Kind: string(e.Kind), Code: e.Code, Message: e.Message}
	}

	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.recordTimeout())
	defer cancel()

	if err := c.recorder.LogAPICall(recCtx, entry); err != nil {
		c.log(endpoint, requestID).Warn(fmt.Sprintf("Failed to record gateway call: %v", err))
	}
}

// recordTimeout is the call timeout, capped at maxRecordTimeout
func (c *Client) recordTimeout() time.Duration {
	return min(c.cfg.Timeout, maxRecordTimeout)
}

func (c *Client) log(endpoint, requestID string) *logger.ContextLogger {
	return logger.WithContext(logger.LogContext{
		AppID:     c.cfg.AppID,
		Endpoint:  endpoint,
		RequestID: requestID,
	})
}

func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		return newValidationError(err)
	}
	return nil
}
