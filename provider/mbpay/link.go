package mbpay

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mstgnz/mbpay/infra/validate"
)

const (
	PaymentLinkScheme = "mbpay"
	PaymentLinkHost   = "payorder"

	paymentLinkPrefix = PaymentLinkScheme + "://" + PaymentLinkHost + "?data="
)

// PaymentLinkPayload is the signed JSON object carried inside a payment link
type PaymentLinkPayload struct {
	AppID     string `json:"app_id"`
	Expire    int64  `json:"expire"`
	Nonce     string `json:"nonce"`
	OrderNo   string `json:"order_no"`
	Amount    int64  `json:"amount"`
	Subject   string `json:"subject"`
	NotifyURL string `json:"notify_url,omitempty"`
	Sign      string `json:"sign"`

	// unknown keys found while decoding; they stay part of the signed set
	extra Params
	// amount and expire exactly as decoded, which may be non-integral
	numbers map[string]json.Number
}

// paymentLinkWire carries the numeric fields as JSON numbers so links
// from other platforms with values like 100.0 or 99.5 still decode
type paymentLinkWire struct {
	AppID     string      `json:"app_id"`
	Expire    json.Number `json:"expire"`
	Nonce     string      `json:"nonce"`
	OrderNo   string      `json:"order_no"`
	Amount    json.Number `json:"amount"`
	Subject   string      `json:"subject"`
	NotifyURL string      `json:"notify_url,omitempty"`
	Sign      string      `json:"sign"`
}

var payloadKeys = map[string]bool{
	"app_id": true, "expire": true, "nonce": true, "order_no": true,
	"amount": true, "subject": true, "notify_url": true, signKey: true,
}

// NewPaymentLinkPayload validates req and returns the signed payload.
// Expire is fixed to now plus req.Expire minutes.
func NewPaymentLinkPayload(req *PaymentLinkRequest, appID, secret string, now time.Time) (*PaymentLinkPayload, error) {
	if req == nil {
		return nil, &Error{Kind: KindValidation, Message: "request is required"}
	}
	if err := validate.Struct(req); err != nil {
		return nil, newValidationError(err)
	}

	nonce := req.Nonce
	if nonce == "" {
		var err error
		if nonce, err = GenerateNonce(DefaultNonceLength); err != nil {
			return nil, err
		}
	}

	payload := &PaymentLinkPayload{
		AppID:     appID,
		Expire:    now.Unix() + req.Expire*60,
		Nonce:     nonce,
		OrderNo:   req.OrderNo,
		Amount:    req.Amount,
		Subject:   req.Subject,
		NotifyURL: req.NotifyURL,
	}
	payload.Sign = Sign(payload.Params(), secret)
	return payload, nil
}

// Params returns the signed fields, without sign. notify_url is included
// only when set.
func (p *PaymentLinkPayload) Params() Params {
	params := Params{
		"app_id":   p.AppID,
		"expire":   p.ExpireNumber(),
		"nonce":    p.Nonce,
		"order_no": p.OrderNo,
		"amount":   p.AmountNumber(),
		"subject":  p.Subject,
	}
	if p.NotifyURL != "" {
		params["notify_url"] = p.NotifyURL
	}
	for k, v := range p.extra {
		params[k] = v
	}
	return params
}

// AmountNumber returns amount as it is signed. A decoded value such as
// 99.5 is kept as long as Amount still holds its integer part.
func (p *PaymentLinkPayload) AmountNumber() json.Number {
	return p.number("amount", p.Amount)
}

// ExpireNumber returns expire as it is signed
func (p *PaymentLinkPayload) ExpireNumber() json.Number {
	return p.number("expire", p.Expire)
}

func (p *PaymentLinkPayload) number(key string, v int64) json.Number {
	if n, ok := p.numbers[key]; ok {
		if i, err := truncateNumber(n); err == nil && i == v {
			return n
		}
	}
	return json.Number(strconv.FormatInt(v, 10))
}

func truncateNumber(n json.Number) (int64, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// Verify reports whether Sign matches the other fields
func (p *PaymentLinkPayload) Verify(secret string) bool {
	return p.Sign != "" && Verify(p.Params(), secret, p.Sign)
}

// ExpiresAt returns the absolute expiry
func (p *PaymentLinkPayload) ExpiresAt() time.Time {
	return time.Unix(p.Expire, 0)
}

// Expired reports whether now is past the embedded expiry
func (p *PaymentLinkPayload) Expired(now time.Time) bool {
	return now.Unix() > p.Expire
}

// Encode serializes the payload into an mbpay://payorder URI
func (p *PaymentLinkPayload) Encode() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	wire := paymentLinkWire{
		AppID:     p.AppID,
		Expire:    p.ExpireNumber(),
		Nonce:     p.Nonce,
		OrderNo:   p.OrderNo,
		Amount:    p.AmountNumber(),
		Subject:   p.Subject,
		NotifyURL: p.NotifyURL,
		Sign:      p.Sign,
	}
	if err := enc.Encode(wire); err != nil {
		return "", fmt.Errorf("failed to marshal payment link payload: %w", err)
	}
	raw := bytes.TrimRight(buf.Bytes(), "\n")

	encoded := base64.StdEncoding.EncodeToString(raw)
	return paymentLinkPrefix + url.QueryEscape(encoded), nil
}

// DecodePaymentLink parses an mbpay://payorder URI back into its payload.
// The signature is not checked; see VerifyPaymentLink.
func DecodePaymentLink(uri string) (*PaymentLinkPayload, error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return nil, newParseError("payment link is not a valid URI", err)
	}
	if u.Scheme != PaymentLinkScheme || u.Host != PaymentLinkHost {
		return nil, newParseError(fmt.Sprintf("payment link must start with %s://%s", PaymentLinkScheme, PaymentLinkHost), nil)
	}

	data := u.Query().Get("data")
	if data == "" {
		return nil, newParseError("payment link has no data", nil)
	}
	// an unescaped '+' arrives as a space
	data = strings.ReplaceAll(data, " ", "+")

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, newParseError("payment link data is not valid base64", err)
	}

	var wire paymentLinkWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, newParseError("payment link data is not a valid payload", err)
	}
	payload := &PaymentLinkPayload{
		AppID:     wire.AppID,
		Nonce:     wire.Nonce,
		OrderNo:   wire.OrderNo,
		Subject:   wire.Subject,
		NotifyURL: wire.NotifyURL,
		Sign:      wire.Sign,
		numbers:   map[string]json.Number{},
	}
	for key, n := range map[string]json.Number{"amount": wire.Amount, "expire": wire.Expire} {
		if n == "" {
			continue
		}
		i, err := truncateNumber(n)
		if err != nil {
			return nil, newParseError(fmt.Sprintf("payment link %s is not a number", key), err)
		}
		payload.numbers[key] = n
		if key == "amount" {
			payload.Amount = i
		} else {
			payload.Expire = i
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, newParseError("payment link data is not a valid payload", err)
	}
	for key, value := range fields {
		if payloadKeys[key] {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(value))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, newParseError("payment link data is not a valid payload", err)
		}
		if payload.extra == nil {
			payload.extra = Params{}
		}
		payload.extra[key] = v
	}

	return payload, nil
}

// VerifyPaymentLink decodes uri and checks its signature with secret
func VerifyPaymentLink(uri, secret string) (*PaymentLinkPayload, error) {
	payload, err := DecodePaymentLink(uri)
	if err != nil {
		return nil, err
	}
	if !payload.Verify(secret) {
		return payload, newSignatureError("payment link signature mismatch")
	}
	return payload, nil
}

// GeneratePaymentLink builds a signed mbpay://payorder link without
// contacting the gateway
func (c *Client) GeneratePaymentLink(req *PaymentLinkRequest) (string, error) {
	payload, err := NewPaymentLinkPayload(req, c.cfg.AppID, c.cfg.AppSecret, c.now())
	if err != nil {
		return "", err
	}
	link, err := payload.Encode()
	if err != nil {
		return "", err
	}

	c.log(pathPaymentLink, "").
		AddField("order_no", payload.OrderNo).
		AddField("expire", payload.Expire).
		Debug("Payment link generated")

	return link, nil
}

// VerifyPaymentLink checks a link against this client's secret
func (c *Client) VerifyPaymentLink(uri string) (*PaymentLinkPayload, error) {
	return VerifyPaymentLink(uri, c.cfg.AppSecret)
}
