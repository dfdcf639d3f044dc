package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/mbpay/infra/logger"
	"github.com/mstgnz/mbpay/infra/middle"
	"github.com/mstgnz/mbpay/infra/response"
	"github.com/mstgnz/mbpay/provider/mbpay"
)

// GatewayService is the part of the MBPay client the bridge exposes
type GatewayService interface {
	GetBalance(ctx context.Context) (*mbpay.BalanceResponse, error)
	Pay(ctx context.Context, req *mbpay.PayRequest) (*mbpay.PayResponse, error)
	GeneratePaymentLink(req *mbpay.PaymentLinkRequest) (string, error)
	VerifyPaymentLink(uri string) (*mbpay.PaymentLinkPayload, error)
	CreatePaymentOrder(ctx context.Context, req *mbpay.PaymentOrderRequest) (*mbpay.PaymentOrderResponse, error)
	GetOrderInfo(ctx context.Context, orderNo string, merchantID int64) (*mbpay.OrderInfoResponse, error)
	GetPayOrderInfo(ctx context.Context, orderNo string, merchantID int64) (*mbpay.PayOrderInfoResponse, error)
	VerifyNotification(params map[string]string) error
}

// NotifyCallback runs business logic for a verified gateway notification.
// Returning an error makes the bridge answer "fail" so the gateway retries.
type NotifyCallback func(ctx context.Context, params map[string]string) error

// PaymentHandler handles payment related HTTP requests
type PaymentHandler struct {
	gateway    GatewayService
	merchantID int64
	onNotify   NotifyCallback
	now        func() time.Time
}

// NewPaymentHandler creates a new payment handler. merchantID is used by
// order endpoints when the caller does not pass one.
func NewPaymentHandler(gateway GatewayService, merchantID int64, onNotify NotifyCallback) *PaymentHandler {
	return &PaymentHandler{
		gateway:    gateway,
		merchantID: merchantID,
		onNotify:   onNotify,
		now:        time.Now,
	}
}

// GetBalance returns the merchant balance
func (h *PaymentHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	resp, err := h.gateway.GetBalance(r.Context())
	if err != nil {
		writeGatewayError(w, r, "Failed to get balance", err)
		return
	}

	response.Success(w, http.StatusOK, "Balance retrieved", resp)
}

// Pay transfers funds to an address
func (h *PaymentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req mbpay.PayRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	resp, err := h.gateway.Pay(r.Context(), &req)
	if err != nil {
		writeGatewayError(w, r, "Payment failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment processed", resp)
}

// PaymentLinkResult is returned when a payment link is generated
type PaymentLinkResult struct {
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreatePaymentLink builds a signed offline payment link
func (h *PaymentHandler) CreatePaymentLink(w http.ResponseWriter, r *http.Request) {
	var req mbpay.PaymentLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	link, err := h.gateway.GeneratePaymentLink(&req)
	if err != nil {
		writeGatewayError(w, r, "Failed to generate payment link", err)
		return
	}

	result := PaymentLinkResult{Link: link}
	if payload, err := mbpay.DecodePaymentLink(link); err == nil {
		result.ExpiresAt = payload.ExpiresAt().UTC()
	}

	response.Success(w, http.StatusCreated, "Payment link generated", result)
}

// VerifyLinkRequest carries a payment link to check
type VerifyLinkRequest struct {
	Link string `json:"link"`
}

// VerifyLinkResult is the decoded payload of a valid link
type VerifyLinkResult struct {
	Payload   *mbpay.PaymentLinkPayload `json:"payload"`
	ExpiresAt time.Time                 `json:"expires_at"`
	Expired   bool                      `json:"expired"`
}

// VerifyPaymentLink decodes a link and checks its signature
func (h *PaymentHandler) VerifyPaymentLink(w http.ResponseWriter, r *http.Request) {
	var req VerifyLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if strings.TrimSpace(req.Link) == "" {
		response.Error(w, http.StatusBadRequest, "Validation error", errors.New("link is required"))
		return
	}

	payload, err := h.gateway.VerifyPaymentLink(req.Link)
	if err != nil {
		if mbpay.KindOf(err) == mbpay.KindParse {
			response.Error(w, http.StatusBadRequest, "Payment link is not valid", err)
			return
		}
		writeGatewayError(w, r, "Payment link is not valid", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment link verified", VerifyLinkResult{
		Payload:   payload,
		ExpiresAt: payload.ExpiresAt().UTC(),
		Expired:   payload.Expired(h.now()),
	})
}

// CreatePaymentOrder creates a hosted checkout order
func (h *PaymentHandler) CreatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	var req mbpay.PaymentOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if req.MerchantID == 0 {
		req.MerchantID = h.merchantID
	}

	resp, err := h.gateway.CreatePaymentOrder(r.Context(), &req)
	if err != nil {
		writeGatewayError(w, r, "Failed to create payment order", err)
		return
	}

	response.Success(w, http.StatusCreated, "Payment order created", resp)
}

// GetOrderInfo returns a collection order
func (h *PaymentHandler) GetOrderInfo(w http.ResponseWriter, r *http.Request) {
	orderNo, merchantID, ok := h.orderParams(w, r)
	if !ok {
		return
	}

	resp, err := h.gateway.GetOrderInfo(r.Context(), orderNo, merchantID)
	if err != nil {
		writeGatewayError(w, r, "Failed to get order info", err)
		return
	}

	response.Success(w, http.StatusOK, "Order info retrieved", resp)
}

// GetPayOrderInfo returns a payout order
func (h *PaymentHandler) GetPayOrderInfo(w http.ResponseWriter, r *http.Request) {
	orderNo, merchantID, ok := h.orderParams(w, r)
	if !ok {
		return
	}

	resp, err := h.gateway.GetPayOrderInfo(r.Context(), orderNo, merchantID)
	if err != nil {
		writeGatewayError(w, r, "Failed to get pay order info", err)
		return
	}

	response.Success(w, http.StatusOK, "Pay order info retrieved", resp)
}

// HandleNotify verifies a gateway notification and acknowledges it with
// the plain text "success" or "fail".
func (h *PaymentHandler) HandleNotify(w http.ResponseWriter, r *http.Request) {
	lc := logger.LogContext{
		Endpoint:  r.URL.Path,
		RequestID: middle.GetRequestID(r.Context()),
	}

	params, err := notificationParams(r)
	if err != nil {
		logger.Warn("Unreadable notification: "+err.Error(), lc)
		writeText(w, http.StatusBadRequest, "fail")
		return
	}
	lc.Fields = map[string]any{"order_no": params["order_no"]}

	if err := h.gateway.VerifyNotification(params); err != nil {
		logger.Warn("Notification rejected: "+err.Error(), lc)
		writeText(w, http.StatusBadRequest, "fail")
		return
	}

	if h.onNotify != nil {
		if err := h.onNotify(r.Context(), params); err != nil {
			logger.Error("Notification callback failed", err, lc)
			writeText(w, http.StatusInternalServerError, "fail")
			return
		}
	}

	logger.Info("Notification accepted", lc)
	writeText(w, http.StatusOK, "success")
}

func (h *PaymentHandler) orderParams(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	orderNo := strings.TrimSpace(chi.URLParam(r, "orderNo"))
	if orderNo == "" {
		response.Error(w, http.StatusBadRequest, "Missing order number", nil)
		return "", 0, false
	}

	merchantID := h.merchantID
	if raw := r.URL.Query().Get("merchant_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Validation error", errors.New("merchant_id must be an integer"))
			return "", 0, false
		}
		merchantID = id
	}

	return orderNo, merchantID, true
}

// notificationParams reads a form or JSON notification body into string params
func notificationParams(r *http.Request) (map[string]string, error) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()

		var body map[string]any
		if err := dec.Decode(&body); err != nil {
			return nil, err
		}

		params := make(map[string]string, len(body))
		for k, v := range body {
			// numbers are verified as the gateway wrote them
			if n, ok := v.(json.Number); ok {
				params[k] = n.String()
				continue
			}
			params[k] = mbpay.FormatValue(v)
		}
		return params, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return mbpay.NotificationParams(r.Form), nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// StatusFor maps an SDK error to the bridge's HTTP status
func StatusFor(err error) int {
	switch mbpay.KindOf(err) {
	case mbpay.KindValidation, mbpay.KindSignature:
		return http.StatusBadRequest
	case mbpay.KindApplication:
		return http.StatusUnprocessableEntity
	case mbpay.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeGatewayError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := StatusFor(err)

	var code int
	if e, ok := mbpay.AsError(err); ok {
		code = e.Code
	}

	if status >= http.StatusInternalServerError {
		logger.Error(message, err, logger.LogContext{
			Endpoint:  r.URL.Path,
			RequestID: middle.GetRequestID(r.Context()),
		})
	}

	response.GatewayError(w, status, message, code, err)
}
