package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/mbpay/infra/response"
	"github.com/mstgnz/mbpay/provider/mbpay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cr3t-key"

var fixedNow = time.Unix(1700000000, 0)

type mockGateway struct {
	getBalanceFunc         func(ctx context.Context) (*mbpay.BalanceResponse, error)
	payFunc                func(ctx context.Context, req *mbpay.PayRequest) (*mbpay.PayResponse, error)
	createPaymentOrderFunc func(ctx context.Context, req *mbpay.PaymentOrderRequest) (*mbpay.PaymentOrderResponse, error)
	getOrderInfoFunc       func(ctx context.Context, orderNo string, merchantID int64) (*mbpay.OrderInfoResponse, error)
	getPayOrderInfoFunc    func(ctx context.Context, orderNo string, merchantID int64) (*mbpay.PayOrderInfoResponse, error)
}

func (m *mockGateway) GetBalance(ctx context.Context) (*mbpay.BalanceResponse, error) {
	if m.getBalanceFunc != nil {
		return m.getBalanceFunc(ctx)
	}
	return &mbpay.BalanceResponse{Balance: 1000, Frozen: 50}, nil
}

func (m *mockGateway) Pay(ctx context.Context, req *mbpay.PayRequest) (*mbpay.PayResponse, error) {
	if m.payFunc != nil {
		return m.payFunc(ctx, req)
	}
	return &mbpay.PayResponse{PlatformOrderNo: "P-" + req.OrderNo, ActualAmount: req.Amount}, nil
}

func (m *mockGateway) GeneratePaymentLink(req *mbpay.PaymentLinkRequest) (string, error) {
	payload, err := mbpay.NewPaymentLinkPayload(req, "app1", testSecret, fixedNow)
	if err != nil {
		return "", err
	}
	return payload.Encode()
}

func (m *mockGateway) VerifyPaymentLink(uri string) (*mbpay.PaymentLinkPayload, error) {
	return mbpay.VerifyPaymentLink(uri, testSecret)
}

func (m *mockGateway) CreatePaymentOrder(ctx context.Context, req *mbpay.PaymentOrderRequest) (*mbpay.PaymentOrderResponse, error) {
	if m.createPaymentOrderFunc != nil {
		return m.createPaymentOrderFunc(ctx, req)
	}
	return &mbpay.PaymentOrderResponse{PaymentLink: "https://www.mbpay.world/pay/" + req.OrderNo}, nil
}

func (m *mockGateway) GetOrderInfo(ctx context.Context, orderNo string, merchantID int64) (*mbpay.OrderInfoResponse, error) {
	if m.getOrderInfoFunc != nil {
		return m.getOrderInfoFunc(ctx, orderNo, merchantID)
	}
	return &mbpay.OrderInfoResponse{OrderNo: orderNo, Amount: 100, Status: 1}, nil
}

func (m *mockGateway) GetPayOrderInfo(ctx context.Context, orderNo string, merchantID int64) (*mbpay.PayOrderInfoResponse, error) {
	if m.getPayOrderInfoFunc != nil {
		return m.getPayOrderInfoFunc(ctx, orderNo, merchantID)
	}
	return &mbpay.PayOrderInfoResponse{OrderNo: orderNo, Amount: 100, Status: 2}, nil
}

func (m *mockGateway) VerifyNotification(params map[string]string) error {
	return mbpay.VerifyNotification(params, "app1", testSecret)
}

func newTestRouter(gw GatewayService, onNotify NotifyCallback) chi.Router {
	h := NewPaymentHandler(gw, 77, onNotify)
	h.now = func() time.Time { return fixedNow }

	r := chi.NewRouter()
	r.Get("/balance", h.GetBalance)
	r.Post("/pay", h.Pay)
	r.Post("/payment-links", h.CreatePaymentLink)
	r.Post("/payment-links/verify", h.VerifyPaymentLink)
	r.Post("/orders", h.CreatePaymentOrder)
	r.Get("/orders/{orderNo}", h.GetOrderInfo)
	r.Get("/pay-orders/{orderNo}", h.GetPayOrderInfo)
	r.Post("/notify", h.HandleNotify)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func TestPaymentHandler_GetBalance(t *testing.T) {
	w, resp := doJSON(t, newTestRouter(&mockGateway{}, nil), http.MethodGet, "/balance", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, map[string]any{"balance": float64(1000), "frozen": float64(50)}, resp.Data)
}

func TestPaymentHandler_Pay(t *testing.T) {
	var got *mbpay.PayRequest
	gw := &mockGateway{payFunc: func(ctx context.Context, req *mbpay.PayRequest) (*mbpay.PayResponse, error) {
		got = req
		return &mbpay.PayResponse{PlatformOrderNo: "P1"}, nil
	}}
	router := newTestRouter(gw, nil)

	t.Run("success", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPost, "/pay", `{"address":"T9y","order_no":"X1","amount":100}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
		require.NotNil(t, got)
		assert.Equal(t, &mbpay.PayRequest{Address: "T9y", OrderNo: "X1", Amount: 100}, got)
	})

	t.Run("malformed body", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPost, "/pay", `{"address":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request format", resp.Message)
	})

	t.Run("unknown field", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/pay", `{"address":"T9y","order_no":"X1","amount":100,"currency":"USD"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPost, "/pay", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "request body is empty", resp.Error)
	})
}

func TestPaymentHandler_GatewayErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		gatewayCode    int
	}{
		{"validation", &mbpay.Error{Kind: mbpay.KindValidation, Message: "amount must be greater than 0"}, http.StatusBadRequest, 0},
		{"application", mbpay.NewError(mbpay.ErrCodeInsufficientBalance, "insufficient balance"), http.StatusUnprocessableEntity, 12010},
		{"timeout", &mbpay.Error{Kind: mbpay.KindTimeout, Message: "request timed out after 1s"}, http.StatusGatewayTimeout, 0},
		{"transport", &mbpay.Error{Kind: mbpay.KindTransport, Message: "request failed"}, http.StatusBadGateway, 0},
		{"protocol", &mbpay.Error{Kind: mbpay.KindProtocol, Message: "unexpected HTTP status 500"}, http.StatusBadGateway, 0},
		{"foreign", errors.New("boom"), http.StatusBadGateway, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &mockGateway{payFunc: func(ctx context.Context, req *mbpay.PayRequest) (*mbpay.PayResponse, error) {
				return nil, tt.err
			}}

			w, resp := doJSON(t, newTestRouter(gw, nil), http.MethodPost, "/pay", `{"address":"a","order_no":"X1","amount":1}`)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.gatewayCode, resp.GatewayCode)
			assert.Equal(t, tt.err.Error(), resp.Error)
		})
	}
}

func TestPaymentHandler_PaymentLinks(t *testing.T) {
	router := newTestRouter(&mockGateway{}, nil)

	w, resp := doJSON(t, router, http.MethodPost, "/payment-links",
		`{"order_no":"X1","subject":"Tea & Cake","amount":100,"expire":60,"nonce":"abcDEF1234567890"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := resp.Data.(map[string]any)
	link := data["link"].(string)
	assert.True(t, strings.HasPrefix(link, "mbpay://payorder?data="))
	assert.Equal(t, "2023-11-14T23:13:20Z", data["expires_at"])

	body, err := json.Marshal(VerifyLinkRequest{Link: link})
	require.NoError(t, err)

	w, resp = doJSON(t, router, http.MethodPost, "/payment-links/verify", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	verified := resp.Data.(map[string]any)
	assert.Equal(t, false, verified["expired"])
	payload := verified["payload"].(map[string]any)
	assert.Equal(t, "X1", payload["order_no"])
	assert.Equal(t, "Tea & Cake", payload["subject"])
}

func TestPaymentHandler_PaymentLinks_Invalid(t *testing.T) {
	router := newTestRouter(&mockGateway{}, nil)

	t.Run("validation", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/payment-links", `{"order_no":"X1","subject":"s","amount":0,"expire":60}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing link", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPost, "/payment-links/verify", `{"link":" "}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "link is required", resp.Error)
	})

	t.Run("not a link", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/payment-links/verify", `{"link":"https://example.com"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		payload, err := mbpay.NewPaymentLinkPayload(&mbpay.PaymentLinkRequest{OrderNo: "X1", Subject: "s", Amount: 1, Expire: 1}, "app1", "other-secret", fixedNow)
		require.NoError(t, err)
		link, err := payload.Encode()
		require.NoError(t, err)

		body, _ := json.Marshal(VerifyLinkRequest{Link: link})
		w, _ := doJSON(t, router, http.MethodPost, "/payment-links/verify", string(body))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPaymentHandler_CreatePaymentOrder_DefaultMerchant(t *testing.T) {
	var got int64
	gw := &mockGateway{createPaymentOrderFunc: func(ctx context.Context, req *mbpay.PaymentOrderRequest) (*mbpay.PaymentOrderResponse, error) {
		got = req.MerchantID
		return &mbpay.PaymentOrderResponse{PaymentLink: "https://pay"}, nil
	}}
	router := newTestRouter(gw, nil)

	w, _ := doJSON(t, router, http.MethodPost, "/orders", `{"order_no":"X1","subject":"s","amount":1,"notify_url":"https://m/n"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(77), got)

	w, _ = doJSON(t, router, http.MethodPost, "/orders", `{"merchant_id":5,"order_no":"X1","subject":"s","amount":1,"notify_url":"https://m/n"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(5), got)
}

func TestPaymentHandler_OrderQueries(t *testing.T) {
	var gotOrder string
	var gotMerchant int64
	gw := &mockGateway{
		getOrderInfoFunc: func(ctx context.Context, orderNo string, merchantID int64) (*mbpay.OrderInfoResponse, error) {
			gotOrder, gotMerchant = orderNo, merchantID
			return &mbpay.OrderInfoResponse{OrderNo: orderNo}, nil
		},
		getPayOrderInfoFunc: func(ctx context.Context, orderNo string, merchantID int64) (*mbpay.PayOrderInfoResponse, error) {
			gotOrder, gotMerchant = orderNo, merchantID
			return nil, mbpay.NewError(mbpay.ErrCodeOrderNotFound, "order not found")
		},
	}
	router := newTestRouter(gw, nil)

	w, _ := doJSON(t, router, http.MethodGet, "/orders/X1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "X1", gotOrder)
	assert.Equal(t, int64(77), gotMerchant)

	w, resp := doJSON(t, router, http.MethodGet, "/pay-orders/X2?merchant_id=9", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, mbpay.ErrCodeOrderNotFound, resp.GatewayCode)
	assert.Equal(t, "X2", gotOrder)
	assert.Equal(t, int64(9), gotMerchant)

	w, resp = doJSON(t, router, http.MethodGet, "/orders/X1?merchant_id=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "merchant_id must be an integer", resp.Error)
}

func signedNotification(t *testing.T) map[string]string {
	t.Helper()
	return map[string]string{
		"app_id":   "app1",
		"order_no": "X1",
		"status":   "1",
		"sign":     mbpay.Sign(mbpay.Params{"app_id": "app1", "order_no": "X1", "status": "1"}, testSecret),
	}
}

func postForm(r http.Handler, params map[string]string) *httptest.ResponseRecorder {
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPaymentHandler_HandleNotify(t *testing.T) {
	var received map[string]string
	router := newTestRouter(&mockGateway{}, func(ctx context.Context, params map[string]string) error {
		received = params
		return nil
	})

	t.Run("form accepted", func(t *testing.T) {
		w := postForm(router, signedNotification(t))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "success", w.Body.String())
		assert.Equal(t, "X1", received["order_no"])
	})

	t.Run("json accepted", func(t *testing.T) {
		params := signedNotification(t)
		body := `{"app_id":"app1","order_no":"X1","status":1,"sign":"` + params["sign"] + `"}`
		req := httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "success", w.Body.String())
	})

	t.Run("json numbers verified as sent", func(t *testing.T) {
		sign := mbpay.Sign(mbpay.Params{"app_id": "app1", "order_no": "X1", "amount": "1.50", "status": "1"}, testSecret)
		body := `{"app_id":"app1","order_no":"X1","amount":1.50,"status":1,"sign":"` + sign + `"}`
		req := httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "success", w.Body.String())
		assert.Equal(t, "1.50", received["amount"])
	})

	t.Run("tampered", func(t *testing.T) {
		params := signedNotification(t)
		params["status"] = "2"
		w := postForm(router, params)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "fail", w.Body.String())
	})

	t.Run("bad json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPaymentHandler_HandleNotify_CallbackFails(t *testing.T) {
	router := newTestRouter(&mockGateway{}, func(ctx context.Context, params map[string]string) error {
		return errors.New("order already settled")
	})

	w := postForm(router, signedNotification(t))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "fail", w.Body.String())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(&mbpay.Error{Kind: mbpay.KindSignature}))
	assert.Equal(t, http.StatusBadGateway, StatusFor(&mbpay.Error{Kind: mbpay.KindResponseShape}))
	assert.Equal(t, http.StatusBadGateway, StatusFor(&mbpay.Error{Kind: mbpay.KindParse}))
}
