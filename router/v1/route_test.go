package v1

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/mbpay/handler"
	"github.com/mstgnz/mbpay/infra/opensearch"
	"github.com/mstgnz/mbpay/provider/mbpay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct{}

func (stubGateway) GetBalance(context.Context) (*mbpay.BalanceResponse, error) {
	return &mbpay.BalanceResponse{}, nil
}
func (stubGateway) Pay(context.Context, *mbpay.PayRequest) (*mbpay.PayResponse, error) {
	return &mbpay.PayResponse{}, nil
}
func (stubGateway) GeneratePaymentLink(*mbpay.PaymentLinkRequest) (string, error) { return "", nil }
func (stubGateway) VerifyPaymentLink(string) (*mbpay.PaymentLinkPayload, error) {
	return &mbpay.PaymentLinkPayload{}, nil
}
func (stubGateway) CreatePaymentOrder(context.Context, *mbpay.PaymentOrderRequest) (*mbpay.PaymentOrderResponse, error) {
	return &mbpay.PaymentOrderResponse{}, nil
}
func (stubGateway) GetOrderInfo(context.Context, string, int64) (*mbpay.OrderInfoResponse, error) {
	return &mbpay.OrderInfoResponse{}, nil
}
func (stubGateway) GetPayOrderInfo(context.Context, string, int64) (*mbpay.PayOrderInfoResponse, error) {
	return &mbpay.PayOrderInfoResponse{}, nil
}
func (stubGateway) VerifyNotification(map[string]string) error { return nil }

type stubSearcher struct{}

func (stubSearcher) GetOrderCalls(context.Context, string, string) ([]opensearch.APICallLog, error) {
	return nil, nil
}
func (stubSearcher) GetRecentErrors(context.Context, string, int) ([]opensearch.APICallLog, error) {
	return nil, nil
}

func registered(t *testing.T, r chi.Router) []string {
	t.Helper()

	var routes []string
	err := chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, method+" "+strings.TrimSuffix(route, "/"))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(routes)
	return routes
}

func TestRoutes(t *testing.T) {
	payment := handler.NewPaymentHandler(stubGateway{}, 1, nil)

	t.Run("without logs", func(t *testing.T) {
		r := chi.NewRouter()
		Routes(r, payment, nil)

		assert.Equal(t, []string{
			"GET /balance",
			"GET /orders/{orderNo}",
			"GET /pay-orders/{orderNo}",
			"POST /orders",
			"POST /pay",
			"POST /payment-links",
			"POST /payment-links/verify",
		}, registered(t, r))
	})

	t.Run("with logs", func(t *testing.T) {
		r := chi.NewRouter()
		Routes(r, payment, handler.NewLogsHandler(stubSearcher{}, "app1"))

		routes := registered(t, r)
		assert.Contains(t, routes, "GET /logs/orders/{orderNo}")
		assert.Contains(t, routes, "GET /logs/errors")
	})
}

func TestNotifyRoutes(t *testing.T) {
	r := chi.NewRouter()
	NotifyRoutes(r, handler.NewPaymentHandler(stubGateway{}, 1, nil))

	assert.Equal(t, []string{"POST /notify"}, registered(t, r))
}
