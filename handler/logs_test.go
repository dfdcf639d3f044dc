package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/mbpay/infra/opensearch"
	"github.com/stretchr/testify/assert"
)

type mockSearcher struct {
	hours   int
	orderNo string
	err     error
}

func (m *mockSearcher) GetOrderCalls(ctx context.Context, appID, orderNo string) ([]opensearch.APICallLog, error) {
	m.orderNo = orderNo
	return []opensearch.APICallLog{{AppID: appID, OrderNo: orderNo, Endpoint: "/merchant/orderinfo"}}, m.err
}

func (m *mockSearcher) GetRecentErrors(ctx context.Context, appID string, hours int) ([]opensearch.APICallLog, error) {
	m.hours = hours
	return nil, m.err
}

func newLogsRouter(s CallLogSearcher) chi.Router {
	h := NewLogsHandler(s, "app1")
	r := chi.NewRouter()
	r.Get("/logs/orders/{orderNo}", h.OrderCalls)
	r.Get("/logs/errors", h.RecentErrors)
	return r
}

func TestLogsHandler_OrderCalls(t *testing.T) {
	s := &mockSearcher{}
	w, resp := doJSON(t, newLogsRouter(s), http.MethodGet, "/logs/orders/X1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "X1", s.orderNo)
	assert.Equal(t, float64(1), resp.Data.(map[string]any)["count"])
}

func TestLogsHandler_RecentErrors(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		err            error
		expectedStatus int
		expectedHours  int
	}{
		{"default window", "", nil, http.StatusOK, 24},
		{"custom window", "?hours=6", nil, http.StatusOK, 6},
		{"too large", "?hours=500", nil, http.StatusBadRequest, 0},
		{"not a number", "?hours=x", nil, http.StatusBadRequest, 0},
		{"search disabled", "", errors.New("logging is disabled"), http.StatusInternalServerError, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &mockSearcher{err: tt.err}
			w, _ := doJSON(t, newLogsRouter(s), http.MethodGet, "/logs/errors"+tt.query, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedHours, s.hours)
		})
	}
}
