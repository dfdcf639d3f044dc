package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/mbpay/infra/opensearch"
	"github.com/mstgnz/mbpay/infra/response"
)

// CallLogSearcher queries recorded gateway calls
type CallLogSearcher interface {
	GetOrderCalls(ctx context.Context, appID, orderNo string) ([]opensearch.APICallLog, error)
	GetRecentErrors(ctx context.Context, appID string, hours int) ([]opensearch.APICallLog, error)
}

// LogsHandler exposes the gateway call log of the configured app
type LogsHandler struct {
	searcher CallLogSearcher
	appID    string
}

// NewLogsHandler creates a new logs handler
func NewLogsHandler(searcher CallLogSearcher, appID string) *LogsHandler {
	return &LogsHandler{
		searcher: searcher,
		appID:    appID,
	}
}

// OrderCalls lists every logged call for one order number
func (h *LogsHandler) OrderCalls(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	orderNo := chi.URLParam(r, "orderNo")
	if orderNo == "" {
		response.Error(w, http.StatusBadRequest, "Missing order number", nil)
		return
	}

	logs, err := h.searcher.GetOrderCalls(ctx, h.appID, orderNo)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve logs", err)
		return
	}

	response.Success(w, http.StatusOK, "Logs retrieved", map[string]any{
		"order_no": orderNo,
		"count":    len(logs),
		"logs":     logs,
	})
}

// RecentErrors lists failed calls from the last ?hours= hours (default 24, max 168)
func (h *LogsHandler) RecentErrors(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 168 {
			response.Error(w, http.StatusBadRequest, "hours must be between 1 and 168", nil)
			return
		}
		hours = n
	}

	logs, err := h.searcher.GetRecentErrors(ctx, h.appID, hours)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve logs", err)
		return
	}

	response.Success(w, http.StatusOK, "Logs retrieved", map[string]any{
		"hours": hours,
		"count": len(logs),
		"logs":  logs,
	})
}
