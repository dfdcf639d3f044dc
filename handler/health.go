package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/mstgnz/mbpay/infra/response"
	"github.com/mstgnz/mbpay/provider/mbpay"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// BalanceChecker is used by deep health checks to reach the gateway
type BalanceChecker interface {
	GetBalance(ctx context.Context) (*mbpay.BalanceResponse, error)
}

// Pinger reports whether an optional backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	gateway     BalanceChecker
	search      Pinger
	environment string
	startTime   time.Time
}

// HealthStatus represents overall system health
type HealthStatus struct {
	Status      string                    `json:"status"`
	Version     string                    `json:"version"`
	Timestamp   time.Time                 `json:"timestamp"`
	Uptime      string                    `json:"uptime"`
	Environment string                    `json:"environment"`
	System      *SystemHealth             `json:"system"`
	Services    map[string]*ServiceHealth `json:"services"`
}

// SystemHealth represents process resource usage
type SystemHealth struct {
	Alloc      string `json:"alloc"`
	Sys        string `json:"sys"`
	GCRuns     uint32 `json:"gc_runs"`
	GoRoutines int    `json:"goroutines"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status       string `json:"status"`
	Healthy      bool   `json:"healthy"`
	ResponseTime string `json:"response_time,omitempty"`
	Description  string `json:"description,omitempty"`
	Error        string `json:"error,omitempty"`
}

// NewHealthHandler creates a new health handler. gateway and search may be nil.
func NewHealthHandler(gateway BalanceChecker, search Pinger, environment string) *HealthHandler {
	return &HealthHandler{
		gateway:     gateway,
		search:      search,
		environment: environment,
		startTime:   time.Now(),
	}
}

// CheckHealth reports service health. With ?deep=true the gateway is
// called once to prove the credentials work.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	deep := r.URL.Query().Get("deep") == "true"

	health := &HealthStatus{
		Version:     Version,
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Environment: h.environment,
		System:      checkSystemHealth(),
		Services: map[string]*ServiceHealth{
			"gateway":    h.checkGateway(ctx, deep),
			"opensearch": h.checkSearch(ctx),
		},
	}
	health.Status = determineOverallStatus(health)

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	_ = response.WriteJSON(w, statusCode, response.Response{
		Code:    statusCode,
		Success: health.Status != "unhealthy",
		Message: fmt.Sprintf("Service is %s", health.Status),
		Data:    health,
	})
}

func (h *HealthHandler) checkGateway(ctx context.Context, deep bool) *ServiceHealth {
	if h.gateway == nil {
		return &ServiceHealth{
			Status: "not_configured",
			Error:  "MBPay credentials are not configured",
		}
	}
	if !deep {
		return &ServiceHealth{
			Status:      "healthy",
			Healthy:     true,
			Description: "MBPay client configured",
		}
	}

	start := time.Now()
	_, err := h.gateway.GetBalance(ctx)
	svc := &ServiceHealth{ResponseTime: fmt.Sprintf("%dms", time.Since(start).Milliseconds())}

	switch {
	case err == nil:
		svc.Status, svc.Healthy = "healthy", true
	case mbpay.KindOf(err) == mbpay.KindApplication:
		// reachable but the gateway refused the credentials
		svc.Status, svc.Error = "degraded", err.Error()
	default:
		svc.Status, svc.Error = "unhealthy", err.Error()
	}
	return svc
}

func (h *HealthHandler) checkSearch(ctx context.Context) *ServiceHealth {
	if h.search == nil {
		return &ServiceHealth{Status: "not_configured", Description: "OpenSearch logging disabled"}
	}

	start := time.Now()
	err := h.search.Ping(ctx)
	svc := &ServiceHealth{ResponseTime: fmt.Sprintf("%dms", time.Since(start).Milliseconds())}
	if err != nil {
		svc.Status, svc.Error = "degraded", err.Error()
		return svc
	}
	svc.Status, svc.Healthy = "healthy", true
	return svc
}

func checkSystemHealth() *SystemHealth {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &SystemHealth{
		Alloc:      formatBytes(memStats.Alloc),
		Sys:        formatBytes(memStats.Sys),
		GCRuns:     memStats.NumGC,
		GoRoutines: runtime.NumGoroutine(),
	}
}

// determineOverallStatus: the gateway decides, OpenSearch can only degrade
func determineOverallStatus(health *HealthStatus) string {
	gw := health.Services["gateway"]
	switch gw.Status {
	case "unhealthy", "not_configured":
		return "unhealthy"
	case "degraded":
		return "degraded"
	}

	if search := health.Services["opensearch"]; search != nil && search.Status == "degraded" {
		return "degraded"
	}
	return "healthy"
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
