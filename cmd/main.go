package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/mstgnz/mbpay/handler"
	"github.com/mstgnz/mbpay/infra/config"
	"github.com/mstgnz/mbpay/infra/logger"
	"github.com/mstgnz/mbpay/infra/middle"
	"github.com/mstgnz/mbpay/infra/opensearch"
	"github.com/mstgnz/mbpay/infra/response"
	"github.com/mstgnz/mbpay/infra/validate"
	"github.com/mstgnz/mbpay/provider/mbpay"
	"github.com/mstgnz/mbpay/router"
)

var (
	openSearchClient *opensearch.Client
	openSearchLogger *opensearch.Logger
)

func init() {
	// Load Env
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Load Env Error: %v", err)
	}
	// init conf
	_ = config.App()
	validate.CustomValidate()

	cfg := config.GetAppConfig()
	if cfg.EnableLogging {
		osClient, err := opensearch.NewClient(cfg)
		if err != nil {
			log.Printf("Failed to initialize OpenSearch client: %v", err)
			log.Println("Continuing without OpenSearch logging...")
		} else {
			openSearchClient = osClient
			openSearchLogger = opensearch.NewLogger(osClient)
		}
	}

	if openSearchLogger != nil {
		logger.InitGlobalLogger(openSearchLogger)
	} else {
		logger.InitGlobalLogger(nil)
	}
}

func main() {
	cfg := config.GetAppConfig()
	gatewayCfg := config.GetGatewayConfig()

	var opts []mbpay.Option
	if openSearchLogger != nil {
		opts = append(opts, mbpay.WithRecorder(openSearchLogger))
	}

	client, err := mbpay.NewClientFromMap(gatewayCfg.AsMap(), opts...)
	if err != nil {
		logger.Warn(fmt.Sprintf("MBPay client not configured, /v1 is disabled: %v", err))
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middle.RequestLoggingMiddleware())
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middle.SecurityHeadersMiddleware())

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin", "X-Request-ID", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300, // Preflight cache time (second)
	}))

	// Health check endpoint (no auth required)
	var gateway handler.BalanceChecker
	if client != nil {
		gateway = client
	}
	var search handler.Pinger
	if openSearchClient != nil {
		search = openSearchClient
	}
	r.Get("/health", handler.NewHealthHandler(gateway, search, cfg.Environment).CheckHealth)

	rateLimiter := middle.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer rateLimiter.Stop()

	if client != nil {
		var logsHandler *handler.LogsHandler
		if openSearchLogger != nil {
			logsHandler = handler.NewLogsHandler(openSearchLogger, client.AppID())
		}

		paymentHandler := handler.NewPaymentHandler(client, gatewayCfg.MerchantID, recordNotification(client.AppID()))
		router.Routes(r, paymentHandler, logsHandler, router.Options{
			APIKey:      cfg.APIKey,
			RateLimiter: rateLimiter,
		})
	}

	// Not Found
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Not Found", nil)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server stopped", err)
		}
	}()

	logger.Info("API is running on " + cfg.Port)

	// Block until a signal is received
	<-ctx.Done()

	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", err)
	}
}

// recordNotification stores accepted gateway notifications next to the
// outbound call log. Without OpenSearch they are only logged.
func recordNotification(appID string) handler.NotifyCallback {
	return func(ctx context.Context, params map[string]string) error {
		if openSearchLogger == nil {
			return nil
		}
		return openSearchLogger.LogAPICall(ctx, opensearch.APICallLog{
			Timestamp: time.Now(),
			AppID:     appID,
			Method:    http.MethodPost,
			Endpoint:  "/v1/notify",
			RequestID: middle.GetRequestID(ctx),
			OrderNo:   params["order_no"],
			Request:   opensearch.RequestLog{Params: params},
		})
	}
}
