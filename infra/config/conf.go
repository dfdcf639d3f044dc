package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Validator *validator.Validate
}

// AppConfig represents the bridge server configuration
type AppConfig struct {
	Port           string
	Environment    string
	OpenSearchURL  string
	OpenSearchUser string
	OpenSearchPass string
	EnableLogging  bool
	LoggingLevel   string
	RequestTimeout time.Duration

	// APIKey guards the /v1 routes; empty disables them
	APIKey             string
	RateLimitPerMinute int
}

// GatewayConfig holds the MBPay credentials and endpoint read from the environment
type GatewayConfig struct {
	BaseURL   string
	AppID     string
	AppSecret string
	Timeout   time.Duration

	// MerchantID is used by order queries that do not name one
	MerchantID int64
}

var (
	instance          *Config
	instanceOnce      sync.Once
	appConfigInstance *AppConfig
)

// App returns the process-wide shared dependencies
func App() *Config {
	instanceOnce.Do(func() {
		instance = &Config{
			Validator: validator.New(validator.WithRequiredStructEnabled()),
		}
	})
	return instance
}

// GetAppConfig returns the bridge configuration
func GetAppConfig() *AppConfig {
	if appConfigInstance == nil {
		appConfigInstance = &AppConfig{
			Port:               GetEnv("APP_PORT", "9999"),
			Environment:        GetEnv("ENVIRONMENT", "development"),
			OpenSearchURL:      GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
			OpenSearchUser:     GetEnv("OPENSEARCH_USER", ""),
			OpenSearchPass:     GetEnv("OPENSEARCH_PASSWORD", ""),
			EnableLogging:      GetBoolEnv("ENABLE_OPENSEARCH_LOGGING", false),
			LoggingLevel:       GetEnv("LOGGING_LEVEL", "info"),
			RequestTimeout:     GetDurationEnv("APP_REQUEST_TIMEOUT", 60*time.Second),
			APIKey:             GetEnv("API_KEY", ""),
			RateLimitPerMinute: GetIntEnv("RATE_LIMIT_PER_MINUTE", 100),
		}
	}
	return appConfigInstance
}

// GetGatewayConfig reads the MBPay credentials. Missing values are left empty
// and rejected later by the client constructor.
func GetGatewayConfig() GatewayConfig {
	return GatewayConfig{
		BaseURL:    strings.TrimRight(GetEnv("MBPAY_BASE_URL", "https://www.mbpay.world"), "/"),
		AppID:      GetEnv("MBPAY_APP_ID", ""),
		AppSecret:  GetEnv("MBPAY_APP_SECRET", ""),
		Timeout:    GetDurationEnv("MBPAY_TIMEOUT", 30*time.Second),
		MerchantID: int64(GetIntEnv("MBPAY_MERCHANT_ID", 0)),
	}
}

// AsMap exposes the gateway config as a credential map
func (g GatewayConfig) AsMap() map[string]string {
	return map[string]string{
		"baseUrl":   g.BaseURL,
		"appId":     g.AppID,
		"appSecret": g.AppSecret,
		"timeout":   g.Timeout.String(),
	}
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetDurationEnv accepts either a Go duration ("15s") or a plain number of seconds
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
