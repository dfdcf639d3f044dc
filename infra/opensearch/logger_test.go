package opensearch

import (
	"context"
	"testing"
	"time"

	"github.com/mstgnz/mbpay/infra/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLiveLogger(t *testing.T) *Logger {
	t.Helper()
	cfg := &config.AppConfig{
		OpenSearchURL: config.GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
		EnableLogging: true,
	}

	client, err := NewClient(cfg)
	if err != nil {
		t.Skipf("Skipping test due to OpenSearch client error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		t.Skipf("Skipping test due to OpenSearch connection error: %v", err)
	}

	return NewLogger(client)
}

func TestLogger_DisabledIsNoop(t *testing.T) {
	client, err := NewClient(&config.AppConfig{
		OpenSearchURL: "http://127.0.0.1:1",
		EnableLogging: false,
	})
	require.NoError(t, err)

	logger := NewLogger(client)
	assert.NoError(t, logger.LogAPICall(context.Background(), APICallLog{Endpoint: "/merchant/balance"}))
	assert.NoError(t, logger.LogSystemEvent(context.Background(), map[string]string{"message": "x"}))

	_, err = logger.SearchCalls(context.Background(), "app-1", map[string]any{"match_all": map[string]any{}})
	assert.Error(t, err)
}

func TestClient_GetLogIndexName(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "mbpay-api-calls", c.GetLogIndexName(""))
	assert.Equal(t, "mbpay-api-calls-app-1", c.GetLogIndexName("APP-1"))
}

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
		absent   string
	}{
		{
			name:     "json_secret",
			input:    `{"app_id":"a1","app_secret":"topsecret"}`,
			contains: `"app_secret":"***REDACTED***"`,
			absent:   "topsecret",
		},
		{
			name:     "canonical_key",
			input:    "amount=100&order_no=X1&key=s3cr3t",
			contains: "key=***REDACTED***",
			absent:   "s3cr3t",
		},
		{
			name:     "plain_text_untouched",
			input:    `{"code":0,"message":"ok"}`,
			contains: `{"code":0,"message":"ok"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := SanitizeForLog(tt.input)
			assert.Contains(t, out, tt.contains)
			if tt.absent != "" {
				assert.NotContains(t, out, tt.absent)
			}
		})
	}
}

func TestSanitizeParams(t *testing.T) {
	in := map[string]string{"app_id": "a1", "sign": "abc", "key": "s3cr3t"}
	out := SanitizeParams(in)

	assert.Equal(t, "a1", out["app_id"])
	assert.Equal(t, "abc", out["sign"])
	assert.Equal(t, "***REDACTED***", out["key"])
	assert.Equal(t, "s3cr3t", in["key"], "input must not be modified")
	assert.Nil(t, SanitizeParams(nil))
}

func TestLogger_LogAPICall(t *testing.T) {
	logger := newLiveLogger(t)

	err := logger.LogAPICall(context.Background(), APICallLog{
		AppID:    "app-test",
		Method:   "POST",
		Endpoint: "/merchant/pay",
		OrderNo:  "X1",
		Request:  RequestLog{Params: map[string]string{"order_no": "X1", "amount": "100"}},
		Response: ResponseLog{StatusCode: 200, ProcessingTimeMs: 12},
	})
	assert.NoError(t, err)
}

func TestLogger_LogSystemEvent(t *testing.T) {
	logger := newLiveLogger(t)

	err := logger.LogSystemEvent(context.Background(), map[string]any{
		"timestamp": time.Now().UTC(),
		"level":     "info",
		"message":   "integration test",
	})
	assert.NoError(t, err)
}
