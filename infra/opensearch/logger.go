package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// APICallLog represents one signed call made to the gateway
type APICallLog struct {
	Timestamp time.Time   `json:"timestamp"`
	AppID     string      `json:"app_id"`
	Method    string      `json:"method"`
	Endpoint  string      `json:"endpoint"`
	RequestID string      `json:"request_id"`
	OrderNo   string      `json:"order_no,omitempty"`
	Request   RequestLog  `json:"request"`
	Response  ResponseLog `json:"response"`
	Error     *ErrorInfo  `json:"error,omitempty"`
}

// RequestLog represents request details
type RequestLog struct {
	Params map[string]string `json:"params,omitempty"`
}

// ResponseLog represents response details
type ResponseLog struct {
	StatusCode       int    `json:"status_code"`
	Body             string `json:"body,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Kind    string `json:"kind,omitempty"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Logger handles OpenSearch logging operations
type Logger struct {
	client *Client
}

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{
		client: client,
	}
}

// LogAPICall indexes a gateway call. Params and body are sanitized first.
func (l *Logger) LogAPICall(ctx context.Context, entry APICallLog) error {
	if !l.client.IsEnabled() {
		return nil
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.RequestID == "" {
		entry.RequestID = uuid.New().String()
	}
	entry.Request.Params = SanitizeParams(entry.Request.Params)
	entry.Response.Body = SanitizeForLog(entry.Response.Body)

	return l.index(ctx, l.client.GetLogIndexName(""), entry)
}

// LogSystemEvent indexes a system log entry
func (l *Logger) LogSystemEvent(ctx context.Context, event any) error {
	if !l.client.IsEnabled() {
		return nil
	}
	return l.index(ctx, systemLogIndex, event)
}

func (l *Logger) index(ctx context.Context, indexName string, doc any) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: indexName,
		Body:  bytes.NewReader(docJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}

// SearchCalls searches API call logs of one app
func (l *Logger) SearchCalls(ctx context.Context, appID string, query map[string]any) ([]APICallLog, error) {
	if !l.client.IsEnabled() {
		return nil, fmt.Errorf("logging is disabled")
	}

	must := []map[string]any{query}
	if appID != "" {
		must = append(must, map[string]any{"term": map[string]any{"app_id": appID}})
	}

	searchQuery := map[string]any{
		"query": map[string]any{"bool": map[string]any{"must": must}},
		"sort": []map[string]any{
			{"timestamp": map[string]string{"order": "desc"}},
		},
		"size": 100,
	}

	queryJSON, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{l.client.GetLogIndexName("")},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch search error: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source APICallLog `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	logs := make([]APICallLog, len(searchResult.Hits.Hits))
	for i, hit := range searchResult.Hits.Hits {
		logs[i] = hit.Source
	}

	return logs, nil
}

// GetOrderCalls retrieves every logged call for one merchant order number
func (l *Logger) GetOrderCalls(ctx context.Context, appID, orderNo string) ([]APICallLog, error) {
	return l.SearchCalls(ctx, appID, map[string]any{
		"term": map[string]any{"order_no": orderNo},
	})
}

// GetRecentErrors retrieves failed calls from the last hours
func (l *Logger) GetRecentErrors(ctx context.Context, appID string, hours int) ([]APICallLog, error) {
	return l.SearchCalls(ctx, appID, map[string]any{
		"bool": map[string]any{
			"must": []map[string]any{
				{"range": map[string]any{"timestamp": map[string]any{"gte": fmt.Sprintf("now-%dh", hours)}}},
				{"exists": map[string]any{"field": "error.kind"}},
			},
		},
	})
}

var sensitivePatterns = func() []*regexp.Regexp {
	fields := []string{"app_secret", "appSecret", "secret", "key", "password", "token", "authorization"}
	var patterns []*regexp.Regexp
	for _, field := range fields {
		patterns = append(patterns,
			regexp.MustCompile(fmt.Sprintf(`("%s"\s*:\s*)"[^"]*"`, field)),
			regexp.MustCompile(fmt.Sprintf(`(\b%s=)[^&\s"]*`, field)),
		)
	}
	return patterns
}()

// SanitizeForLog redacts secret-looking values in JSON or query-string text
func SanitizeForLog(data string) string {
	result := data
	for i, re := range sensitivePatterns {
		if i%2 == 0 {
			result = re.ReplaceAllString(result, `${1}"***REDACTED***"`)
		} else {
			result = re.ReplaceAllString(result, `${1}***REDACTED***`)
		}
	}
	return result
}

// SanitizeParams copies params with secret-looking values redacted
func SanitizeParams(params map[string]string) map[string]string {
	if params == nil {
		return nil
	}
	sensitive := map[string]bool{
		"app_secret": true, "appSecret": true, "secret": true, "key": true,
		"password": true, "token": true, "authorization": true,
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		if sensitive[k] {
			out[k] = "***REDACTED***"
			continue
		}
		out[k] = v
	}
	return out
}
