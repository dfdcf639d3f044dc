package opensearch

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mstgnz/mbpay/infra/config"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

const (
	apiCallIndex   = "mbpay-api-calls"
	systemLogIndex = "mbpay-system-logs"
)

// Client wraps the OpenSearch client
type Client struct {
	client  *opensearch.Client
	enabled bool
}

// NewClient creates a new OpenSearch client and makes sure the log indices exist
func NewClient(cfg *config.AppConfig) (*Client, error) {
	opensearchConfig := opensearch.Config{
		Addresses: []string{cfg.OpenSearchURL},
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.Environment != "production",
			},
		},
		MaxRetries:    3,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			return time.Duration(i) * 100 * time.Millisecond
		},
	}

	if cfg.OpenSearchUser != "" && cfg.OpenSearchPass != "" {
		opensearchConfig.Username = cfg.OpenSearchUser
		opensearchConfig.Password = cfg.OpenSearchPass
	}

	client, err := opensearch.NewClient(opensearchConfig)
	if err != nil {
		return nil, err
	}

	osClient := &Client{
		client:  client,
		enabled: cfg.EnableLogging,
	}

	if osClient.enabled {
		if err := osClient.setupIndices(context.Background()); err != nil {
			log.Printf("Warning: Failed to setup OpenSearch indices: %v", err)
		}
	}

	return osClient, nil
}

// GetClient returns the underlying OpenSearch client
func (c *Client) GetClient() *opensearch.Client {
	return c.client
}

// IsEnabled returns whether OpenSearch logging is enabled
func (c *Client) IsEnabled() bool {
	return c.enabled
}

// Ping reports whether the cluster answers
func (c *Client) Ping(ctx context.Context) error {
	res, err := opensearchapi.PingRequest{}.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("opensearch ping: %s", res.Status())
	}
	return nil
}

// GetLogIndexName returns the API call index, optionally scoped to one app
func (c *Client) GetLogIndexName(appID string) string {
	if appID == "" {
		return apiCallIndex
	}
	return apiCallIndex + "-" + strings.ToLower(appID)
}

func (c *Client) setupIndices(ctx context.Context) error {
	for _, index := range []struct {
		name    string
		mapping string
	}{
		{apiCallIndex, apiCallMapping},
		{systemLogIndex, systemLogMapping},
	} {
		exists, err := c.indexExists(ctx, index.name)
		if err != nil {
			return fmt.Errorf("checking index %s: %w", index.name, err)
		}
		if exists {
			continue
		}
		if err := c.createIndex(ctx, index.name, index.mapping); err != nil {
			return fmt.Errorf("creating index %s: %w", index.name, err)
		}
		log.Printf("Created OpenSearch index: %s", index.name)
	}
	return nil
}

func (c *Client) indexExists(ctx context.Context, indexName string) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{
		Index: []string{indexName},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	return res.StatusCode == http.StatusOK, nil
}

func (c *Client) createIndex(ctx context.Context, indexName, mapping string) error {
	req := opensearchapi.IndicesCreateRequest{
		Index: indexName,
		Body:  strings.NewReader(mapping),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index creation error: %s", res.String())
	}

	return nil
}

const apiCallMapping = `{
	"mappings": {
		"properties": {
			"timestamp":   {"type": "date", "format": "strict_date_optional_time||epoch_millis"},
			"app_id":      {"type": "keyword"},
			"method":      {"type": "keyword"},
			"endpoint":    {"type": "keyword"},
			"request_id":  {"type": "keyword"},
			"order_no":    {"type": "keyword"},
			"request":     {"type": "object", "properties": {"params": {"type": "object"}}},
			"response": {
				"type": "object",
				"properties": {
					"status_code":        {"type": "integer"},
					"body":               {"type": "text"},
					"processing_time_ms": {"type": "integer"}
				}
			},
			"error": {
				"type": "object",
				"properties": {
					"kind":    {"type": "keyword"},
					"code":    {"type": "integer"},
					"message": {"type": "text"}
				}
			}
		}
	},
	"settings": {"number_of_shards": 1, "number_of_replicas": 0}
}`

const systemLogMapping = `{
	"mappings": {
		"properties": {
			"timestamp":  {"type": "date"},
			"level":      {"type": "keyword"},
			"message":    {"type": "text"},
			"component":  {"type": "keyword"},
			"app_id":     {"type": "keyword"},
			"endpoint":   {"type": "keyword"},
			"request_id": {"type": "keyword"},
			"error":      {"type": "text"}
		}
	},
	"settings": {"number_of_shards": 1, "number_of_replicas": 0}
}`
