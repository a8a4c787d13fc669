package opensearch

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/horo42/saferpay/infra/config"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

const systemLogsIndex = "saferpay-system-logs"

// Client wraps the OpenSearch client
type Client struct {
	client *opensearch.Client
	config *config.AppConfig
}

// NewClient creates a new OpenSearch client
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

	// Add authentication if configured
	if cfg.OpenSearchUser != "" && cfg.OpenSearchPass != "" {
		opensearchConfig.Username = cfg.OpenSearchUser
		opensearchConfig.Password = cfg.OpenSearchPass
	}

	client, err := opensearch.NewClient(opensearchConfig)
	if err != nil {
		return nil, err
	}

	osClient := &Client{
		client: client,
		config: cfg,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := osClient.setupIndices(ctx, "saferpay"); err != nil {
		log.Printf("Warning: Failed to setup OpenSearch indices: %v", err)
	}

	return osClient, nil
}

// GetClient returns the underlying OpenSearch client
func (c *Client) GetClient() *opensearch.Client {
	return c.client
}

// setupIndices creates the gateway log indices and the system log index
func (c *Client) setupIndices(ctx context.Context, providers ...string) error {
	indices := make([]string, 0, len(providers)+1)
	for _, provider := range providers {
		indices = append(indices, c.GetLogIndexName(provider))
	}
	indices = append(indices, systemLogsIndex)

	var failed []string
	for _, indexName := range indices {
		exists, err := c.indexExists(ctx, indexName)
		if err != nil {
			failed = append(failed, indexName)
			continue
		}

		if !exists {
			if err := c.createLogIndex(ctx, indexName); err != nil {
				failed = append(failed, indexName)
				continue
			}
			log.Printf("Created OpenSearch index: %s", indexName)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to set up indices: %s", strings.Join(failed, ", "))
	}
	return nil
}

// indexExists checks if an index exists
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

// createLogIndex creates a new index for gateway logs with proper mapping
func (c *Client) createLogIndex(ctx context.Context, indexName string) error {
	mapping := `{
		"mappings": {
			"properties": {
				"timestamp": {
					"type": "date",
					"format": "strict_date_optional_time||epoch_millis"
				},
				"provider": {"type": "keyword"},
				"operation": {"type": "keyword"},
				"method": {"type": "keyword"},
				"endpoint": {"type": "keyword"},
				"request_id": {"type": "keyword"},
				"client_ip": {"type": "ip"},
				"level": {"type": "keyword"},
				"message": {"type": "text"},
				"request": {
					"type": "object",
					"properties": {
						"headers": {"type": "object"},
						"body": {"type": "text"}
					}
				},
				"response": {
					"type": "object",
					"properties": {
						"status_code": {"type": "integer"},
						"body": {"type": "text"},
						"processing_time_ms": {"type": "integer"}
					}
				},
				"transaction": {
					"type": "object",
					"properties": {
						"id": {"type": "keyword"},
						"account_id": {"type": "keyword"},
						"amount": {"type": "keyword"},
						"currency": {"type": "keyword"},
						"action": {"type": "keyword"}
					}
				},
				"error": {
					"type": "object",
					"properties": {
						"code": {"type": "keyword"},
						"message": {"type": "text"}
					}
				}
			}
		},
		"settings": {
			"number_of_shards": 1,
			"number_of_replicas": 0
		}
	}`

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

// GetLogIndexName returns the index name for a provider's gateway logs
func (c *Client) GetLogIndexName(provider string) string {
	return provider + "-gateway-logs"
}

// IsEnabled returns whether OpenSearch logging is enabled
func (c *Client) IsEnabled() bool {
	return c.config.EnableLogging
}
