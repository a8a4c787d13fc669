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

// GatewayLog represents a structured log entry for one bridge call to the gateway
type GatewayLog struct {
	Timestamp   time.Time       `json:"timestamp"`
	Provider    string          `json:"provider"`
	Operation   string          `json:"operation"`
	Method      string          `json:"method"`
	Endpoint    string          `json:"endpoint"`
	RequestID   string          `json:"request_id"`
	UserAgent   string          `json:"user_agent,omitempty"`
	ClientIP    string          `json:"client_ip,omitempty"`
	Request     RequestLog      `json:"request"`
	Response    ResponseLog     `json:"response"`
	Transaction TransactionInfo `json:"transaction,omitempty"`
	Error       ErrorInfo       `json:"error,omitempty"`
}

// RequestLog represents request details
type RequestLog struct {
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// ResponseLog represents response details
type ResponseLog struct {
	StatusCode       int    `json:"status_code"`
	Body             string `json:"body,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// TransactionInfo carries the gateway transaction fields seen in a call
type TransactionInfo struct {
	ID        string `json:"id,omitempty"`
	AccountID string `json:"account_id,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Action    string `json:"action,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code,omitempty"`
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

// LogGatewayRequest indexes a gateway call log
func (l *Logger) LogGatewayRequest(ctx context.Context, log GatewayLog) error {
	if !l.client.IsEnabled() {
		return nil
	}

	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}
	if log.RequestID == "" {
		log.RequestID = uuid.New().String()
	}
	if log.Provider == "" {
		log.Provider = "saferpay"
	}

	log.Request.Body = SanitizeForLog(log.Request.Body)
	log.Response.Body = SanitizeForLog(log.Response.Body)

	return l.index(ctx, l.client.GetLogIndexName(log.Provider), log)
}

// SearchLogs searches for gateway logs based on criteria
func (l *Logger) SearchLogs(ctx context.Context, provider string, query map[string]any) ([]GatewayLog, error) {
	if !l.client.IsEnabled() {
		return nil, fmt.Errorf("logging is disabled")
	}

	searchQuery := map[string]any{
		"query": query,
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
		Index: []string{l.client.GetLogIndexName(provider)},
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
				Source GatewayLog `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	logs := make([]GatewayLog, len(searchResult.Hits.Hits))
	for i, hit := range searchResult.Hits.Hits {
		logs[i] = hit.Source
	}

	return logs, nil
}

// GetTransactionLogs retrieves logs for a gateway transaction id
func (l *Logger) GetTransactionLogs(ctx context.Context, provider, transactionID string) ([]GatewayLog, error) {
	query := map[string]any{
		"term": map[string]any{
			"transaction.id": transactionID,
		},
	}

	return l.SearchLogs(ctx, provider, query)
}

// GetRecentErrorLogs retrieves recent error logs for a provider
func (l *Logger) GetRecentErrorLogs(ctx context.Context, provider string, hours int) ([]GatewayLog, error) {
	query := map[string]any{
		"bool": map[string]any{
			"must": []map[string]any{
				{
					"range": map[string]any{
						"timestamp": map[string]any{
							"gte": fmt.Sprintf("now-%dh", hours),
						},
					},
				},
				{
					"exists": map[string]any{
						"field": "error.message",
					},
				},
			},
		},
	}

	return l.SearchLogs(ctx, provider, query)
}

// LogSystemEvent logs a system event to OpenSearch
func (l *Logger) LogSystemEvent(ctx context.Context, log any) error {
	if !l.client.IsEnabled() {
		return nil
	}

	return l.index(ctx, systemLogsIndex, log)
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

var sensitivePatterns = buildSensitivePatterns(
	"spPassword", "sppassword", "apiPassword", "password", "SIGNATURE", "signature",
	"authorization", "Authorization", "CARDREFID", "cardRefId", "TOKEN", "token",
)

type sensitivePattern struct {
	field    string
	patterns []*regexp.Regexp
}

func buildSensitivePatterns(fields ...string) []sensitivePattern {
	result := make([]sensitivePattern, 0, len(fields))
	for _, field := range fields {
		quoted := regexp.QuoteMeta(field)
		result = append(result, sensitivePattern{
			field: field,
			patterns: []*regexp.Regexp{
				regexp.MustCompile(fmt.Sprintf(`"%s"\s*:\s*"[^"]*"`, quoted)),  // JSON
				regexp.MustCompile(fmt.Sprintf(`\b%s="[^"]*"`, quoted)),        // XML attribute
				regexp.MustCompile(fmt.Sprintf(`\b%s=[^"&\s][^&\s]*`, quoted)), // form / query
			},
		})
	}
	return result
}

// SanitizeForLog removes credentials and signatures from a payload before logging
func SanitizeForLog(data string) string {
	result := data
	for _, sp := range sensitivePatterns {
		result = sp.patterns[0].ReplaceAllString(result, fmt.Sprintf(`"%s":"***REDACTED***"`, sp.field))
		result = sp.patterns[1].ReplaceAllString(result, sp.field+`="***REDACTED***"`)
		result = sp.patterns[2].ReplaceAllString(result, sp.field+"=***REDACTED***")
	}
	return result
}
