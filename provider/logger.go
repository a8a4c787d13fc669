package provider

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/horo42/saferpay/infra/logger"
	"github.com/horo42/saferpay/infra/opensearch"
)

type requestIDKey struct{}

// WithRequestID attaches the bridge request id to ctx so gateway logs can be correlated
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request id stored by WithRequestID
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// GatewayLogSink receives one record per gateway round trip. *opensearch.Logger implements it.
type GatewayLogSink interface {
	LogGatewayRequest(ctx context.Context, log opensearch.GatewayLog) error
}

// LoggingTransport records every round trip of the wrapped transport
type LoggingTransport struct {
	next     Transport
	sink     GatewayLogSink
	provider string
}

// NewLoggingTransport wraps next so each call is written to sink. next may be nil
// when the transport is handed to a gateway factory, which supplies it through Wrap.
func NewLoggingTransport(next Transport, sink GatewayLogSink, providerName string) *LoggingTransport {
	return &LoggingTransport{
		next:     next,
		sink:     sink,
		provider: providerName,
	}
}

// Wrap returns a copy of t that forwards to next
func (t *LoggingTransport) Wrap(next Transport) Transport {
	return &LoggingTransport{
		next:     next,
		sink:     t.sink,
		provider: t.provider,
	}
}

// Send forwards to the wrapped transport and logs the exchange
func (t *LoggingTransport) Send(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) (*HTTPResponse, error) {
	if t.next == nil {
		return nil, ErrTransportNotConfigured
	}

	start := time.Now()
	resp, err := t.next.Send(ctx, method, rawURL, body, headers)

	entry := opensearch.GatewayLog{
		Timestamp: start,
		Provider:  t.provider,
		Operation: OperationForURL(rawURL),
		Method:    method,
		Endpoint:  rawURL,
		RequestID: RequestIDFromContext(ctx),
		Request: opensearch.RequestLog{
			Headers: loggableHeaders(headers),
			Body:    string(body),
		},
		Response: opensearch.ResponseLog{
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		},
		Transaction: transactionInfo(headers["Content-Type"], body),
	}

	switch {
	case err != nil:
		entry.Error = opensearch.ErrorInfo{Code: "transport_error", Message: err.Error()}
	case resp != nil:
		entry.Response.StatusCode = resp.StatusCode
		entry.Response.Body = string(resp.Body)
		if resp.StatusCode != 200 {
			entry.Error = opensearch.ErrorInfo{Code: "http_" + strconv.Itoa(resp.StatusCode), Message: "unexpected status code"}
		} else if strings.Contains(string(resp.Body), "ERROR") {
			entry.Error = opensearch.ErrorInfo{Code: "gateway_error", Message: string(resp.Body)}
		}
	}

	if logErr := t.sink.LogGatewayRequest(ctx, entry); logErr != nil {
		logger.Warn("failed to record gateway request", logger.LogContext{
			Provider:  t.provider,
			Operation: entry.Operation,
			RequestID: entry.RequestID,
			Fields:    map[string]any{"error": logErr.Error()},
		})
	}

	return resp, err
}

// OperationForURL names the gateway operation an endpoint belongs to
func OperationForURL(rawURL string) string {
	switch {
	case strings.Contains(rawURL, "/PaymentPage/Initialize"):
		return "CreatePayInit"
	case strings.Contains(rawURL, "VerifyPayConfirm"):
		return "VerifyPayConfirm"
	case strings.Contains(rawURL, "PayCompleteV2"):
		return "PayCompleteV2"
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "unknown"
	}
	return u.Path[strings.LastIndex(u.Path, "/")+1:]
}

func loggableHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if strings.EqualFold(k, "Authorization") {
			v = "***REDACTED***"
		}
		out[k] = v
	}
	return out
}

func transactionInfo(contentType string, body []byte) opensearch.TransactionInfo {
	if strings.HasPrefix(contentType, "application/json") {
		var envelope struct {
			Payment struct {
				Amount struct {
					Value        json.Number `json:"Value"`
					CurrencyCode string      `json:"CurrencyCode"`
				} `json:"Amount"`
				OrderID string `json:"OrderId"`
			} `json:"Payment"`
		}
		if json.Unmarshal(body, &envelope) != nil {
			return opensearch.TransactionInfo{}
		}
		return opensearch.TransactionInfo{
			ID:       envelope.Payment.OrderID,
			Amount:   envelope.Payment.Amount.Value.String(),
			Currency: envelope.Payment.Amount.CurrencyCode,
		}
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return opensearch.TransactionInfo{}
	}
	return opensearch.TransactionInfo{
		ID:        values.Get("ID"),
		AccountID: values.Get("ACCOUNTID"),
		Amount:    values.Get("AMOUNT"),
		Currency:  values.Get("CURRENCY"),
		Action:    values.Get("ACTION"),
	}
}
